package locale

import (
	"strings"
)

const (
	DefaultRegion = "IN"
)

type Country struct {
	Code          string   // ISO 3166-1 alpha-2 country code (e.g., "IN", "US")
	Name          string   // Human-readable country name
	PhonePrefixes []string // E.164 calling code prefixes (e.g., ["+91"])
	TimeZones     []string // Zones that identify the country as a property location
}

// Countries is ordered by preference: a national number without a calling
// code is tried against the first region first.
var Countries = []Country{
	{
		Code:          "IN",
		Name:          "India",
		PhonePrefixes: []string{"+91"},
		TimeZones:     []string{"Asia/Kolkata", "Asia/Calcutta"},
	},
	{
		Code:          "US",
		Name:          "United States",
		PhonePrefixes: []string{"+1"},
		TimeZones:     []string{"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
	},
	{
		Code:          "IL",
		Name:          "Israel",
		PhonePrefixes: []string{"+972"},
		TimeZones:     []string{"Asia/Jerusalem", "Israel", "Asia/Tel_Aviv"},
	},
}

// Regions returns the supported country codes in preference order.
func Regions() []string {
	regions := make([]string, 0, len(Countries))
	for _, c := range Countries {
		regions = append(regions, c.Code)
	}
	return regions
}

func Lookup(code string) (Country, bool) {
	for _, c := range Countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// DetectRegion maps a property time zone to its country code.
func DetectRegion(tz string) string {
	for _, c := range Countries {
		for _, z := range c.TimeZones {
			if strings.EqualFold(tz, z) {
				return c.Code
			}
		}
	}
	return DefaultRegion
}
