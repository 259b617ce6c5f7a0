package sanitizer

import (
	"strings"
	"unicode"

	"roomsync/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

// MinPhoneDigits is the shortest guest phone number accepted.
const MinPhoneDigits = 10

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range locale.Regions() {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}

// PhoneDigits counts the decimal digits in phone, ignoring formatting.
func PhoneDigits(phone string) int {
	n := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// IsValidGuestPhone reports whether phone carries at least MinPhoneDigits
// digits and parses as a phone number in one of the supported regions.
func IsValidGuestPhone(phone string) bool {
	return PhoneDigits(phone) >= MinPhoneDigits && NormalizePhone(phone) != ""
}
