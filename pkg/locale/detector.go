package locale

import "strings"

// InferCountryFromPhone returns the country owning the calling code of an
// E.164 number, or nil when the number is not E.164 or the code is unknown.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)
	if !strings.HasPrefix(normalized, "+") {
		return nil
	}

	for i := range Countries {
		for _, prefix := range Countries[i].PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				c := Countries[i]
				return &c
			}
		}
	}
	return nil
}
