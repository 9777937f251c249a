package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "RO"

// NormalizePhone formats phone as E.164. National numbers are read in
// defaultRegion. The boolean is false when the number could not be parsed,
// in which case the trimmed input is returned so nothing the guest typed is
// lost.
func NormalizePhone(phone, defaultRegion string) (string, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", false
	}
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, strings.ToUpper(defaultRegion))
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return phone, false
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), true
}

// RegionForPhone returns the ISO 3166-1 alpha-2 region of an E.164 number,
// or "" when it cannot be determined.
func RegionForPhone(phone string) string {
	parsed, err := phonenumbers.Parse(strings.TrimSpace(phone), "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(parsed)
}
