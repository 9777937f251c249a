package locale

import "staylock/pkg/sanitizer"

// InferCountryFromPhone returns nil when phone is not a parseable
// international number.
func InferCountryFromPhone(phone string) *Country {
	region := sanitizer.RegionForPhone(phone)
	if region == "" || region == "ZZ" {
		return nil
	}
	if c, ok := Lookup(region); ok {
		return &c
	}
	return &Country{Code: region}
}

// CountryCodeForPhone falls back to fallback when the phone gives no answer.
func CountryCodeForPhone(phone, fallback string) string {
	if c := InferCountryFromPhone(phone); c != nil {
		return c.Code
	}
	return fallback
}
