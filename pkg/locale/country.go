package locale

import "strings"

const DefaultCountryCode = "RO"

type Country struct {
	Code     string // ISO 3166-1 alpha-2
	Name     string
	DialCode string
}

// Countries lists the guest origins the booking ledger is commonly sent.
// Codes outside the list are still returned by InferCountryFromPhone, just
// without a name.
var Countries = map[string]Country{
	"RO": {Code: "RO", Name: "Romania", DialCode: "+40"},
	"MD": {Code: "MD", Name: "Moldova", DialCode: "+373"},
	"HU": {Code: "HU", Name: "Hungary", DialCode: "+36"},
	"BG": {Code: "BG", Name: "Bulgaria", DialCode: "+359"},
	"DE": {Code: "DE", Name: "Germany", DialCode: "+49"},
	"IT": {Code: "IT", Name: "Italy", DialCode: "+39"},
	"FR": {Code: "FR", Name: "France", DialCode: "+33"},
	"ES": {Code: "ES", Name: "Spain", DialCode: "+34"},
	"GB": {Code: "GB", Name: "United Kingdom", DialCode: "+44"},
	"US": {Code: "US", Name: "United States", DialCode: "+1"},
}

func Lookup(code string) (Country, bool) {
	c, ok := Countries[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}
