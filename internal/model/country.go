package model

import (
	"sort"
	"strings"
)

// Country describes a selectable locale and its currency.
type Country struct {
	Name     string
	Currency string
}

// Countries maps ISO 3166 alpha-2 codes to their display name and ISO 4217 currency.
var Countries = map[string]Country{
	"AE": {Name: "United Arab Emirates", Currency: "AED"},
	"AU": {Name: "Australia", Currency: "AUD"},
	"BD": {Name: "Bangladesh", Currency: "BDT"},
	"BR": {Name: "Brazil", Currency: "BRL"},
	"CA": {Name: "Canada", Currency: "CAD"},
	"CH": {Name: "Switzerland", Currency: "CHF"},
	"CN": {Name: "China", Currency: "CNY"},
	"DE": {Name: "Germany", Currency: "EUR"},
	"EG": {Name: "Egypt", Currency: "EGP"},
	"ES": {Name: "Spain", Currency: "EUR"},
	"FR": {Name: "France", Currency: "EUR"},
	"GB": {Name: "United Kingdom", Currency: "GBP"},
	"IN": {Name: "India", Currency: "INR"},
	"IT": {Name: "Italy", Currency: "EUR"},
	"JP": {Name: "Japan", Currency: "JPY"},
	"KR": {Name: "South Korea", Currency: "KRW"},
	"MX": {Name: "Mexico", Currency: "MXN"},
	"NG": {Name: "Nigeria", Currency: "NGN"},
	"PK": {Name: "Pakistan", Currency: "PKR"},
	"SA": {Name: "Saudi Arabia", Currency: "SAR"},
	"SE": {Name: "Sweden", Currency: "SEK"},
	"SG": {Name: "Singapore", Currency: "SGD"},
	"TR": {Name: "Turkey", Currency: "TRY"},
	"US": {Name: "United States", Currency: "USD"},
	"ZA": {Name: "South Africa", Currency: "ZAR"},
}

// LookupCountry finds a country by code, case-insensitively.
func LookupCountry(code string) (Country, bool) {
	c, ok := Countries[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// SearchCountries matches the query against the code, name or currency.
// Results are sorted by name.
func SearchCountries(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	var codes []string
	for code, c := range Countries {
		if q == "" ||
			strings.Contains(strings.ToLower(code), q) ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Currency), q) {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		return Countries[codes[i]].Name < Countries[codes[j]].Name
	})
	return codes
}

// Currencies returns the distinct currencies of Countries, sorted.
func Currencies() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range Countries {
		if _, ok := seen[c.Currency]; ok {
			continue
		}
		seen[c.Currency] = struct{}{}
		out = append(out, c.Currency)
	}
	sort.Strings(out)
	return out
}
