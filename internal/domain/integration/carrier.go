package integration

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// knownCarriers maps folded carrier spellings to the name storefronts expect
var knownCarriers = map[string]string{
	"ups":           "UPS",
	"usps":          "USPS",
	"fedex":         "FedEx",
	"fed ex":        "FedEx",
	"dhl":           "DHL Express",
	"dhl express":   "DHL Express",
	"dhl ecommerce": "DHL eCommerce",
	"canada post":   "Canada Post",
	"royal mail":    "Royal Mail",
	"sf express":    "SF Express",
	"yto":           "YTO Express",
	"zto":           "ZTO Express",
}

var foldCarrier = cases.Fold()

// NormalizeCarrier canonicalises a tracking company name. Accents and case
// are folded, whitespace is collapsed, and well-known carriers are mapped to
// their canonical spelling. Unknown carriers are title-cased.
func NormalizeCarrier(name string) string {
	trimmed := strings.Join(strings.Fields(name), " ")
	if trimmed == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, trimmed)
	if err != nil {
		stripped = trimmed
	}
	key := foldCarrier.String(stripped)
	if canonical, ok := knownCarriers[key]; ok {
		return canonical
	}
	return cases.Title(language.Und, cases.NoLower).String(trimmed)
}
