package income

import "strings"

// Income categories
const (
	CategoryDividend  = "dividend"
	CategoryInterest  = "interest"
	CategoryRental    = "rental"
	CategoryFreelance = "freelance"
	CategoryOther     = "other"
)

// categoryKeywords maps description substrings to categories. Order matters:
// first match wins.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"dividend", CategoryDividend},
	{"div pmt", CategoryDividend},
	{"interest", CategoryInterest},
	{"int pmt", CategoryInterest},
	{"rent", CategoryRental},
	{"rental", CategoryRental},
	{"freelance", CategoryFreelance},
	{"invoice", CategoryFreelance},
}

// Categorize classifies a bank transaction description into an income
// category by case-insensitive substring match. Unmatched descriptions fall
// back to "other".
func Categorize(description string) string {
	lower := strings.ToLower(description)
	for _, k := range categoryKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.category
		}
	}
	return CategoryOther
}
