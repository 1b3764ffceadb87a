package keywords

import "strings"

// pricingTerms maps question tokens to canonical pricing types.
var pricingTerms = map[string]string{
	"free":         "free",
	"gratis":       "free",
	"freemium":     "freemium",
	"paid":         "paid",
	"premium":      "paid",
	"subscription": "subscription",
	"monthly":      "subscription",
	"enterprise":   "enterprise",
	"one-time":     "one-time",
	"lifetime":     "one-time",
	"open-source":  "open-source",
	"opensource":   "open-source",
}

// pricingPhrases are spelled-out pricing types folded into a single token.
var pricingPhrases = []struct{ phrase, token string }{
	{"open source", "open-source"},
	{"one time", "one-time"},
}

// PricingType returns the canonical pricing type of a term such as
// "Premium" or "open source".
func PricingType(term string) (string, bool) {
	term = strings.Join(strings.Fields(Normalize(term)), " ")
	for _, p := range pricingPhrases {
		if term == p.phrase {
			term = p.token
		}
	}
	canon, ok := pricingTerms[term]
	return canon, ok
}

// SplitPricing tokenizes text and separates pricing words from searchable
// terms. Pricing types are canonical and deduplicated, in order of
// appearance.
func SplitPricing(text string) (terms, pricing []string) {
	folded := " " + strings.Join(strings.Fields(Normalize(text)), " ") + " "
	for _, p := range pricingPhrases {
		folded = strings.ReplaceAll(folded, " "+p.phrase+" ", " "+p.token+" ")
	}

	terms = []string{}
	seen := map[string]struct{}{}
	for _, tok := range Tokenize(folded) {
		canon, ok := pricingTerms[tok]
		if !ok {
			terms = append(terms, tok)
			continue
		}
		if _, dup := seen[canon]; !dup {
			seen[canon] = struct{}{}
			pricing = append(pricing, canon)
		}
	}
	return terms, pricing
}
