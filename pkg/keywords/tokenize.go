package keywords

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_-]{3,}`)

// Normalize folds text to lowercase and strips diacritics so that
// "Café" and "cafe" tokenize identically.
func Normalize(text string) string {
	// transform.Chain keeps state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokenize returns the non-stopword tokens of text in order of appearance.
// Duplicates are kept.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(Normalize(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.Trim(tok, "-_")
		if len(tok) < 3 || IsStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// NormalizeKeywords lowercases, trims and deduplicates caller-supplied
// keywords, dropping empty entries. Order is preserved.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.Join(strings.Fields(Normalize(kw)), " ")
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
