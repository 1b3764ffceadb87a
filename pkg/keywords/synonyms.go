package keywords

import (
	"sort"
	"strings"

	"github.com/taaft-ai/toolsearch/pkg/models"
)

// DefaultMaxExpanded caps the output of Expand.
const DefaultMaxExpanded = 20

// thesaurus maps a catalog category to the terms users write when they mean it.
var thesaurus = map[string][]string{
	"writing":      {"content creation", "text generation", "copywriting"},
	"image":        {"image generation", "art", "design", "photo", "illustration"},
	"audio":        {"music", "voice", "speech", "podcast", "sound"},
	"video":        {"video editing", "video generation", "animation", "youtube"},
	"code":         {"programming", "developer", "coding", "software development"},
	"marketing":    {"seo", "advertising", "social media", "email marketing"},
	"data":         {"spreadsheet", "database", "data analysis", "visualization"},
	"productivity": {"automation", "workflow", "task management", "note taking"},
	"research":     {"academic", "papers", "summarization", "literature review"},
	"chat":         {"chatbot", "assistant", "conversation", "customer support"},
	"e-commerce":   {"ecommerce", "shopping", "online store", "product description"},
	"analytics":    {"metrics", "reporting", "dashboard", "insights"},
}

// Expander enlarges keyword sets with thesaurus siblings and known keywords.
// It holds no mutable state and is safe for concurrent use.
type Expander struct {
	maxExpanded int
	byTerm      map[string][]string // key or synonym -> categories
}

// NewExpander creates an Expander capped at maxExpanded terms. A
// non-positive cap selects DefaultMaxExpanded.
func NewExpander(maxExpanded int) *Expander {
	if maxExpanded <= 0 {
		maxExpanded = DefaultMaxExpanded
	}
	byTerm := make(map[string][]string)
	for _, cat := range categoryNames() {
		byTerm[cat] = append(byTerm[cat], cat)
		for _, syn := range thesaurus[cat] {
			byTerm[syn] = append(byTerm[syn], cat)
		}
	}
	return &Expander{maxExpanded: maxExpanded, byTerm: byTerm}
}

// Categories returns the taxonomy sorted by name.
func (e *Expander) Categories() []models.Category {
	names := categoryNames()
	out := make([]models.Category, 0, len(names))
	for _, name := range names {
		out = append(out, models.Category{
			Name:     name,
			Synonyms: append([]string(nil), thesaurus[name]...),
		})
	}
	return out
}

// Expand returns keywords followed by the thesaurus siblings of every
// keyword that names a category or one of its synonyms. The result is
// deduplicated and capped; the input keywords are always retained.
func (e *Expander) Expand(keywords []string) []string {
	set, _ := e.expand(NormalizeKeywords(keywords))
	return set.items
}

// ExpandWithKnown is Expand plus the known keywords that match the input.
// The returned matches record which term pulled in each addition.
func (e *Expander) ExpandWithKnown(keywords, known []string) ([]string, []models.KeywordMatch) {
	normalized := NormalizeKeywords(keywords)
	set, matches := e.expand(normalized)
	for _, m := range e.match(normalized, known) {
		set.add(m.Matched)
		matches = append(matches, m)
	}
	return set.items, matches
}

// Match reports known keywords equal to, containing, or contained in an
// input keyword. Substring matches require both sides to be at least three
// characters long.
func (e *Expander) Match(keywords, known []string) []models.KeywordMatch {
	return e.match(NormalizeKeywords(keywords), known)
}

// CategoriesIn returns the categories whose key or synonyms appear in text,
// in taxonomy order.
func (e *Expander) CategoriesIn(text string) []string {
	folded := " " + strings.Join(strings.Fields(Normalize(text)), " ") + " "
	tokens := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(folded, -1) {
		tokens[tok] = struct{}{}
		tokens[singular(tok)] = struct{}{}
	}

	found := make(map[string]struct{})
	for term, cats := range e.byTerm {
		var hit bool
		if strings.Contains(term, " ") {
			hit = strings.Contains(folded, " "+term+" ")
		} else {
			_, hit = tokens[term]
		}
		if hit {
			for _, c := range cats {
				found[c] = struct{}{}
			}
		}
	}

	var out []string
	for _, name := range categoryNames() {
		if _, ok := found[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (e *Expander) expand(keywords []string) (*keywordSet, []models.KeywordMatch) {
	limit := e.maxExpanded
	if len(keywords) > limit {
		limit = len(keywords)
	}
	set := newKeywordSet(limit)
	for _, kw := range keywords {
		set.add(kw)
	}

	var matches []models.KeywordMatch
	for _, kw := range keywords {
		for _, cat := range e.categoriesFor(kw) {
			for _, term := range append([]string{cat}, thesaurus[cat]...) {
				if term == kw {
					continue
				}
				if set.add(term) {
					matches = append(matches, models.KeywordMatch{
						Keyword: kw,
						Matched: term,
						Source:  models.MatchSynonym,
					})
				}
			}
		}
	}
	return set, matches
}

func (e *Expander) categoriesFor(kw string) []string {
	if cats, ok := e.byTerm[kw]; ok {
		return cats
	}
	return e.byTerm[singular(kw)]
}

func (e *Expander) match(keywords, known []string) []models.KeywordMatch {
	var matches []models.KeywordMatch
	seen := make(map[[2]string]struct{})
	for _, kw := range keywords {
		for _, k := range known {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			var source string
			switch {
			case k == kw:
				source = models.MatchExact
			case len(kw) >= 3 && len(k) >= 3 && (strings.Contains(k, kw) || strings.Contains(kw, k)):
				source = models.MatchSubstring
			default:
				continue
			}
			pair := [2]string{kw, k}
			if _, dup := seen[pair]; dup {
				continue
			}
			seen[pair] = struct{}{}
			matches = append(matches, models.KeywordMatch{Keyword: kw, Matched: k, Source: source})
		}
	}
	return matches
}

func categoryNames() []string {
	names := make([]string, 0, len(thesaurus))
	for name := range thesaurus {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// singular strips a plain English plural "s".
func singular(word string) string {
	if len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
		return word[:len(word)-1]
	}
	return word
}

// keywordSet is an insertion-ordered, bounded set of strings.
type keywordSet struct {
	limit int
	items []string
	seen  map[string]struct{}
}

func newKeywordSet(limit int) *keywordSet {
	return &keywordSet{limit: limit, items: []string{}, seen: make(map[string]struct{})}
}

// add inserts term and reports whether it was new and fit under the limit.
func (s *keywordSet) add(term string) bool {
	if _, ok := s.seen[term]; ok || len(s.items) >= s.limit {
		return false
	}
	s.seen[term] = struct{}{}
	s.items = append(s.items, term)
	return true
}
