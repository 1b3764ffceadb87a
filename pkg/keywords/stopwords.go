package keywords

// stopwords are dropped during tokenization: common English function words
// plus filler that shows up in nearly every request for a catalog entry.
var stopwords = toSet([]string{
	"about", "above", "after", "again", "against", "all", "also", "and", "any",
	"are", "aren't", "because", "been", "before", "being", "below", "between",
	"both", "but", "can", "cannot", "could", "did", "does", "doing", "down",
	"during", "each", "else", "even", "ever", "every", "few", "for", "from",
	"further", "get", "gets", "give", "had", "has", "have", "having", "her",
	"here", "hers", "herself", "him", "himself", "his", "how", "into", "its",
	"itself", "just", "let", "like", "many", "more", "most", "much", "must",
	"myself", "nor", "not", "now", "off", "once", "one", "only", "other",
	"ought", "our", "ours", "ourselves", "out", "over", "own", "same", "she",
	"should", "some", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through",
	"too", "under", "until", "very", "via", "was", "way", "were", "what",
	"when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"within", "without", "would", "yes", "yet", "you", "your", "yours",
	"yourself", "yourselves", "please", "thanks", "thank", "hello", "hey",

	// conversational filler
	"need", "needs", "want", "wants", "looking", "look", "find", "finding",
	"help", "helps", "something", "anything", "recommend", "recommendation",
	"recommendations", "suggest", "best", "good", "great", "better", "really",
	"using", "use", "used", "make", "makes", "making", "able", "know",

	// catalog filler
	"tool", "tools", "model", "models", "app", "apps", "application",
	"applications", "software", "platform", "platforms", "service", "services",
	"solution", "solutions",
})

// IsStopword reports whether the lowercase token is ignored by the tokenizer.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
