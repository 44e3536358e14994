package badger

import "strings"

// Stop words to ignore when matching query terms
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation,
// and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// textRank scores a document against pre-tokenized query words. The score is
// the frequency of query terms among the document's significant words, or 0
// when any query word is missing (all terms must match).
func textRank(document string, queryWords []string) float32 {
	if len(queryWords) == 0 {
		return 0
	}

	docWords := tokenizeAndFilter(document)
	if len(docWords) == 0 {
		return 0
	}

	counts := make(map[string]int, len(docWords))
	for _, word := range docWords {
		counts[word]++
	}

	hits := 0
	for _, qWord := range queryWords {
		c, ok := counts[qWord]
		if !ok {
			return 0
		}
		hits += c
	}

	return float32(hits) / float32(len(docWords))
}
