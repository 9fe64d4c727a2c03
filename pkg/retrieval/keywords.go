package retrieval

import "strings"

// stopWords is the fixed stop-word list used by keyword extraction: articles,
// conjunctions, pronouns, and common prepositions that carry no retrieval
// signal.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {}, "if": {}, "then": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"do": {}, "does": {}, "did": {},
	"have": {}, "has": {}, "had": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "as": {}, "by": {}, "from": {}, "about": {}, "into": {},
	"this": {}, "that": {}, "these": {}, "those": {},
	"it": {}, "its": {}, "i": {}, "you": {}, "he": {}, "she": {},
	"we": {}, "they": {}, "my": {}, "your": {},
	"what": {}, "which": {}, "who": {}, "whom": {},
	"how": {}, "when": {}, "where": {}, "why": {},
	"not": {}, "no": {}, "so": {},
}

// ExtractKeywords extracts up to max query keywords from text.
//
// Tokens are lower-cased, stripped of surrounding punctuation, and kept only
// when longer than 2 characters and not on the stop-word list.
func ExtractKeywords(text string, max int) []string {
	var keywords []string
	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := trimPunctuation(token)
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}

// contextWords splits a trailing-context string into the lower-cased words
// used for context overlap. Only words longer than 3 characters count.
func contextWords(text string) []string {
	var words []string
	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := trimPunctuation(token)
		if len(word) > 3 {
			words = append(words, word)
		}
	}
	return words
}

// trimPunctuation strips leading and trailing non-alphanumeric characters
// from a token. Inner punctuation (apostrophes, hyphens) is preserved.
func trimPunctuation(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return !isAlphanumeric(r)
	})
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
