// Package tfidf implements the lexical text model used for prompt similarity:
// a stop-word filtering tokenizer, batch TF-IDF vectorization and cosine similarity.
package tfidf

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTermLength = 3

//nolint:gochecknoglobals // Fixed lookup table
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {},
	"has": {}, "have": {}, "his": {}, "him": {}, "how": {}, "its": {}, "may": {}, "who": {},
	"did": {}, "does": {}, "this": {}, "that": {}, "these": {}, "those": {}, "with": {},
	"from": {}, "they": {}, "them": {}, "their": {}, "there": {}, "then": {}, "than": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "why": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "been": {}, "being": {}, "were": {}, "into": {}, "about": {},
	"your": {}, "just": {}, "also": {}, "some": {}, "very": {}, "she": {}, "more": {},
	"most": {}, "other": {}, "such": {}, "only": {}, "own": {}, "same": {}, "too": {},
	"please": {},
}

// IsStopWord reports whether term is filtered out by the tokenizer.
func IsStopWord(term string) bool {
	_, ok := stopWords[term]
	return ok
}

// Tokenize lowercases text, replaces every character that is neither a letter,
// a digit nor whitespace with a space, splits on whitespace and drops terms that
// are shorter than three characters or are stop words.
func Tokenize(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(normalized)
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < minTermLength {
			continue
		}
		if IsStopWord(field) {
			continue
		}
		terms = append(terms, field)
	}

	return terms
}
