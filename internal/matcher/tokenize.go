package matcher

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"what": true, "whats": true, "your": true, "you": true, "my": true, "me": true,
	"of": true, "for": true, "to": true, "in": true, "on": true, "at": true,
	"and": true, "or": true, "please": true, "enter": true, "do": true, "does": true,
	"be": true, "by": true, "with": true, "this": true, "that": true, "it": true,
	"its": true, "if": true, "as": true, "from": true, "how": true, "which": true,
	"who": true, "when": true, "where": true, "we": true, "our": true, "us": true,
	"have": true, "has": true, "here": true, "can": true,
}

// Tokenize splits s into case-folded word tokens. camelCase humps and any
// non-alphanumeric rune separate tokens; tokens shorter than two runes and
// stop words are dropped. Order follows s and duplicates are kept.
func Tokenize(s string) []string {
	var tokens []string
	for _, raw := range splitWords(s) {
		w := strings.ToLower(raw)
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// TokenSet is Tokenize collapsed to a set.
func TokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokenize(s) {
		set[t] = true
	}
	return set
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && len(cur) > 0 && startsHump(runes, i) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// startsHump reports a camelCase boundary at i: lower->Upper, or the last
// capital of an acronym followed by lowercase ("HTTPServer" -> HTTP|Server).
func startsHump(runes []rune, i int) bool {
	prev, r := runes[i-1], runes[i]
	if !unicode.IsUpper(r) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// overlap counts tokens shared by a and b.
func overlap(a, b map[string]bool) int {
	n := 0
	for t := range a {
		if b[t] {
			n++
		}
	}
	return n
}

// jaccard is |a∩b| / |a∪b|, zero when either side is empty.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := overlap(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
