package resolve

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/siherrmann/graphreason/model"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Normalize lowercases a name and drops whitespace and every character that
// is not a letter, digit, underscore or CJK ideograph.
func Normalize(name string) string {
	return model.NormalizeName(name)
}

// Tokens returns the set of lowercased word runs of text.
func Tokens(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, t := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[t] = struct{}{}
	}
	return tokens
}

// NameSimilarity scores two names after normalization: 1 for an exact match,
// containsScore if one contains the other, the sequence ratio otherwise.
func NameSimilarity(a, b string, containsScore float64) float64 {
	na, nb := Normalize(a), Normalize(b)
	switch {
	case na == nb:
		return 1
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return containsScore
	}
	return SequenceRatio(na, nb)
}

// SequenceRatio is the Ratcliff/Obershelp similarity 2*M/T of two strings
// compared rune by rune, where M is the number of runes in matching blocks and
// T the total length.
func SequenceRatio(a, b string) float64 {
	return difflib.NewMatcher(runeStrings(a), runeStrings(b)).Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// ContextScore is the largest token overlap between the context and the
// description or any string property of a candidate, relative to the size of
// the candidate text.
func ContextScore(context string, description string, properties []string) float64 {
	if context == "" {
		return 0
	}
	contextTokens := Tokens(context)

	best := 0.0
	texts := append([]string{description}, properties...)
	for _, text := range texts {
		if text == "" {
			continue
		}
		tokens := Tokens(text)
		overlap := 0
		for t := range tokens {
			if _, ok := contextTokens[t]; ok {
				overlap++
			}
		}
		denominator := len(tokens)
		if denominator < 1 {
			denominator = 1
		}
		score := float64(overlap) / float64(denominator)
		if score > 1 {
			score = 1
		}
		if score > best {
			best = score
		}
	}
	return best
}
