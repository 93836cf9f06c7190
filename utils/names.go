package utils

import (
	"strings"
	"unicode"
)

var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "dr": true, "shri": true, "smt": true, "kumari": true,
}

// NormalizeName lowercases a name, drops punctuation and honorifics and
// collapses whitespace.
func NormalizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !honorifics[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NameSimilarity scores two names between 0 and 1 using edit distance over
// their normalized, space-free forms.
func NameSimilarity(a, b string) float64 {
	s1 := strings.ReplaceAll(NormalizeName(a), " ", "")
	s2 := strings.ReplaceAll(NormalizeName(b), " ", "")

	if s1 == "" && s2 == "" {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	maxLen := max(len([]rune(s1)), len([]rune(s2)))
	return 1.0 - float64(levenshtein(s1, s2))/float64(maxLen)
}

// NamesMatch reports whether every word of the shorter name appears in the
// longer one, in any order, or the names are near-identical by edit distance.
// Slips often abbreviate or reorder names ("KUMAR RAJESH", "R K SHARMA").
func NamesMatch(a, b string) bool {
	wa := strings.Fields(NormalizeName(a))
	wb := strings.Fields(NormalizeName(b))
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	if len(wa) > len(wb) {
		wa, wb = wb, wa
	}

	for _, short := range wa {
		found := false
		for _, long := range wb {
			if short == long || (len(short) == 1 && strings.HasPrefix(long, short)) {
				found = true
				break
			}
		}
		if !found {
			return NameSimilarity(a, b) >= 0.85
		}
	}
	return true
}

func levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
