package matching

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Corporate suffixes carry no identity signal and banks truncate or drop them
// inconsistently, so they are stripped before comparison.
var corporateSuffixes = map[string]bool{
	"LTD": true, "LIMITED": true, "LLC": true, "INC": true, "CORP": true,
	"CO": true, "GMBH": true, "BV": true, "PLC": true, "PVT": true,
	"SA": true, "AG": true, "SARL": true,
}

// NameSimilarity returns a normalized [0,1] similarity between two
// counterparty names. Each token of the shorter name is matched against its
// best levenshtein counterpart in the other name; the result is the average of
// those best-token similarities.
func NameSimilarity(a, b string) float64 {
	ta := tokenizeName(a)
	tb := tokenizeName(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(tb) < len(ta) {
		ta, tb = tb, ta
	}

	total := 0.0
	for _, t := range ta {
		best := 0.0
		for _, u := range tb {
			if sim := tokenSimilarity(t, u); sim > best {
				best = sim
			}
		}
		total += best
	}
	return total / float64(len(ta))
}

func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return 1.0 - float64(dist)/float64(maxLen)
}

func tokenizeName(name string) []string {
	n := strings.ToUpper(name)
	var sb strings.Builder
	for _, r := range n {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(sb.String()) {
		if corporateSuffixes[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
