package resolution

import "strings"

const DefaultFuzzyThreshold = 0.8

// FuzzyMatch returns the single best choice whose character-level similarity
// to target meets the threshold, or ("", 0) when nothing qualifies.
func FuzzyMatch(target string, choices []string, threshold float64) (string, float64) {
	if target == "" || len(choices) == 0 {
		return "", 0
	}

	best := ""
	bestRatio := 0.0

	for _, choice := range choices {
		ratio := similarityRatio(strings.ToLower(target), strings.ToLower(choice))
		if ratio > bestRatio {
			best = choice
			bestRatio = ratio
		}
	}

	if bestRatio < threshold {
		return "", 0
	}
	return best, bestRatio
}

// similarityRatio is 2*LCS/(len(a)+len(b)) over runes: 1.0 for identical
// strings, 0 when no characters are shared.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
