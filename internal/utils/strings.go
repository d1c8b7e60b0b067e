package utils

import "strings"

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// Used for ticker lists passed as query parameters and CLI flags.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// Similarity returns a score in [0, 1] derived from the insert/delete edit
// distance between a and b: 2*LCS / (len(a)+len(b)).
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	// Longest common subsequence, two-row table.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return 2 * float64(prev[len(rb)]) / float64(total)
}

// ClosestMatch returns the candidate most similar to word whose score reaches
// cutoff. Ties keep the earliest candidate.
func ClosestMatch(word string, candidates []string, cutoff float64) (string, bool) {
	best, bestScore := "", -1.0
	for _, c := range candidates {
		score := Similarity(word, c)
		if score >= cutoff && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= 0
}
