// Package matcher fuzzy-matches free-text submissions against ranked answers.
package matcher

import (
	"strings"

	"feudlive/internal/model"
)

// maxErrorRatio bounds both the absolute and relative edit distance
const maxErrorRatio = 0.25

// Match returns the first unrevealed candidate, in list order, that the
// submission is close enough to. It returns nil when nothing matches.
func Match(submitted string, candidates []model.Answer) *model.Answer {
	sub := normalize(submitted)
	if sub == "" {
		return nil
	}
	subRunes := []rune(sub)

	for i := range candidates {
		if candidates[i].Revealed {
			continue
		}
		cand := []rune(normalize(candidates[i].Answer))
		if len(cand) == 0 {
			continue
		}
		if accepts(subRunes, cand) {
			return &candidates[i]
		}
	}
	return nil
}

func accepts(sub, cand []rune) bool {
	dist := Distance(sub, cand)

	allowed := int(maxErrorRatio * float64(len(cand)))
	if allowed < 1 {
		allowed = 1
	}
	if dist > allowed {
		return false
	}

	longest := len(sub)
	if len(cand) > longest {
		longest = len(cand)
	}
	return float64(dist)/float64(longest) <= maxErrorRatio
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Distance is the Levenshtein edit distance between a and b
func Distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
