package search

import (
	"math"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Scaling applied to the secondary ratios, so that an exact match of the
// whole name always outranks a prefix or reordered-token match.
const (
	partialScale       = 0.9
	farPartialScale    = 0.6
	tokenSortScale     = 0.95
	partialLenRatio    = 1.5
	farPartialLenRatio = 8.0
)

// ratio is the normalized edit-distance similarity of a and b in [0,100]
func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// partialRatio is the best ratio of short against any equally long window of long
func partialRatio(short, long string) float64 {
	sr, lr := []rune(short), []rune(long)
	if len(sr) == 0 || len(sr) > len(lr) {
		return ratio(short, long)
	}

	best := 0.0
	for start := 0; start+len(sr) <= len(lr); start++ {
		score := ratio(short, string(lr[start:start+len(sr)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// tokenSortRatio compares both strings with their words sorted
func tokenSortRatio(a, b string) float64 {
	sortTokens := func(s string) string {
		tokens := strings.Fields(s)
		slices.Sort(tokens)
		return strings.Join(tokens, " ")
	}
	return ratio(sortTokens(a), sortTokens(b))
}

// Similarity scores two normalized strings in [0,100], 100 meaning equal.
// It takes the best of the plain ratio, a scaled best-window ratio when
// the lengths differ markedly, and a scaled token-order-insensitive ratio.
func Similarity(query, candidate string) int {
	if query == candidate {
		return 100
	}
	if query == "" || candidate == "" {
		return 0
	}

	best := ratio(query, candidate)

	short, long := query, candidate
	if len([]rune(short)) > len([]rune(long)) {
		short, long = long, short
	}
	lenRatio := float64(len([]rune(long))) / float64(len([]rune(short)))

	if lenRatio >= partialLenRatio {
		scale := partialScale
		if lenRatio > farPartialLenRatio {
			scale = farPartialScale
		}
		best = max(best, partialRatio(short, long)*scale)
	}

	best = max(best, tokenSortRatio(query, candidate)*tokenSortScale)

	return int(math.Round(best))
}
