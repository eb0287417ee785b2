package structural

import (
	"strings"
	"unicode"
)

// Ratio returns a sequence-similarity ratio in [0,1] between two strings:
// 2*LCS(a,b) / (len(a)+len(b)) over runes, where LCS is the longest common
// subsequence length. Identical strings score 1.0; strings with no common
// characters score 0.0. Two empty strings are treated as identical.
//
// The exact ratio is algorithm-specific; callers comparing against other
// implementations (e.g. edit-distance based ones) should expect close but not
// bit-identical values.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return float64(2*lcsLength(ra, rb)) / float64(total)
}

// lcsLength computes the longest common subsequence length with two rolling
// rows, so memory stays O(min side) of the DP matrix.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// normalizeChunk lowercases s and strips all whitespace, so chunk comparison
// ignores case, line wrapping, and indentation differences.
func normalizeChunk(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
