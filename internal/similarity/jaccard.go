// Package similarity implements pairwise token-overlap scoring.
package similarity

// DefaultThreshold is the minimum Jaccard score (percent) a corpus file must
// reach to appear in scan results.
const DefaultThreshold = 5.0

// Jaccard returns |A intersect B| / |A union B| scaled to a percentage.
// The score is symmetric and 0 when the union is empty. Cost is
// O(min(|A|,|B|)) using hash lookups against the larger set.
func Jaccard(a, b map[string]struct{}) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union) * 100
}
