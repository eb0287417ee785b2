package utils

import "math"

// Round1 rounds x to one decimal place. Scores are rounded this way on
// export paths; raw scores are used for threshold filtering.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
