package pairs

import (
	"math"

	"github.com/alphabench-lab/alphabench/internal/stats"
)

// defaultHalfLife is returned when the spread shows no measurable mean
// reversion.
const defaultHalfLife = 30

// EstimateHalfLife estimates the mean-reversion half-life of a spread in
// periods by fitting its first differences against the lagged level,
// diff_t = beta*spread_{t-1} + alpha. A non-negative beta means no mean
// reversion; such spreads, and spreads with fewer than two usable points,
// get the default half-life of 30 periods. The result is truncated to whole
// periods and floored at 1.
func EstimateHalfLife(spread []float64) int {
	if len(spread) < 3 {
		return defaultHalfLife
	}

	lagged := spread[:len(spread)-1]

	diffs := make([]float64, len(spread)-1)
	for i := 1; i < len(spread); i++ {
		diffs[i-1] = spread[i] - spread[i-1]
	}

	fit, err := stats.OLS(diffs, lagged)
	if err != nil || fit.Slope >= 0 {
		return defaultHalfLife
	}

	halfLife := int(-math.Ln2 / fit.Slope)
	if halfLife < 1 {
		return 1
	}

	return halfLife
}
