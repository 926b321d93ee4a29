package stats

import (
	"math"
	"math/rand"

	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// NormalCDF returns the standard normal cumulative distribution function at x.
func NormalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Coefficients of Acklam's rational approximation to the inverse normal CDF.
var (
	acklamA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	acklamB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	acklamC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	acklamD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00,
	}
)

// NormalQuantile returns the inverse of the standard normal CDF at p using
// Acklam's rational approximation, accurate to about 1e-9 over (0, 1).
func NormalQuantile(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, errors.Newf(errors.ErrCodeInvalidDistribution,
			"normal quantile requires p in (0, 1), got %f", p)
	}

	const (
		pLow  = 0.02425
		pHigh = 1 - pLow
	)

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))

		return (((((acklamC[0]*q+acklamC[1])*q+acklamC[2])*q+acklamC[3])*q+acklamC[4])*q + acklamC[5]) /
			((((acklamD[0]*q+acklamD[1])*q+acklamD[2])*q+acklamD[3])*q + 1), nil
	case p > pHigh:
		q := math.Sqrt(-2 * math.Log(1-p))

		return -(((((acklamC[0]*q+acklamC[1])*q+acklamC[2])*q+acklamC[3])*q+acklamC[4])*q + acklamC[5]) /
			((((acklamD[0]*q+acklamD[1])*q+acklamD[2])*q+acklamD[3])*q + 1), nil
	default:
		q := p - 0.5
		r := q * q

		return (((((acklamA[0]*r+acklamA[1])*r+acklamA[2])*r+acklamA[3])*r+acklamA[4])*r + acklamA[5]) * q /
			(((((acklamB[0]*r+acklamB[1])*r+acklamB[2])*r+acklamB[3])*r+acklamB[4])*r + 1), nil
	}
}

// NormalSource draws normally distributed values from a seeded generator so
// Monte Carlo results are reproducible.
type NormalSource struct {
	rng *rand.Rand
}

// NewNormalSource creates a NormalSource with the given seed. The same seed
// always produces the same draw sequence.
func NewNormalSource(seed int64) *NormalSource {
	return &NormalSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Draw returns one draw from a normal distribution with the given mean and
// standard deviation.
func (s *NormalSource) Draw(mean, std float64) float64 {
	return mean + std*s.rng.NormFloat64()
}

// Fill fills out with independent draws from a normal distribution with the
// given mean and standard deviation.
func (s *NormalSource) Fill(out []float64, mean, std float64) {
	for i := range out {
		out[i] = s.Draw(mean, std)
	}
}
