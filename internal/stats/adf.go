package stats

import (
	"math"

	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// Regression selects the deterministic terms included in an ADF test
// regression.
type Regression string

const (
	// RegressionConstant includes a constant term.
	RegressionConstant Regression = "c"
	// RegressionNone includes no deterministic terms. Used for unit-root
	// tests on regression residuals, which are mean zero by construction.
	RegressionNone Regression = "n"
)

// ADFResult holds the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	// Stat is the tau statistic of the lagged-level coefficient.
	Stat float64
	// PValue is the MacKinnon approximate p-value for Stat.
	PValue float64
	// UsedLag is the augmentation lag chosen by AIC.
	UsedLag int
	// NObs is the number of observations used in the final regression.
	NObs int
}

// CointResult holds the outcome of an Engle-Granger two-step cointegration
// test.
type CointResult struct {
	// Stat is the tau statistic of the unit-root test on the cointegrating
	// residuals.
	Stat float64
	// PValue is the MacKinnon approximate p-value adjusted for the two
	// estimated series.
	PValue float64
	// HedgeRatio is the slope of the cointegrating regression of the first
	// series on the second.
	HedgeRatio float64
}

// minADFObservations is the smallest sample an ADF regression accepts after
// lagging and differencing.
const minADFObservations = 6

// ADFTest runs an augmented Dickey-Fuller unit-root test on xs with the lag
// order chosen by AIC over 0..12*(n/100)^0.25 lags. A low p-value rejects the
// unit root, i.e. the series is stationary.
func ADFTest(xs []float64, regression Regression) (ADFResult, error) {
	n := len(xs)
	if n < minADFObservations {
		return ADFResult{}, errors.Newf(errors.ErrCodeInvalidSeriesLength,
			"adf test requires at least %d observations, got %d", minADFObservations, n)
	}

	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))

	// Keep enough degrees of freedom for the largest candidate regression.
	if limit := (n - 3) / 2; maxLag > limit {
		maxLag = limit
	}

	if maxLag < 0 {
		maxLag = 0
	}

	// Choose the lag by AIC over a fixed sample so the candidate
	// regressions are comparable.
	bestLag := 0
	bestAIC := math.Inf(1)

	for lag := 0; lag <= maxLag; lag++ {
		fit, err := adfRegression(xs, lag, maxLag, regression)
		if err != nil {
			continue
		}

		k := len(fit.coefs)
		aic := float64(fit.nobs)*math.Log(fit.ssr/float64(fit.nobs)) + 2*float64(k)

		if aic < bestAIC {
			bestAIC = aic
			bestLag = lag
		}
	}

	if math.IsInf(bestAIC, 1) {
		return ADFResult{}, errors.New(errors.ErrCodeStatisticalTest,
			"all candidate adf regressions failed")
	}

	// Rerun with the chosen lag on the full usable sample.
	fit, err := adfRegression(xs, bestLag, bestLag, regression)
	if err != nil {
		return ADFResult{}, err
	}

	if fit.stderrs[0] == 0 {
		return ADFResult{}, errors.New(errors.ErrCodeDegenerateSeries,
			"adf statistic undefined: zero standard error")
	}

	tau := fit.coefs[0] / fit.stderrs[0]

	return ADFResult{
		Stat:    tau,
		PValue:  mackinnonP(tau, 1),
		UsedLag: bestLag,
		NObs:    fit.nobs,
	}, nil
}

// CointTest runs the Engle-Granger two-step cointegration test on two price
// series: an OLS regression of a on b with a constant, then a unit-root test
// on the residuals. The p-value uses the MacKinnon surface for two estimated
// series. A low p-value is evidence the series are cointegrated.
func CointTest(a, b []float64) (CointResult, error) {
	reg, err := OLS(a, b)
	if err != nil {
		return CointResult{}, err
	}

	n := len(reg.Residuals)
	if n < minADFObservations {
		return CointResult{}, errors.Newf(errors.ErrCodeInvalidSeriesLength,
			"cointegration test requires at least %d observations, got %d", minADFObservations, n)
	}

	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := (n - 3) / 2; maxLag > limit {
		maxLag = limit
	}

	if maxLag < 0 {
		maxLag = 0
	}

	bestLag := 0
	bestAIC := math.Inf(1)

	for lag := 0; lag <= maxLag; lag++ {
		fit, err := adfRegression(reg.Residuals, lag, maxLag, RegressionNone)
		if err != nil {
			continue
		}

		k := len(fit.coefs)
		aic := float64(fit.nobs)*math.Log(fit.ssr/float64(fit.nobs)) + 2*float64(k)

		if aic < bestAIC {
			bestAIC = aic
			bestLag = lag
		}
	}

	if math.IsInf(bestAIC, 1) {
		return CointResult{}, errors.New(errors.ErrCodeStatisticalTest,
			"all candidate residual regressions failed")
	}

	fit, err := adfRegression(reg.Residuals, bestLag, bestLag, RegressionNone)
	if err != nil {
		return CointResult{}, err
	}

	if fit.stderrs[0] == 0 {
		return CointResult{}, errors.New(errors.ErrCodeDegenerateSeries,
			"cointegration statistic undefined: zero standard error")
	}

	tau := fit.coefs[0] / fit.stderrs[0]

	return CointResult{
		Stat:       tau,
		PValue:     mackinnonP(tau, 2),
		HedgeRatio: reg.Slope,
	}, nil
}

// adfRegression fits the Dickey-Fuller regression
// diff(x)_t = rho*x_{t-1} + sum_i gamma_i*diff(x)_{t-i} (+ const)
// with the given augmentation lag, starting the sample at startLag+1 so that
// regressions with different lags can share an observation window.
func adfRegression(xs []float64, lag, startLag int, regression Regression) (*fitResult, error) {
	n := len(xs)
	start := startLag + 1

	nobs := n - start
	if nobs < 3 {
		return nil, errors.Newf(errors.ErrCodeInvalidSeriesLength,
			"adf regression has too few observations: %d", nobs)
	}

	dy := make([]float64, nobs)
	level := make([]float64, nobs)

	for i := 0; i < nobs; i++ {
		t := start + i
		dy[i] = xs[t] - xs[t-1]
		level[i] = xs[t-1]
	}

	cols := make([][]float64, 0, lag+2)
	cols = append(cols, level)

	for j := 1; j <= lag; j++ {
		lagged := make([]float64, nobs)
		for i := 0; i < nobs; i++ {
			t := start + i - j
			lagged[i] = xs[t] - xs[t-1]
		}

		cols = append(cols, lagged)
	}

	if regression == RegressionConstant {
		ones := make([]float64, nobs)
		for i := range ones {
			ones[i] = 1
		}

		cols = append(cols, ones)
	}

	return fitOLS(dy, cols)
}

// MacKinnon (1994) approximate asymptotic p-value surfaces for the
// Dickey-Fuller distribution with a constant in the cointegrating regression,
// for one and two estimated series. The polynomial in tau is evaluated inside
// a normal CDF; outside [tauMin, tauMax] the p-value saturates at 0 or 1,
// and the small-p polynomial applies below tauStar.
var (
	mackinnonTauStar = map[int]float64{1: -1.61, 2: -2.62}
	mackinnonTauMin  = map[int]float64{1: -18.83, 2: -18.86}
	mackinnonTauMax  = map[int]float64{1: 2.74, 2: 0.92}

	mackinnonSmallP = map[int][]float64{
		1: {2.1659, 1.4412, 0.038269},
		2: {2.92, 1.5012, 0.039796},
	}
	mackinnonLargeP = map[int][]float64{
		1: {1.7339, 0.93202, -0.12745, -0.010368},
		2: {2.1945, 0.64695, -0.29198, -0.042377},
	}
)

// mackinnonP maps a Dickey-Fuller tau statistic to an approximate p-value
// for nSeries estimated series (1 for a unit-root test, 2 for an
// Engle-Granger residual test).
func mackinnonP(tau float64, nSeries int) float64 {
	if tau > mackinnonTauMax[nSeries] {
		return 1
	}

	if tau < mackinnonTauMin[nSeries] {
		return 0
	}

	coefs := mackinnonLargeP[nSeries]
	if tau <= mackinnonTauStar[nSeries] {
		coefs = mackinnonSmallP[nSeries]
	}

	arg := 0.0
	for i := len(coefs) - 1; i >= 0; i-- {
		arg = arg*tau + coefs[i]
	}

	return NormalCDF(arg)
}
