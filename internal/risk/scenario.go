package risk

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alphabench-lab/alphabench/internal/stats"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// scenarioPercentiles are the bands reported for every simulated day.
var scenarioPercentiles = []int{10, 25, 50, 75, 90}

// ScenarioConfig parameterizes a Monte Carlo equity path simulation.
type ScenarioConfig struct {
	// Simulations is the number of independent equity paths.
	Simulations int `yaml:"simulations" json:"simulations" validate:"gt=0"`
	// Horizon is the number of daily steps per path.
	Horizon int `yaml:"horizon" json:"horizon" validate:"gt=0"`
	// InitialValue is the starting equity of every path.
	InitialValue float64 `yaml:"initial_value" json:"initial_value" validate:"gt=0"`
	// Workers bounds the number of concurrent path simulations.
	Workers int `yaml:"workers" json:"workers" validate:"gt=0"`
	// Seed makes the whole simulation reproducible. Every path derives its
	// own generator from it, so results do not depend on scheduling.
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultScenarioConfig returns the reference simulation parameters.
func DefaultScenarioConfig() ScenarioConfig {
	return ScenarioConfig{
		Simulations:  1000,
		Horizon:      252,
		InitialValue: 100000,
		Workers:      4,
		Seed:         1,
	}
}

// ScenarioReport holds the percentile bands of a Monte Carlo equity path
// simulation.
type ScenarioReport struct {
	Simulations  int
	Horizon      int
	InitialValue float64
	// Bands maps each reported percentile to the equity value per day
	// across all simulated paths.
	Bands map[int][]float64
}

// FinalValue returns the end-of-horizon equity at the given percentile
// band, or 0 when the band is not reported.
func (r ScenarioReport) FinalValue(percentile int) float64 {
	band, ok := r.Bands[percentile]
	if !ok || len(band) == 0 {
		return 0
	}

	return band[len(band)-1]
}

// SimulateEquityPaths runs a Monte Carlo simulation of compounding equity
// paths with normally distributed daily returns and reports the percentile
// bands of equity per day. Each path compounds from the configured initial
// value:
//
//	equity[d] = initial * prod(1 + r_i), r_i ~ N(meanReturn, volatility)
//
// Paths fan out across the configured worker pool; each path seeds its own
// generator from the config seed and its index, so the report is identical
// for any worker count.
func SimulateEquityPaths(ctx context.Context, meanReturn, volatility float64, config ScenarioConfig) (ScenarioReport, error) {
	if err := validator.New().Struct(config); err != nil {
		return ScenarioReport{}, errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"invalid scenario configuration", err)
	}

	if volatility < 0 {
		return ScenarioReport{}, errors.Newf(errors.ErrCodeInvalidDistribution,
			"volatility must be non-negative, got %f", volatility)
	}

	paths := make([][]float64, config.Simulations)
	jobs := make(chan int)

	workers := config.Workers
	if workers > config.Simulations {
		workers = config.Simulations
	}

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			returns := make([]float64, config.Horizon)

			for i := range jobs {
				source := stats.NewNormalSource(config.Seed + int64(i))
				source.Fill(returns, meanReturn, volatility)

				path := make([]float64, config.Horizon)
				equity := config.InitialValue

				for d, r := range returns {
					equity *= 1 + r
					path[d] = equity
				}

				paths[i] = path
			}
		}()
	}

	cancelled := false

	for i := 0; i < config.Simulations; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = true
		}

		if cancelled {
			break
		}
	}

	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return ScenarioReport{}, errors.Wrap(errors.ErrCodeSimulationFailed,
			"scenario simulation cancelled", err)
	}

	report := ScenarioReport{
		Simulations:  config.Simulations,
		Horizon:      config.Horizon,
		InitialValue: config.InitialValue,
		Bands:        make(map[int][]float64, len(scenarioPercentiles)),
	}

	for _, p := range scenarioPercentiles {
		report.Bands[p] = make([]float64, config.Horizon)
	}

	column := make([]float64, config.Simulations)

	for d := 0; d < config.Horizon; d++ {
		for i := range paths {
			column[i] = paths[i][d]
		}

		for _, p := range scenarioPercentiles {
			value, err := stats.Percentile(column, float64(p))
			if err != nil {
				return ScenarioReport{}, err
			}

			report.Bands[p][d] = value
		}
	}

	return report, nil
}
