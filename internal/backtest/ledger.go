// Package backtest simulates funded portfolios over strategy signal series
// and derives performance metrics from the resulting ledgers. Money amounts
// are accumulated in decimal arithmetic so the accounting identities hold
// exactly; the ledger stores float64 at its boundary.
package backtest

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/alphabench-lab/alphabench/internal/types"
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

// PortfolioParams are the accounting parameters of one simulated portfolio.
type PortfolioParams struct {
	// InitialCapital is the starting cash.
	InitialCapital float64
	// CommissionRate is the flat commission charged per fill, as a
	// fraction of traded value.
	CommissionRate float64
	// UnitSize converts one unit of signal into shares.
	UnitSize float64
}

// DefaultPortfolioParams returns the reference accounting parameters.
func DefaultPortfolioParams() PortfolioParams {
	return PortfolioParams{
		InitialCapital: 100000,
		CommissionRate: 0.001,
		UnitSize:       1000,
	}
}

// RunBacktest simulates a funded portfolio trading the signal series against
// its own prices and returns the complete ledger. At every row:
//
//	holdings = position * price * unitSize
//	cash     = initialCapital - cumulative(deltaPosition * price * unitSize)
//	total    = holdings + cash
//	trades   = |deltaPosition|, commission = trades * price * unitSize * rate
//	netTotal = total - cumulative(commission)
//
// The first row's position change is forced to zero: nothing fills before
// the simulation starts. Period returns are undefined on the first row.
func RunBacktest(signals types.SignalSeries, params PortfolioParams) (types.PortfolioLedger, error) {
	if signals.Len() == 0 {
		return types.PortfolioLedger{}, errors.Newf(errors.ErrCodeEmptyLedger,
			"cannot backtest empty signal series for %s", signals.Symbol)
	}

	ledger := types.PortfolioLedger{
		Symbol:         signals.Symbol,
		Strategy:       signals.Strategy,
		InitialCapital: params.InitialCapital,
		CommissionRate: params.CommissionRate,
		UnitSize:       params.UnitSize,
		Rows:           make([]types.LedgerRow, signals.Len()),
	}

	unitSize := decimal.NewFromFloat(params.UnitSize)
	rate := decimal.NewFromFloat(params.CommissionRate)
	cash := decimal.NewFromFloat(params.InitialCapital)
	cumCommission := decimal.Zero

	prevPosition := 0.0
	prevTotal := math.NaN()
	prevNetTotal := math.NaN()

	for i, point := range signals.Points {
		position := decimal.NewFromFloat(point.Position)
		price := decimal.NewFromFloat(point.Price)

		deltaPosition := decimal.Zero
		if i > 0 {
			deltaPosition = position.Sub(decimal.NewFromFloat(prevPosition))
		}

		tradedValue := deltaPosition.Abs().Mul(price).Mul(unitSize)
		commission := tradedValue.Mul(rate)
		cumCommission = cumCommission.Add(commission)

		cash = cash.Sub(deltaPosition.Mul(price).Mul(unitSize))

		holdings := position.Mul(price).Mul(unitSize)
		total := holdings.Add(cash)
		netTotal := total.Sub(cumCommission)

		row := types.LedgerRow{
			Time:       point.Time,
			Position:   point.Position,
			Price:      point.Price,
			Holdings:   holdings.InexactFloat64(),
			Cash:       cash.InexactFloat64(),
			Total:      total.InexactFloat64(),
			Returns:    optional.None[float64](),
			Trades:     deltaPosition.Abs().InexactFloat64(),
			Commission: commission.InexactFloat64(),
			NetTotal:   netTotal.InexactFloat64(),
			NetReturns: optional.None[float64](),
		}

		if !math.IsNaN(prevTotal) && prevTotal != 0 {
			row.Returns = optional.Some(row.Total/prevTotal - 1)
		}

		if !math.IsNaN(prevNetTotal) && prevNetTotal != 0 {
			row.NetReturns = optional.Some(row.NetTotal/prevNetTotal - 1)
		}

		prevPosition = point.Position
		prevTotal = row.Total
		prevNetTotal = row.NetTotal
		ledger.Rows[i] = row
	}

	return ledger, nil
}
