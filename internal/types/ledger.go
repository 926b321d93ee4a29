package types

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
)

// LedgerRow is one timestamp of a simulated portfolio. All money amounts are
// in account currency; Position is in signal units (unit size applied by the
// engine).
type LedgerRow struct {
	Time     time.Time
	Position float64
	Price    float64
	// Holdings is the mark-to-market value of the open position.
	Holdings float64
	Cash     float64
	// Total is Holdings + Cash before transaction costs.
	Total float64
	// Returns is the period-over-period change of Total. None on the first row.
	Returns optional.Option[float64]
	// Trades is the absolute position change filled this period.
	Trades float64
	// Commission charged for this period's fills.
	Commission float64
	// NetTotal is Total minus cumulative commission.
	NetTotal float64
	// NetReturns is the period-over-period change of NetTotal. None on the first row.
	NetReturns optional.Option[float64]
}

// PortfolioLedger is the full record of one backtest run over one signal
// series, together with the parameters that produced it.
type PortfolioLedger struct {
	Symbol         string
	Strategy       string
	InitialCapital float64
	CommissionRate float64
	UnitSize       float64
	Rows           []LedgerRow
}

// Len returns the number of ledger rows.
func (l PortfolioLedger) Len() int {
	return len(l.Rows)
}

// NetEquity returns the net equity curve (NetTotal per row).
func (l PortfolioLedger) NetEquity() []float64 {
	equity := make([]float64, len(l.Rows))
	for i, row := range l.Rows {
		equity[i] = row.NetTotal
	}

	return equity
}

// DefinedNetReturns returns the net return series with undefined leading
// values dropped, ready for mean/std based statistics.
func (l PortfolioLedger) DefinedNetReturns() []float64 {
	returns := make([]float64, 0, len(l.Rows))

	for _, row := range l.Rows {
		if row.NetReturns.IsSome() {
			returns = append(returns, row.NetReturns.Unwrap())
		}
	}

	return returns
}

// TotalCommission returns the cumulative commission over the whole run.
func (l PortfolioLedger) TotalCommission() float64 {
	var total float64
	for _, row := range l.Rows {
		total += row.Commission
	}

	return total
}

// RoundTrips returns the number of completed round-trip trades
// (total fills divided by two).
func (l PortfolioLedger) RoundTrips() float64 {
	var fills float64
	for _, row := range l.Rows {
		fills += row.Trades
	}

	return fills / 2
}

// accountingTolerance bounds the floating drift allowed between the two
// sides of each ledger identity.
const accountingTolerance = 1e-6

// Validate checks the accounting identities at every row:
// Total = Holdings + Cash and NetTotal = Total - cumulative commission.
func (l PortfolioLedger) Validate() error {
	var cumCommission float64

	for i, row := range l.Rows {
		cumCommission += row.Commission

		if math.Abs(row.Total-(row.Holdings+row.Cash)) > accountingTolerance {
			return NewLedgerImbalanceError(i, row.Time, "total != holdings + cash")
		}

		if math.Abs(row.NetTotal-(row.Total-cumCommission)) > accountingTolerance {
			return NewLedgerImbalanceError(i, row.Time, "net_total != total - cumulative commission")
		}
	}

	return nil
}

// LedgerImbalanceError reports a violated accounting identity.
type LedgerImbalanceError struct {
	Row      int
	Time     time.Time
	Identity string
}

// NewLedgerImbalanceError creates a new LedgerImbalanceError.
func NewLedgerImbalanceError(row int, t time.Time, identity string) *LedgerImbalanceError {
	return &LedgerImbalanceError{
		Row:      row,
		Time:     t,
		Identity: identity,
	}
}

// Error implements the error interface.
func (e *LedgerImbalanceError) Error() string {
	return fmt.Sprintf("ledger accounting identity violated at row %d (%s): %s",
		e.Row, e.Time.Format(time.RFC3339), e.Identity)
}
