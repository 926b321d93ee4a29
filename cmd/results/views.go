package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/alphabench-lab/alphabench/internal/backtest"
	"github.com/alphabench-lab/alphabench/internal/types"
)

// runItem implements list.Item for the stored run list.
type runItem struct {
	info backtest.RunInfo
}

func (i runItem) Title() string { return i.info.ID }
func (i runItem) Description() string {
	return fmt.Sprintf("%s  engine %s  %s",
		i.info.CreatedAt.Format("2006-01-02 15:04:05"), i.info.EngineVersion, i.info.DataPath)
}
func (i runItem) FilterValue() string { return i.info.ID }

// NewRunList creates the list used for run selection.
func NewRunList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Select Evaluation Run"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// RunItems converts stored run infos into list items, newest first.
func RunItems(runs []backtest.RunInfo) []list.Item {
	sorted := make([]backtest.RunInfo, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	items := make([]list.Item, 0, len(sorted))
	for _, info := range sorted {
		items = append(items, runItem{info: info})
	}

	return items
}

// NewMetricsTable creates the table used for the metrics display.
func NewMetricsTable() table.Model {
	columns := []table.Column{
		{Title: "Strategy", Width: 18},
		{Title: "Symbol", Width: 14},
		{Title: "Return", Width: 10},
		{Title: "Ann. Return", Width: 12},
		{Title: "Volatility", Width: 11},
		{Title: "Sharpe", Width: 8},
		{Title: "Max DD", Width: 9},
		{Title: "Win Rate", Width: 9},
		{Title: "VaR 95", Width: 9},
		{Title: "Trades", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateMetricsRows replaces the table rows with the given metrics records.
func UpdateMetricsRows(t table.Model, records []types.MetricsRecord) table.Model {
	rows := make([]table.Row, 0, len(records))

	for _, r := range records {
		rows = append(rows, table.Row{
			r.Strategy,
			r.Symbol,
			FormatPercent(r.TotalReturn),
			FormatPercent(r.AnnualizedReturn),
			FormatPercent(r.Volatility),
			FormatRatio(r.SharpeRatio),
			FormatPercent(r.MaxDrawdown),
			FormatPercent(r.WinRate),
			FormatPercent(r.VaR95),
			fmt.Sprintf("%.0f", r.TradeCount),
		})
	}

	t.SetRows(rows)

	return t
}
