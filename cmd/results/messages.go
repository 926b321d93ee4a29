package main

import (
	"github.com/alphabench-lab/alphabench/internal/backtest"
	"github.com/alphabench-lab/alphabench/internal/types"
)

// RunsLoadedMsg carries the list of stored evaluation runs.
type RunsLoadedMsg struct {
	Runs []backtest.RunInfo
}

// MetricsLoadedMsg carries the metrics records of the selected run.
type MetricsLoadedMsg struct {
	RunID   string
	Records []types.MetricsRecord
}

// LoadErrorMsg indicates a failure reading from the results store.
type LoadErrorMsg struct {
	Err error
}
