package main

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"

	"github.com/alphabench-lab/alphabench/internal/backtest"
	"github.com/alphabench-lab/alphabench/internal/types"
)

// fakeReader serves canned runs and metrics to the model.
type fakeReader struct {
	runs       []backtest.RunInfo
	records    map[string][]types.MetricsRecord
	listErr    error
	metricsErr error
}

func (f *fakeReader) ListRuns() ([]backtest.RunInfo, error) {
	return f.runs, f.listErr
}

func (f *fakeReader) GetMetrics(runID string) ([]types.MetricsRecord, error) {
	if f.metricsErr != nil {
		return nil, f.metricsErr
	}

	return f.records[runID], nil
}

func testReader() *fakeReader {
	return &fakeReader{
		runs: []backtest.RunInfo{
			{
				ID:            "run-older",
				CreatedAt:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				EngineVersion: "1.0.0",
				DataPath:      "data/old.parquet",
			},
			{
				ID:            "run-newer",
				CreatedAt:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
				EngineVersion: "1.0.0",
				DataPath:      "data/new.parquet",
			},
		},
		records: map[string][]types.MetricsRecord{
			"run-newer": {
				{
					Strategy:         "mean_reversion",
					Symbol:           "AAPL",
					TotalReturn:      0.125,
					AnnualizedReturn: 0.08,
					Volatility:       0.15,
					SharpeRatio:      optional.Some(1.25),
					MaxDrawdown:      -0.05,
					WinRate:          0.55,
					ProfitFactor:     optional.Some(1.8),
					VaR95:            -0.02,
					CVaR95:           -0.03,
					TradeCount:       42,
				},
			},
		},
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel(testReader())

	assert.Equal(t, StateRunSelect, m.state)
	assert.Empty(t, m.runs)
	assert.Empty(t, m.selectedRun)
}

func TestRunsLoadedNewestFirst(t *testing.T) {
	m := NewModel(testReader())

	msg := m.loadRuns()()
	loaded, ok := msg.(RunsLoadedMsg)
	assert.True(t, ok)
	assert.Len(t, loaded.Runs, 2)

	newModel, _ := m.Update(loaded)
	updatedModel := newModel.(Model)

	items := updatedModel.runList.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, "run-newer", items[0].(runItem).info.ID)
	assert.Equal(t, "run-older", items[1].(runItem).info.ID)
}

func TestRunSelection(t *testing.T) {
	m := NewModel(testReader())
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 30))

	// Wait for the run list to render
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("run-newer"))
	}, teatest.WithDuration(2*time.Second))

	// Send Enter to open the newest run
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	// Verify state changed to metrics display
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Metrics - Run run-newer")) &&
			bytes.Contains(bts, []byte("mean_reversion"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestMetricsLoadedMessage(t *testing.T) {
	reader := testReader()
	m := NewModel(reader)

	msg := MetricsLoadedMsg{RunID: "run-newer", Records: reader.records["run-newer"]}

	newModel, _ := m.Update(msg)
	updatedModel := newModel.(Model)

	assert.Equal(t, StateMetricsDisplay, updatedModel.state)
	assert.Equal(t, "run-newer", updatedModel.selectedRun)
	assert.Len(t, updatedModel.records, 1)
}

func TestEmptyMetrics(t *testing.T) {
	m := NewModel(testReader())

	msg := MetricsLoadedMsg{RunID: "run-older", Records: nil}

	newModel, _ := m.Update(msg)
	updatedModel := newModel.(Model)

	assert.Equal(t, StateMetricsDisplay, updatedModel.state)
	assert.Contains(t, updatedModel.View(), "No metrics stored for this run.")
}

func TestLoadError(t *testing.T) {
	reader := testReader()
	reader.listErr = fmt.Errorf("store is locked")
	m := NewModel(reader)

	msg := m.loadRuns()()
	errMsg, ok := msg.(LoadErrorMsg)
	assert.True(t, ok)

	newModel, _ := m.Update(errMsg)
	updatedModel := newModel.(Model)

	assert.Contains(t, updatedModel.View(), "store is locked")
}

func TestStateTransitions(t *testing.T) {
	t.Run("Esc from metrics display goes back to run select", func(t *testing.T) {
		reader := testReader()
		m := NewModel(reader)
		m.state = StateMetricsDisplay
		m.selectedRun = "run-newer"
		m.records = reader.records["run-newer"]

		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		updatedModel := newModel.(Model)

		assert.Equal(t, StateRunSelect, updatedModel.state)
		assert.Empty(t, updatedModel.selectedRun)
		assert.Empty(t, updatedModel.records)
	})

	t.Run("Esc on run select is a no-op", func(t *testing.T) {
		m := NewModel(testReader())

		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		updatedModel := newModel.(Model)

		assert.Equal(t, StateRunSelect, updatedModel.state)
	})
}

func TestQuitBehavior(t *testing.T) {
	t.Run("ctrl+c quits", func(t *testing.T) {
		m := NewModel(testReader())
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	})

	t.Run("q quits from run select", func(t *testing.T) {
		m := NewModel(testReader())
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
			return bytes.Contains(bts, []byte("Evaluation Results"))
		}, teatest.WithDuration(2*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

		tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	})
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+12.50%", FormatPercent(0.125))
	assert.Equal(t, "-5.00%", FormatPercent(-0.05))
	assert.Equal(t, "+0.00%", FormatPercent(0))
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "1.25", FormatRatio(optional.Some(1.25)))
	assert.Equal(t, "-", FormatRatio(optional.None[float64]()))
}

func TestWindowResize(t *testing.T) {
	m := NewModel(testReader())

	msg := tea.WindowSizeMsg{Width: 120, Height: 40}
	newModel, _ := m.Update(msg)
	updatedModel := newModel.(Model)

	assert.Equal(t, 120, updatedModel.width)
	assert.Equal(t, 40, updatedModel.height)
}
