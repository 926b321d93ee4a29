package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alphabench-lab/alphabench/internal/backtest"
	"github.com/alphabench-lab/alphabench/internal/types"
)

// Application states.
const (
	StateRunSelect = iota
	StateMetricsDisplay
)

// ResultsReader is the subset of the results store the browser needs.
type ResultsReader interface {
	ListRuns() ([]backtest.RunInfo, error)
	GetMetrics(runID string) ([]types.MetricsRecord, error)
}

// Model is the main Bubble Tea model for the results browser.
type Model struct {
	state        int
	reader       ResultsReader
	runList      list.Model
	metricsTable table.Model
	runs         []backtest.RunInfo
	selectedRun  string
	records      []types.MetricsRecord
	err          error
	width        int
	height       int
}

// NewModel creates a new Model reading from the given store.
func NewModel(reader ResultsReader) Model {
	return Model{
		state:        StateRunSelect,
		reader:       reader,
		runList:      NewRunList(),
		metricsTable: NewMetricsTable(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadRuns()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.runList.SetSize(msg.Width, msg.Height-4)
		m.metricsTable.SetWidth(msg.Width)
		m.metricsTable.SetHeight(msg.Height - 6)
		return m, nil

	case RunsLoadedMsg:
		m.runs = msg.Runs
		m.runList.SetItems(RunItems(msg.Runs))
		m.err = nil
		return m, nil

	case MetricsLoadedMsg:
		m.selectedRun = msg.RunID
		m.records = msg.Records
		m.metricsTable = UpdateMetricsRows(m.metricsTable, msg.Records)
		m.state = StateMetricsDisplay
		m.err = nil
		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	// Delegate to state-specific update
	switch m.state {
	case StateRunSelect:
		return m.updateRunSelect(msg)
	case StateMetricsDisplay:
		return m.updateMetricsDisplay(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	if m.state == StateMetricsDisplay {
		m.state = StateRunSelect
		m.selectedRun = ""
		m.records = nil
		m.err = nil
	}

	return m, nil
}

func (m Model) updateRunSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.runList.SelectedItem().(runItem); ok {
				return m, m.loadMetrics(item.info.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.runList, cmd = m.runList.Update(msg)
	return m, cmd
}

func (m Model) updateMetricsDisplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.metricsTable, cmd = m.metricsTable.Update(msg)
	return m, cmd
}

// loadRuns returns a command that reads the stored runs.
func (m Model) loadRuns() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.reader.ListRuns()
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return RunsLoadedMsg{Runs: runs}
	}
}

// loadMetrics returns a command that reads the metrics of one run.
func (m Model) loadMetrics(runID string) tea.Cmd {
	return func() tea.Msg {
		records, err := m.reader.GetMetrics(runID)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return MetricsLoadedMsg{RunID: runID, Records: records}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateRunSelect:
		s.WriteString(TitleStyle.Render("AlphaBench - Evaluation Results"))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
			s.WriteString("\n\n")
		}

		if len(m.runs) == 0 {
			s.WriteString("No runs found in the store.\n")
		} else {
			s.WriteString(m.runList.View())
			s.WriteString("\n")
		}

		s.WriteString(HelpStyle.Render("Press Enter to open a run, q to quit"))

	case StateMetricsDisplay:
		s.WriteString(TitleStyle.Render("Metrics - Run " + m.selectedRun))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
			s.WriteString("\n\n")
		}

		if len(m.records) == 0 {
			s.WriteString("No metrics stored for this run.\n")
		} else {
			s.WriteString(m.metricsTable.View())
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("q: quit | Esc: back to runs"))
	}

	return s.String()
}
