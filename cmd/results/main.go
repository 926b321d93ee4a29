package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/alphabench-lab/alphabench/internal/backtest"
	"github.com/alphabench-lab/alphabench/internal/logger"
)

// browseAction opens the results store and runs the interactive browser.
func browseAction(_ context.Context, cmd *cli.Command) error {
	storePath := cmd.String("store")

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	store, err := backtest.NewResultsStore(storePath, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open results store at %s: %w", storePath, err)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize results store: %w", err)
	}

	p := tea.NewProgram(NewModel(store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("results browser failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "results",
		Usage: "Browse stored evaluation runs and their metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "Path to the results store database",
				Value: "results/results.duckdb",
			},
		},
		Action: browseAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
