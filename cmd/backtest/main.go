package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/alphabench-lab/alphabench/internal/backtest"
	"github.com/alphabench-lab/alphabench/internal/backtest/datasource"
	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/types"
)

// evaluateAction loads the evaluation config, wires the data source and the
// results store, and executes a full run.
func evaluateAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	storePath := cmd.String("store")

	config, err := backtest.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dataPath := cmd.String("data"); dataPath != "" {
		config.DataPath = dataPath
	}

	if resultsFolder := cmd.String("results"); resultsFolder != "" {
		config.ResultsFolder = resultsFolder
	}

	if symbols := cmd.StringSlice("symbol"); len(symbols) > 0 {
		config.Symbols = symbols
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	source, err := datasource.NewDuckDBDataSource(appLogger)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer source.Close()

	store, err := backtest.NewResultsStore(storePath, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open results store: %w", err)
	}
	defer store.Close()

	engine, err := backtest.NewEngine(config, source, store, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	summary, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("evaluation run failed: %w", err)
	}

	log.Print(summaryLine(summary))
	log.Printf("Artifacts written to %s (store: %s).", config.ResultsFolder, summary.StorePath)

	return nil
}

// summaryLine renders the one-line completion message for a finished run.
func summaryLine(summary types.RunSummary) string {
	return fmt.Sprintf("Run %s finished: %d metric records across %d symbols, %d cointegrated pairs.",
		summary.ID, len(summary.Records), len(summary.Symbols), len(summary.Pairs))
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Evaluate trading strategies over historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the evaluation config YAML",
				Value:   "config/evaluation.yaml",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Market data parquet file or glob; overrides the config",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Results folder; overrides the config",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Path to the results store database",
				Value: "results/results.duckdb",
			},
			&cli.StringSliceFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Restrict the evaluation to the given symbols; repeatable",
			},
		},
		Action: evaluateAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
