package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/alphabench-lab/alphabench/internal/backtest/datasource"
	"github.com/alphabench-lab/alphabench/internal/logger"
	"github.com/alphabench-lab/alphabench/internal/pairs"
	"github.com/alphabench-lab/alphabench/internal/types"
)

// scanAction loads every symbol from the market data and runs the
// cointegration scan, writing the report as YAML.
func scanAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")

	config := pairs.DefaultScannerConfig()
	config.PValueThreshold = cmd.Float("pvalue")
	config.Lookback = int(cmd.Int("lookback"))
	config.Workers = int(cmd.Int("workers"))
	config.ShowProgress = true

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

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to open market data at %s: %w", dataPath, err)
	}

	symbols := cmd.StringSlice("symbol")
	if len(symbols) == 0 {
		symbols, err = source.ListSymbols()
		if err != nil {
			return fmt.Errorf("failed to list symbols: %w", err)
		}
	}

	seriesBySymbol := make(map[string]types.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		series, err := source.LoadSeries(symbol, optional.None[time.Time](), optional.None[time.Time]())
		if err != nil {
			log.Printf("Skipping %s: %v", symbol, err)

			continue
		}

		seriesBySymbol[symbol] = series
	}

	scanner, err := pairs.NewScanner(config, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	report, err := scanner.FindCointegratedPairs(ctx, seriesBySymbol)
	if err != nil {
		return fmt.Errorf("pair scan failed: %w", err)
	}

	if err := types.WritePairScanReport(outputPath, report); err != nil {
		return fmt.Errorf("failed to write scan report: %w", err)
	}

	log.Printf("Scanned %d symbols: %d cointegrated pairs, %d skipped. Report written to %s.",
		len(seriesBySymbol), len(report.Pairs), len(report.Skipped), outputPath)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "pairs",
		Usage: "Scan a symbol universe for cointegrated pairs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Market data parquet file or glob",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the YAML scan report",
				Value:   "pairs.yaml",
			},
			&cli.StringSliceFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Restrict the scan to the given symbols; repeatable",
			},
			&cli.FloatFlag{
				Name:  "pvalue",
				Usage: "Cointegration p-value acceptance threshold",
				Value: pairs.DefaultScannerConfig().PValueThreshold,
			},
			&cli.IntFlag{
				Name:  "lookback",
				Usage: "Number of trailing bars used for the scan",
				Value: int64(pairs.DefaultScannerConfig().Lookback),
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel scan workers",
				Value: int64(pairs.DefaultScannerConfig().Workers),
			},
		},
		Action: scanAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
