package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/alphabench-lab/alphabench/pkg/marketdata"
)

// downloadAction is the core logic executed by the CLI command.
// It parses arguments, sets up the market data client, and starts the download process.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.String("ticker")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	providerFlag := cmd.String("provider")
	writerFlag := cmd.String("writer")
	dataPath := cmd.String("data")
	interval := marketdata.Timespan(cmd.String("interval"))

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(providerFlag),
		WriterType:    marketdata.WriterType(writerFlag),
		DataPath:      dataPath,
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}

	client, err := marketdata.NewClient(clientConfig, func(current float64, total float64, message string) {
		if total > 0 {
			log.Printf("%s (%.0f%%)", message, 100*current/total)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	downloadParams := marketdata.DownloadParams{
		Ticker:     ticker,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: interval.Multiplier(),
		Timespan:   interval.Timespan(),
	}

	log.Printf("Starting download for %s from %s to %s using %s provider and %s writer...",
		ticker, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), providerFlag, writerFlag)

	outputPath, err := client.Download(ctx, downloadParams)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	log.Printf("Download completed: %s", outputPath)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Stock ticker symbol",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format (or other RFC3339 compatible)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "end",
				Aliases:  []string{"e"},
				Usage:    "End date in `YYYY-MM-DD` format (or other RFC3339 compatible). Defaults to today.",
				Value:    time.Now(),
				Required: false,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:     "interval",
				Aliases:  []string{"i"},
				Usage:    "Bar interval (e.g. 1d, 1h, 1m)",
				Value:    string(marketdata.TimespanOneDay),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Data provider to use (e.g., %s, %s)", marketdata.ProviderPolygon, marketdata.ProviderBinance),
				Value:    string(marketdata.ProviderPolygon),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "writer",
				Aliases:  []string{"w"},
				Usage:    fmt.Sprintf("Data writer format (e.g., %s)", marketdata.WriterDuckDB),
				Value:    string(marketdata.WriterDuckDB),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the data output directory",
				Value:    "data",
				Required: false,
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
