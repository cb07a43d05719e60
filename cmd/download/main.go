package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-fx/pkg/marketdata"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
)

// downloadAction is the core logic executed by the CLI command.
// It parses arguments, sets up the market data client, and starts the download process.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.String("symbol")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	interval := marketdata.Timespan(cmd.String("interval"))
	providerFlag := cmd.String("provider")
	writerFlag := cmd.String("writer")
	dataPath := cmd.String("data")
	format := cmd.String("format")

	if !interval.IsValid() {
		return fmt.Errorf("unsupported interval: %s", interval)
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(providerFlag),
		WriterType:    marketdata.WriterType(writerFlag),
		DataPath:      dataPath,
		Format:        writer.Format(format),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
		Synthetic: &provider.SyntheticConfig{
			Pattern: provider.SimulationPattern(cmd.String("pattern")),
			Seed:    int64(cmd.Int("seed")),
		},
	}

	// Progress arrives from provider goroutines, so the lazy bar
	// construction needs a lock.
	var (
		barMu sync.Mutex
		bar   *progressbar.ProgressBar
	)

	onProgress := func(current float64, total float64, message string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(int(total),
				progressbar.OptionSetDescription(message),
				progressbar.OptionShowCount(),
			)
		}

		_ = bar.Set(int(current))
	}

	client, err := marketdata.NewClient(clientConfig, onProgress)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	downloadParams := marketdata.DownloadParams{
		Symbol:     symbol,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: interval.Multiplier(),
		Timespan:   interval.Timespan(),
	}

	log.Printf("Starting download for %s from %s to %s using %s provider and %s writer...",
		symbol, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), providerFlag, writerFlag)

	outputPath, err := client.Download(ctx, downloadParams)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	log.Printf("Download completed successfully: %s", outputPath)

	return nil
}

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	// Define the CLI application
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"t"},
				Usage:    "Currency pair symbol, e.g. EURUSD",
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
				Value:    time.Now(), // Default to today
				Required: false,      // Has a default value
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:     "interval",
				Aliases:  []string{"i"},
				Usage:    "Candle interval, e.g. 1m, 5m, 1h, 1d",
				Value:    string(marketdata.TimespanOneMinute),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Data provider to use (e.g., %s, %s, %s)", marketdata.ProviderDukascopy, marketdata.ProviderPolygon, marketdata.ProviderSynthetic),
				Value:    string(marketdata.ProviderDukascopy), // Default provider
				Required: false,
			},
			&cli.StringFlag{
				Name:     "writer",
				Aliases:  []string{"w"},
				Usage:    fmt.Sprintf("Data writer format (e.g., %s)", marketdata.WriterDuckDB),
				Value:    string(marketdata.WriterDuckDB), // Default writer
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the data output directory",
				Value:    "data", // Default data directory
				Required: false,
			},
			&cli.StringFlag{
				Name:     "format",
				Aliases:  []string{"f"},
				Usage:    fmt.Sprintf("Output file format (%s or %s)", writer.FormatParquet, writer.FormatCSV),
				Value:    string(writer.FormatParquet),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "pattern",
				Usage:    "Price pattern for the synthetic provider (increasing, decreasing, volatile, mean_reverting)",
				Value:    string(provider.PatternMeanReverting),
				Required: false,
			},
			&cli.IntFlag{
				Name:     "seed",
				Usage:    "Random seed for the synthetic provider; 0 picks a time based seed",
				Value:    0,
				Required: false,
			},
		},
		Action: downloadAction, // Assign the action function
	}

	// Run the CLI application
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
