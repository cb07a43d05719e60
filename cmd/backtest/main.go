package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-fx/internal/backtest/engine"
	v1 "github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-fx/internal/logger"
	"github.com/rxtech-lab/argo-fx/internal/metrics"
	"github.com/rxtech-lab/argo-fx/internal/strategy"
)

// backtestAction wires the engine together from the CLI flags and runs
// every strategy config against every data file.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	engineConfigPath := cmd.String("config")
	strategyConfigGlob := cmd.String("strategy")
	dataGlob := cmd.String("data")
	resultsFolder := cmd.String("output")
	metricsAddr := cmd.String("metrics")

	engineConfig, err := os.ReadFile(engineConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read engine config %s: %w", engineConfigPath, err)
	}

	backtester := v1.NewBacktestEngineV1()
	if err := backtester.Initialize(string(engineConfig)); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetConfigPath(strategyConfigGlob); err != nil {
		return fmt.Errorf("failed to set strategy config path: %w", err)
	}

	if err := backtester.SetDataPath(dataGlob); err != nil {
		return fmt.Errorf("failed to set data path: %w", err)
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return fmt.Errorf("failed to set results folder: %w", err)
	}

	if err := backtester.LoadStrategy(strategy.NewMeanReversion()); err != nil {
		return fmt.Errorf("failed to load strategy: %w", err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := datasource.NewDataSource(":memory:", l)
	if err != nil {
		return fmt.Errorf("failed to create datasource: %w", err)
	}

	if err := backtester.SetDataSource(source); err != nil {
		return fmt.Errorf("failed to set datasource: %w", err)
	}

	if metricsAddr != "" {
		srv := metrics.Serve(metricsAddr)
		defer func() { _ = srv.Shutdown(context.Background()) }()

		log.Printf("Serving metrics on %s/metrics", metricsAddr)
	}

	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(runID string, configIndex int, configName string, dataFileIndex int, dataFilePath string, totalDataPoints int) error {
		bar = progressbar.Default(int64(totalDataPoints))
		bar.Describe(fmt.Sprintf("Processing %s with %s", filepath.Base(dataFilePath), filepath.Base(configName)))

		return nil
	})

	onProcessData := engine.OnProcessDataCallback(func(current int, total int) error {
		if bar != nil {
			_ = bar.Set(current)
		}

		return nil
	})

	onRunEnd := engine.OnRunEndCallback(func(configIndex int, configName string, dataFileIndex int, dataFilePath string, resultFolderPath string) {
		if bar != nil {
			_ = bar.Finish()
		}

		log.Printf("Results written to %s", resultFolderPath)
	})

	callbacks := engine.LifecycleCallbacks{
		OnBacktestStart: nil,
		OnBacktestEnd:   nil,
		OnStrategyStart: nil,
		OnStrategyEnd:   nil,
		OnRunStart:      &onRunStart,
		OnRunEnd:        &onRunEnd,
		OnProcessData:   &onProcessData,
	}

	if err := backtester.Run(ctx, callbacks); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical market data through the mean reversion strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine configuration YAML",
				Value:    "config/backtest_config.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Glob of strategy configuration YAML files",
				Value:    "config/mean_reversion.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Glob of market data files, e.g. data/*.parquet",
				Value:    "data/*.parquet",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Folder the run results are written to",
				Value:    "results",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "metrics",
				Aliases:  []string{"m"},
				Usage:    "Address to serve Prometheus metrics on, e.g. :9090. Empty disables the endpoint.",
				Value:    "",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
