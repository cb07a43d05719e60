package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/spread"
	"github.com/rxtech-lab/argo-fx/internal/logger"
	"github.com/rxtech-lab/argo-fx/internal/strategy"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type BacktestEngineV1 struct {
	config              BacktestEngineV1Config
	strategies          []strategy.Strategy
	strategyConfigPaths []string
	strategyConfigs     []string
	dataPaths           []string
	resultsFolder       string
	log                 *logger.Logger
	broker              *BacktestBroker
	state               *BacktestState
	datasource          datasource.DataSource
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:              EmptyConfig(),
		strategies:          nil,
		strategyConfigPaths: nil,
		strategyConfigs:     nil,
		dataPaths:           nil,
		resultsFolder:       "",
		log:                 nil,
		broker:              nil,
		state:               nil,
		datasource:          nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	// parse the config
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if b.config.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "initial capital must be positive, got %f", b.config.InitialCapital)
	}

	// initialize the logger
	var loggerError error

	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	// initialize the state
	var err error

	b.state, err = NewBacktestState(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create backtest state", err)
	}

	if err := b.state.Initialize(); err != nil {
		return err
	}

	// Use the configured spread model for fill pricing and decimal precision
	// for quantity precision
	spreadModel := spread.GetSpreadModel(b.config.SpreadModel, b.config.SpreadPips)

	b.broker = NewBacktestBroker(b.state, b.config.InitialCapital, spreadModel, b.config.DecimalPrecision)

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	b.strategies = append(b.strategies, s)
	b.log.Debug("Strategy loaded",
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetConfigPath implements engine.Engine.
func (b *BacktestEngineV1) SetConfigPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set config path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to resolve config path %s", path)
	}

	b.strategyConfigPaths = files
	b.log.Debug("Config paths set",
		zap.Strings("files", files),
	)

	return nil
}

// SetConfigContent implements engine.Engine.
func (b *BacktestEngineV1) SetConfigContent(configs []string) error {
	b.strategyConfigs = configs
	b.strategyConfigPaths = nil
	b.log.Debug("Config content set",
		zap.Int("count", len(configs)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		b.log.Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to resolve data path %s", path)
	}

	// Convert all paths to absolute paths
	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.log.Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return errors.Wrapf(errors.ErrCodeBacktestDataPathError, err, "failed to resolve absolute path for %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.log.Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (runErr error) {
	if err := b.preRunCheck(); err != nil {
		return err
	}

	// clean the results folder
	// remove results folder if it exists
	if _, err := os.Stat(b.resultsFolder); err == nil {
		os.RemoveAll(b.resultsFolder)
	}
	// create results folder
	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestInitFailed, err, "failed to create results folder %s", b.resultsFolder)
	}

	// Build config list from either file paths or direct content
	type configItem struct {
		name    string
		content string
	}

	var configs []configItem

	if len(b.strategyConfigs) > 0 {
		for i, content := range b.strategyConfigs {
			configs = append(configs, configItem{
				name:    fmt.Sprintf("config_%d", i),
				content: content,
			})
		}
	} else {
		for _, configPath := range b.strategyConfigPaths {
			content, err := os.ReadFile(configPath)
			if err != nil {
				b.log.Error("Failed to read config",
					zap.String("config", configPath),
					zap.Error(err),
				)

				return errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to read config %s", configPath)
			}

			configs = append(configs, configItem{
				name:    configPath,
				content: string(content),
			})
		}
	}

	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(runErr)
		}()
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.strategies), len(configs), len(b.dataPaths)); err != nil {
			return err
		}
	}

	// Run strategies sequentially
	for si, s := range b.strategies {
		if callbacks.OnStrategyStart != nil {
			if err := (*callbacks.OnStrategyStart)(si, s.Name(), len(b.strategies)); err != nil {
				return err
			}
		}

		for ci, cfg := range configs {
			for di, dataPath := range b.dataPaths {
				if err := ctx.Err(); err != nil {
					return err
				}

				if err := b.runOne(ctx, callbacks, s, cfg.name, cfg.content, ci, dataPath, di); err != nil {
					return err
				}
			}
		}

		if callbacks.OnStrategyEnd != nil {
			(*callbacks.OnStrategyEnd)(si, s.Name())
		}
	}

	return nil
}

// runOne executes a single strategy+config+data combination.
func (b *BacktestEngineV1) runOne(ctx context.Context, callbacks engine.LifecycleCallbacks, s strategy.Strategy, configName string, configContent string, configIndex int, dataPath string, dataFileIndex int) error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	if err := b.state.Initialize(); err != nil {
		return err
	}

	if err := s.Initialize(configContent); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to initialize strategy %s", s.Name())
	}

	resultFolderPath := getResultFolder(configName, dataPath, b, s)

	b.log.Debug("Running strategy",
		zap.String("strategy", s.Name()),
		zap.String("config", configName),
		zap.String("data", dataPath),
		zap.String("result", resultFolderPath),
	)

	// Initialize the data source with the given data path
	if err := b.datasource.Initialize(dataPath); err != nil {
		return err
	}

	count, err := b.datasource.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return err
	}

	runID := uuid.New().String()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, configIndex, configName, dataFileIndex, dataPath, count); err != nil {
			return err
		}
	}

	sctx := strategy.Context{
		Executor: b.broker,
		Logger:   b.log,
	}

	if err := s.OnStart(ctx, sctx); err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy %s failed to start", s.Name())
	}

	currentCount := 0

	for data, err := range b.datasource.ReadAll(b.config.StartTime, b.config.EndTime) {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		// Point the broker at the bar before the strategy sees it so fills
		// price against the same bar the decision came from.
		b.broker.UpdateCurrentMarketData(data)

		if err := s.OnBar(ctx, sctx, data); err != nil {
			return err
		}

		currentCount++

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(currentCount, count); err != nil {
				return err
			}
		}
	}

	if err := s.OnStop(ctx, sctx); err != nil {
		return errors.Wrapf(errors.ErrCodeCallbackFailed, err, "strategy %s failed to stop", s.Name())
	}

	// Positions surviving the stream stay open; they are reported, not
	// force closed.
	marked, err := b.state.MarkOpenPositionsEndOfStream()
	if err != nil {
		return err
	}

	if marked > 0 {
		b.log.Info("Position still open at end of stream",
			zap.Int("count", marked),
			zap.String("strategy", s.Name()),
			zap.String("data", dataPath),
		)
	}

	// Create result folder
	if err := os.MkdirAll(resultFolderPath, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestInitFailed, err, "failed to create result folder %s", resultFolderPath)
	}

	statsCtx := StatsContext{
		RunID:          runID,
		StrategyName:   s.Name(),
		DataPath:       dataPath,
		ResultFolder:   resultFolderPath,
		InitialCapital: b.config.InitialCapital,
		DataSource:     b.datasource,
	}

	if err := b.writeResults(statsCtx, resultFolderPath); err != nil {
		return err
	}

	// Cleanup state
	if err := b.cleanUpRun(); err != nil {
		return err
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(configIndex, configName, dataFileIndex, dataPath, resultFolderPath)
	}

	return nil
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) writeResults(statsCtx StatsContext, resultFolderPath string) error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	stats, err := b.state.GetStats(statsCtx)
	if err != nil {
		return err
	}

	// Write stats to file
	if err := types.WriteTradeStats(filepath.Join(resultFolderPath, "stats.yaml"), stats); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to write stats", err)
	}

	// Write state to disk
	return b.state.Write(resultFolderPath)
}

func (b *BacktestEngineV1) cleanUpRun() error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	if err := b.state.Cleanup(); err != nil {
		return err
	}

	// clean up the broker for the next run
	b.broker.Reset(b.config.InitialCapital)

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if len(b.strategies) == 0 {
		b.log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if len(b.strategyConfigPaths) == 0 && len(b.strategyConfigs) == 0 {
		b.log.Error("No strategy configs loaded")

		return errors.New(errors.ErrCodeBacktestNoConfigs, "no strategy configs loaded")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
