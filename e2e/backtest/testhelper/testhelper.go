package testhelper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine"
	v1 "github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-fx/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-fx/internal/logger"
	"github.com/rxtech-lab/argo-fx/internal/strategy"
	"github.com/rxtech-lab/argo-fx/internal/types"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-fx/pkg/marketdata/writer"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v2"
)

// E2ETestSuite is a base test suite for E2E tests
type E2ETestSuite struct {
	suite.Suite
	Backtest engine.Engine
}

// SetupTest initializes the backtest engine
func (s *E2ETestSuite) SetupTest(engineConfig string) {
	// initialize backtest engine
	backtest := v1.NewBacktestEngineV1()
	err := backtest.Initialize(engineConfig)
	s.Require().NoError(err)

	l, err := logger.NewLogger()
	s.Require().NoError(err)

	dataSource, err := datasource.NewDataSource(":memory:", l)
	s.Require().NoError(err)

	err = backtest.SetDataSource(dataSource)
	s.Require().NoError(err)

	s.Backtest = backtest
}

// GenerateSyntheticData downloads a seeded synthetic hourly series for 2024
// into dir and returns the parquet path. The same seed always produces the
// exact same file, so runs built on it are reproducible.
func GenerateSyntheticData(s *E2ETestSuite, dir string, pattern provider.SimulationPattern, seed int64) string {
	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderSynthetic,
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      dir,
		Format:        writer.FormatParquet,
		PolygonApiKey: "",
		Synthetic: &provider.SyntheticConfig{
			Pattern:           pattern,
			InitialPrice:      1.1000,
			VolatilityPercent: 0.3,
			ReversionStrength: 0.05,
			BaseVolume:        1000,
			Seed:              seed,
		},
	}, nil)
	require.NoError(s.T(), err)

	path, err := client.Download(context.Background(), marketdata.DownloadParams{
		Symbol:     "EURUSD",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Multiplier: 1,
		Timespan:   models.Hour,
	})
	require.NoError(s.T(), err)

	return path
}

// StrategyConfigYAML marshals a mean reversion config to YAML for
// SetConfigContent.
func StrategyConfigYAML(s *E2ETestSuite, cfg strategy.MeanReversionConfig) string {
	content, err := yaml.Marshal(cfg)
	require.NoError(s.T(), err)

	return string(content)
}

// RunMeanReversionTest runs the mean reversion strategy over every file
// matching dataPattern with each of the given strategy configs, and returns
// the folder the results were written to.
func RunMeanReversionTest(s *E2ETestSuite, strategyConfigs []string, dataPattern string) (tmpFolder string) {
	tmpFolder = s.T().TempDir()
	resultPath := filepath.Join(tmpFolder, "results")

	err := s.Backtest.SetDataPath(dataPattern)
	require.NoError(s.T(), err)

	err = s.Backtest.LoadStrategy(strategy.NewMeanReversion())
	require.NoError(s.T(), err)

	err = s.Backtest.SetResultsFolder(resultPath)
	require.NoError(s.T(), err)

	err = s.Backtest.SetConfigContent(strategyConfigs)
	require.NoError(s.T(), err)

	//nolint:exhaustruct // No lifecycle hooks are needed for the test run
	err = s.Backtest.Run(context.Background(), engine.LifecycleCallbacks{})
	require.NoError(s.T(), err)

	return tmpFolder
}

// ReadStats reads every stats.yaml under tmpFolder and returns the contained
// trade stats flattened in walk order.
func ReadStats(s *E2ETestSuite, tmpFolder string) (stats []types.TradeStats, err error) {
	var statsPaths []string

	err = filepath.Walk(tmpFolder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Base(path) == "stats.yaml" {
			statsPaths = append(statsPaths, path)
		}
		return nil
	})

	require.NoError(s.T(), err)
	// require at least one stats file
	require.Greater(s.T(), len(statsPaths), 0)

	for _, statsPath := range statsPaths {
		content, err := os.ReadFile(statsPath)
		require.NoError(s.T(), err)

		// Each file holds a slice of TradeStats, one entry per symbol
		var statsSlice []types.TradeStats
		err = yaml.Unmarshal(content, &statsSlice)
		require.NoError(s.T(), err)

		require.Greater(s.T(), len(statsSlice), 0, "No trade stats found in the file")

		stats = append(stats, statsSlice...)
	}

	return stats, nil
}

// ReadTrades reads the first trades.parquet found under tmpFolder.
func ReadTrades(s *E2ETestSuite, tmpFolder string) (trades []types.Trade, err error) {
	tradesPath := findResultFile(s, tmpFolder, "trades.parquet")

	// Create an in-memory DuckDB instance for reading the parquet file
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	// Create a view from the parquet file - using raw SQL as Squirrel doesn't support CREATE VIEW
	createViewSQL := fmt.Sprintf(`CREATE VIEW trades_view AS SELECT * FROM read_parquet('%s');`, tradesPath)
	_, err = db.Exec(createViewSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to create view from parquet file: %w", err)
	}

	// Initialize Squirrel with dollar placeholder format
	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := sq.
		Select(
			"order_id", "symbol", "side", "position_type", "quantity", "price", "timestamp",
			"is_completed", "status", "reason", "message", "strategy_name",
			"executed_at", "executed_qty", "executed_price", "spread_cost", "pnl",
		).
		From("trades_view").
		OrderBy("executed_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades = []types.Trade{}
	for rows.Next() {
		var (
			trade         types.Trade
			order         types.Order
			reason        string
			reasonMessage string
		)

		err := rows.Scan(
			&order.OrderID, &order.Symbol, &order.Side, &order.PositionType,
			&order.Quantity, &order.Price, &order.Timestamp, &order.IsCompleted,
			&order.Status, &reason, &reasonMessage, &order.StrategyName,
			&trade.ExecutedAt, &trade.ExecutedQty, &trade.ExecutedPrice,
			&trade.SpreadCost, &trade.PnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}

		order.Reason = types.Reason{
			Reason:  reason,
			Message: reasonMessage,
		}
		order.SpreadCost = trade.SpreadCost

		trade.Order = order
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}

	return trades, nil
}

// ReadOrders reads the first orders.parquet found under tmpFolder.
func ReadOrders(s *E2ETestSuite, tmpFolder string) (orders []types.Order, err error) {
	ordersPath := findResultFile(s, tmpFolder, "orders.parquet")

	// Create an in-memory DuckDB instance for reading the parquet file
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	// Create a view from the parquet file - using raw SQL as Squirrel doesn't support CREATE VIEW
	createViewSQL := fmt.Sprintf(`CREATE VIEW orders_view AS SELECT * FROM read_parquet('%s');`, ordersPath)
	_, err = db.Exec(createViewSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to create view from parquet file: %w", err)
	}

	// Initialize Squirrel with dollar placeholder format
	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := sq.
		Select(
			"order_id", "symbol", "side", "position_type", "quantity", "price", "timestamp",
			"is_completed", "status", "reason", "message", "strategy_name", "spread_cost",
		).
		From("orders_view").
		OrderBy("timestamp").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders = []types.Order{}
	for rows.Next() {
		var (
			order         types.Order
			reason        string
			reasonMessage string
		)

		err := rows.Scan(
			&order.OrderID, &order.Symbol, &order.Side, &order.PositionType,
			&order.Quantity, &order.Price, &order.Timestamp, &order.IsCompleted,
			&order.Status, &reason, &reasonMessage, &order.StrategyName,
			&order.SpreadCost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		order.Reason = types.Reason{
			Reason:  reason,
			Message: reasonMessage,
		}

		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return orders, nil
}

// PositionRow is one exported position row including its lifecycle columns.
// The exit columns are nullable because they stay unset while the position
// is open.
type PositionRow struct {
	EntryOrderID string
	Symbol       string
	Side         string
	EntryPrice   float64
	StopPrice    float64
	TargetPrice  float64
	Quantity     float64
	OpenedAt     time.Time
	StrategyName string
	Status       string
	ClosedAt     sql.NullTime
	ExitPrice    sql.NullFloat64
	ExitReason   string
	RealizedPnL  float64
}

// ReadPositions reads the first positions.parquet found under tmpFolder.
func ReadPositions(s *E2ETestSuite, tmpFolder string) (positions []PositionRow, err error) {
	positionsPath := findResultFile(s, tmpFolder, "positions.parquet")

	// Create an in-memory DuckDB instance for reading the parquet file
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	// Create a view from the parquet file - using raw SQL as Squirrel doesn't support CREATE VIEW
	createViewSQL := fmt.Sprintf(`CREATE VIEW positions_view AS SELECT * FROM read_parquet('%s');`, positionsPath)
	_, err = db.Exec(createViewSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to create view from parquet file: %w", err)
	}

	// Initialize Squirrel with dollar placeholder format
	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := sq.
		Select(
			"entry_order_id", "symbol", "side", "entry_price", "stop_price", "target_price",
			"quantity", "opened_at", "strategy_name", "status", "closed_at", "exit_price",
			"exit_reason", "realized_pnl",
		).
		From("positions_view").
		OrderBy("opened_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions = []PositionRow{}
	for rows.Next() {
		var position PositionRow

		err := rows.Scan(
			&position.EntryOrderID, &position.Symbol, &position.Side, &position.EntryPrice,
			&position.StopPrice, &position.TargetPrice, &position.Quantity, &position.OpenedAt,
			&position.StrategyName, &position.Status, &position.ClosedAt, &position.ExitPrice,
			&position.ExitReason, &position.RealizedPnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}

		positions = append(positions, position)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}

	return positions, nil
}

// findResultFile walks tmpFolder for the first file with the given name.
// filepath.Walk is lexical, so repeated calls for different result files of
// the same run resolve to the same run folder.
func findResultFile(s *E2ETestSuite, tmpFolder string, name string) string {
	var paths []string

	err := filepath.Walk(tmpFolder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Base(path) == name {
			paths = append(paths, path)
		}
		return nil
	})

	require.NoError(s.T(), err)
	require.Greater(s.T(), len(paths), 0, "no %s found under %s", name, tmpFolder)

	return paths[0]
}
