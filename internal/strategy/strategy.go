package strategy

import (
	"context"

	"github.com/rxtech-lab/argo-fx/internal/logger"
	"github.com/rxtech-lab/argo-fx/internal/trading"
	"github.com/rxtech-lab/argo-fx/internal/types"
)

// Context carries the services the engine exposes to a strategy for one run.
// The engine builds a fresh Context per run, so a strategy never holds a
// reference to engine state across runs.
type Context struct {
	// Executor places entry and exit orders and answers position and
	// account queries. Position state lives behind the executor, not in
	// the strategy.
	Executor trading.Executor
	// Logger is the run-scoped structured logger.
	Logger *logger.Logger
}

// Strategy is the interface the engine drives. Lifecycle per run:
// Initialize once with the raw config string, OnStart before the first bar,
// OnBar for every bar in stream order, OnStop after the last bar.
type Strategy interface {
	// Initialize decodes and validates the YAML configuration string.
	// It is called once, before any other method.
	Initialize(config string) error
	// OnStart resets per-run state. It is called once per run, before the
	// first bar.
	OnStart(ctx context.Context, sctx Context) error
	// OnBar processes a single bar and may enter or exit a position
	// through sctx.Executor. Returning an error aborts the run.
	OnBar(ctx context.Context, sctx Context, bar types.MarketData) error
	// OnStop is called once after the last bar. Open positions are left
	// open; the engine reports them with the end-of-stream reason.
	OnStop(ctx context.Context, sctx Context) error
	// Name identifies the strategy in orders and result files.
	Name() string
}
