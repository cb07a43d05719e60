package logger

import (
	"go.uber.org/zap"
)

// Logger wraps a zap.Logger for structured logging across the engine,
// strategies, and market data tooling.
type Logger struct {
	*zap.Logger
}

// NewLogger creates a production logger writing JSON to stdout with errors
// going to stderr.
func NewLogger() (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewDevelopmentLogger creates a human-readable logger with debug level
// enabled, intended for local runs of the CLI tools.
func NewDevelopmentLogger() (*Logger, error) {
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// Sync flushes any buffered log entries. Safe to call when the inner zap
// logger is nil.
func (l *Logger) Sync() error {
	if l.Logger == nil {
		return nil
	}

	return l.Logger.Sync()
}
