package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidExecuteOrder  ErrorCode = 102
	ErrCodeInvalidTakeProfit    ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidOrder         ErrorCode = 105
	ErrCodeInvalidType          ErrorCode = 106
	ErrCodeInvalidPeriod        ErrorCode = 107
	ErrCodeMissingParameter     ErrorCode = 108
	ErrCodeInvalidMultiplier    ErrorCode = 109
	ErrCodeInvalidThreshold     ErrorCode = 110
	ErrCodeInvalidQuantity      ErrorCode = 111
	ErrCodeInvalidPosition      ErrorCode = 112
	ErrCodeInvalidExitOrder     ErrorCode = 113
	ErrCodeMarketDataRequired   ErrorCode = 114

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeUnsupportedDataFormat ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorNotReady    ErrorCode = 301
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeTimestampRegression  ErrorCode = 403
	ErrCodeInvalidState         ErrorCode = 404

	// Trading errors (500-599)
	ErrCodeOrderFailed         ErrorCode = 500
	ErrCodePositionNotFound    ErrorCode = 501
	ErrCodePositionAlreadyOpen ErrorCode = 502
	ErrCodeZeroVolatility      ErrorCode = 503
	ErrCodeMarketDataMissing   ErrorCode = 504

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil      ErrorCode = 600
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoStrategies  ErrorCode = 604
	ErrCodeBacktestNoConfigs     ErrorCode = 605
	ErrCodeBacktestNoDataPaths   ErrorCode = 606
	ErrCodeBacktestNoResultsDir  ErrorCode = 607
	ErrCodeBacktestNoDatasource  ErrorCode = 608

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeDecompressFailed      ErrorCode = 703
	ErrCodeInvalidTimespan       ErrorCode = 704
	ErrCodeInvalidProvider       ErrorCode = 705

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
