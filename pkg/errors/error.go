// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, orders, and protective levels
//   - Data/Resource errors (200-299): Data not found, query failures, unsupported formats
//   - Indicator errors (300-399): Technical indicator readiness and calculation errors
//   - Strategy errors (400-499): Strategy configuration, state, and stream-ordering errors
//   - Trading errors (500-599): Order execution, position, and sizing errors
//   - Backtest errors (600-699): Backtesting engine and state errors
//   - Market data errors (700-799): Market data fetching, decoding, and writing errors
//   - Callback errors (800-899): Callback execution failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeDataNotFound, "data not found for symbol %s", symbol)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeZeroVolatility) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ZeroVolatilityError represents an entry refusal when the volatility input
// is not positive (e.g., ATR is zero during a flat warm-up window). It is
// recoverable: callers skip the entry instead of aborting the run.
type ZeroVolatilityError struct {
	ATR     float64 // The offending volatility value
	Symbol  string  // Optional: symbol context
	Message string  // Human-readable message
}

// NewZeroVolatilityError creates a new ZeroVolatilityError.
func NewZeroVolatilityError(atr float64, symbol, message string) *ZeroVolatilityError {
	return &ZeroVolatilityError{
		ATR:     atr,
		Symbol:  symbol,
		Message: message,
	}
}

// NewZeroVolatilityErrorf creates a new ZeroVolatilityError with a formatted message.
func NewZeroVolatilityErrorf(atr float64, symbol, format string, args ...any) *ZeroVolatilityError {
	return &ZeroVolatilityError{
		ATR:     atr,
		Symbol:  symbol,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ZeroVolatilityError) Error() string {
	return e.Message
}

// IsZeroVolatilityError checks if an error is a ZeroVolatilityError.
// It uses errors.As to check the error chain.
func IsZeroVolatilityError(err error) bool {
	var zeroVolErr *ZeroVolatilityError

	return errors.As(err, &zeroVolErr)
}
