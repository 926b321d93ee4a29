// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, missing data, type mismatches
//   - Data/Resource errors (200-299): Data not found, query failures, unavailable resources
//   - Statistics errors (300-399): Regression, stationarity and cointegration test errors
//   - Strategy errors (400-499): Strategy configuration and signal generation errors
//   - Pair scan errors (500-599): Pairwise cointegration search errors
//   - Backtest errors (600-699): Backtesting engine and results-store errors
//   - Market data errors (700-799): Market data fetching and parsing errors
//   - Report errors (800-899): Report payload and advisor errors
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
//	if errors.HasCode(err, errors.ErrCodeDataNotFound) { ... }
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

// InsufficientDataError represents an error when there is not enough data
// for a calculation (e.g., a rolling window requiring a minimum lookback).
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// UndefinedRatioError represents a ratio whose denominator is zero
// (volatility, downside deviation, tracking error, sum of negative returns).
// Callers decide the sentinel policy; the error carries the context.
type UndefinedRatioError struct {
	Metric      string // Name of the ratio (e.g., "sharpe_ratio")
	Denominator string // Name of the vanishing denominator (e.g., "volatility")
}

// NewUndefinedRatioError creates a new UndefinedRatioError.
func NewUndefinedRatioError(metric, denominator string) *UndefinedRatioError {
	return &UndefinedRatioError{
		Metric:      metric,
		Denominator: denominator,
	}
}

// Error implements the error interface.
func (e *UndefinedRatioError) Error() string {
	return fmt.Sprintf("%s is undefined: %s is zero", e.Metric, e.Denominator)
}

// IsUndefinedRatioError checks if an error is an UndefinedRatioError.
func IsUndefinedRatioError(err error) bool {
	var undefinedErr *UndefinedRatioError

	return errors.As(err, &undefinedErr)
}

// StatisticalTestFailureError represents a numerical failure of a
// cointegration or stationarity test on degenerate input. It is raised at
// per-pair granularity so a scan can skip the pair and continue.
type StatisticalTestFailureError struct {
	Test    string // Test that failed (e.g., "engle-granger", "adf")
	SymbolA string
	SymbolB string // Empty for single-series tests
	Reason  string
}

// NewStatisticalTestFailureError creates a new StatisticalTestFailureError.
func NewStatisticalTestFailureError(test, symbolA, symbolB, reason string) *StatisticalTestFailureError {
	return &StatisticalTestFailureError{
		Test:    test,
		SymbolA: symbolA,
		SymbolB: symbolB,
		Reason:  reason,
	}
}

// Error implements the error interface.
func (e *StatisticalTestFailureError) Error() string {
	if e.SymbolB != "" {
		return fmt.Sprintf("%s test failed for %s/%s: %s", e.Test, e.SymbolA, e.SymbolB, e.Reason)
	}

	return fmt.Sprintf("%s test failed for %s: %s", e.Test, e.SymbolA, e.Reason)
}

// IsStatisticalTestFailureError checks if an error is a StatisticalTestFailureError.
func IsStatisticalTestFailureError(err error) bool {
	var testErr *StatisticalTestFailureError

	return errors.As(err, &testErr)
}
