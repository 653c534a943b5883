package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures. Fatal types abort the run with a
// distinct exit code; finding types are recorded in the evidence artifacts
// and never change the exit status.
type ErrorType string

const (
	// Fatal classes.
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
	ErrTypeConversion    ErrorType = "CONVERSION"
	ErrTypeNullTimestamp ErrorType = "NULL_TIMESTAMP"
	ErrTypeMonotonicity  ErrorType = "MONOTONICITY"
	ErrTypeResource      ErrorType = "RESOURCE"
	ErrTypeConfig        ErrorType = "CONFIG"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeParsing       ErrorType = "PARSING"

	// Finding classes, non-fatal.
	ErrTypeSchemaMismatch ErrorType = "SCHEMA_MISMATCH"
	ErrTypeRangeAnomaly   ErrorType = "RANGE_ANOMALY"
)

// Process exit codes per fatal class. Anything else exits 1.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitNotFound      = 2
	ExitConversion    = 3
	ExitNullTimestamp = 4
	ExitMonotonicity  = 5
	ExitResource      = 6
)

// AppError is the application error carried through the pipeline.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper constructors for the pipeline error classes.

// NewNotFoundError reports a missing required input file or path.
func NewNotFoundError(path string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("required input not found: %s", path), nil).
		WithContext("path", path)
}

// NewConversionError reports a timestamp column that cannot be normalized.
func NewConversionError(column string, cause error) *AppError {
	return NewAppError(ErrTypeConversion, fmt.Sprintf("cannot convert column %q to timestamps", column), cause).
		WithContext("column", column)
}

// NewNullTimestampError reports rows with unknown event time after conversion.
func NewNullTimestampError(column string, nullRows int) *AppError {
	return NewAppError(ErrTypeNullTimestamp,
		fmt.Sprintf("%d null timestamps in column %q after conversion", nullRows, column), nil).
		WithContext("column", column).
		WithContext("null_rows", nullRows)
}

// NewMonotonicityError reports a post-sort adjacency inversion. This must
// never be downgraded to a warning: it signals a sort or normalization
// defect that invalidates every downstream temporal claim.
func NewMonotonicityError(column string, row int) *AppError {
	return NewAppError(ErrTypeMonotonicity,
		fmt.Sprintf("temporal order violated in column %q at row %d after sort", column, row), nil).
		WithContext("column", column).
		WithContext("row", row)
}

// NewResourceError surfaces an out-of-resource condition verbatim.
func NewResourceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeResource, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// TypeOf returns the ErrorType of err, or an empty string for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// ExitCode maps an error to the process exit code contract.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch TypeOf(err) {
	case ErrTypeNotFound:
		return ExitNotFound
	case ErrTypeConversion:
		return ExitConversion
	case ErrTypeNullTimestamp:
		return ExitNullTimestamp
	case ErrTypeMonotonicity:
		return ExitMonotonicity
	case ErrTypeResource:
		return ExitResource
	default:
		return ExitFailure
	}
}
