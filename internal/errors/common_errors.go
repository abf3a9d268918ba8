package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeSchema     ErrorType = "SCHEMA"
	ErrTypeFit        ErrorType = "FIT"
)

// AppError represents an application-specific error
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

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// SchemaError reports required columns missing from an input table.
// It is fatal for the station being processed.
type SchemaError struct {
	Table   string
	Missing []string
}

// NewSchemaError creates a schema error; missing column names are sorted.
func NewSchemaError(table string, missing []string) *SchemaError {
	m := append([]string(nil), missing...)
	sort.Strings(m)
	return &SchemaError{Table: table, Missing: m}
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("[%s] %s is missing required columns: %s",
		ErrTypeSchema, e.Table, strings.Join(e.Missing, ", "))
}

// FitError wraps a numerical failure of the model fitting routine.
type FitError struct {
	Stage string
	Cause error
}

// NewFitError creates a fit error for the given stage
func NewFitError(stage string, cause error) *FitError {
	return &FitError{Stage: stage, Cause: cause}
}

// Error implements the error interface
func (e *FitError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s failed", ErrTypeFit, e.Stage)
	}
	return fmt.Sprintf("[%s] %s failed: %v", ErrTypeFit, e.Stage, e.Cause)
}

// Unwrap returns the underlying error
func (e *FitError) Unwrap() error {
	return e.Cause
}

// TypeOf returns the ErrorType carried by err, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return ErrTypeSchema
	}
	var fitErr *FitError
	if errors.As(err, &fitErr) {
		return ErrTypeFit
	}
	return ""
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsFitError reports whether err is or wraps a FitError.
func IsFitError(err error) bool {
	var fitErr *FitError
	return errors.As(err, &fitErr)
}
