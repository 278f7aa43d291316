package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ScrError defines the base interface for all typed build errors
type ScrError interface {
	error
	ErrorCode() ErrorCode
	Context() map[string]interface{}
	Unwrap() error
}

// ErrorCode represents the type of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	ClassFormatErrorCode
	ConfigurationErrorCode
	FileSystemErrorCode
	AnalysisErrorCode
	ManifestErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ClassFormatErrorCode:
		return "ClassFormatError"
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case FileSystemErrorCode:
		return "FileSystemError"
	case AnalysisErrorCode:
		return "AnalysisError"
	case ManifestErrorCode:
		return "ManifestError"
	default:
		return "UnknownError"
	}
}

// BaseError provides a common implementation of the ScrError interface
type BaseError struct {
	Code        ErrorCode              // type of error
	Message     string                 // error message
	Cause       error                  // underlying error cause
	ContextData map[string]interface{} // additional context information
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a BaseError carrying the same code.
// This lets callers match on a sentinel such as &BaseError{Code: ClassFormatErrorCode}.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// WithCause adds an underlying error cause
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// Describe renders the message followed by sorted context pairs
func (e *BaseError) Describe() string {
	if len(e.ContextData) == 0 {
		return e.Error()
	}
	keys := make([]string, 0, len(e.ContextData))
	for k := range e.ContextData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.ContextData[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Error(), strings.Join(parts, ", "))
}

// New creates a new BaseError with the specified code and message
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new BaseError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf creates a new error that wraps another error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *BaseError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// HasCode reports whether err or anything it wraps is a ScrError with the given code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if se, ok := err.(ScrError); ok && se.ErrorCode() == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
