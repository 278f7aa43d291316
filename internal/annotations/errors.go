package annotations

import (
	"fmt"
	"strings"
)

// AnnotationError defines the interface for annotation-related errors
type AnnotationError interface {
	error
	Location() SourceLocation
	Suggestion() string
	Code() ErrorCode
}

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	ValidationErrorCode ErrorCode = iota
	RequiredErrorCode
	SpecVersionErrorCode
	SchemaErrorCode
	RegistrationErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ValidationErrorCode:
		return "ValidationError"
	case RequiredErrorCode:
		return "RequiredError"
	case SpecVersionErrorCode:
		return "SpecVersionError"
	case SchemaErrorCode:
		return "SchemaError"
	case RegistrationErrorCode:
		return "RegistrationError"
	default:
		return "UnknownError"
	}
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Annotation Key            // Annotation the parameter belongs to
	Parameter  string         // Parameter name that failed validation
	Expected   string         // What was expected
	Actual     string         // What was provided
	Loc        SourceLocation // Where the error occurred
	Hint       string         // Suggested fix
	Missing    bool           // A required parameter is absent
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("@%s parameter '%s': expected %s, got %s",
		e.Annotation.Type, e.Parameter, e.Expected, e.Actual)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func (e *ValidationError) Location() SourceLocation { return e.Loc }
func (e *ValidationError) Suggestion() string       { return e.Hint }

func (e *ValidationError) Code() ErrorCode {
	if e.Missing {
		return RequiredErrorCode
	}
	return ValidationErrorCode
}

// SpecVersionError reports a feature that needs a newer spec version than configured
type SpecVersionError struct {
	Feature    string         // Descriptor feature, e.g. "configuration-pid"
	Required   string         // Minimum spec version
	Configured string         // Configured spec version
	Loc        SourceLocation // Where the feature is used
}

func (e *SpecVersionError) Error() string {
	return fmt.Sprintf("%s requires spec version %s or later (configured: %s)", e.Feature, e.Required, e.Configured)
}

func (e *SpecVersionError) Location() SourceLocation { return e.Loc }
func (e *SpecVersionError) Suggestion() string {
	return fmt.Sprintf("Set specVersion to %s or remove %s", e.Required, e.Feature)
}
func (e *SpecVersionError) Code() ErrorCode { return SpecVersionErrorCode }

// SchemaError represents a combination of parameters that is not allowed
type SchemaError struct {
	Msg  string         // Error message
	Loc  SourceLocation // Where the error occurred
	Hint string         // Suggested fix
}

func (e *SchemaError) Error() string {
	if e.Hint != "" {
		return e.Msg + ". " + e.Hint
	}
	return e.Msg
}

func (e *SchemaError) Location() SourceLocation { return e.Loc }
func (e *SchemaError) Suggestion() string       { return e.Hint }
func (e *SchemaError) Code() ErrorCode          { return SchemaErrorCode }

// RegistrationError represents an error during schema registration
type RegistrationError struct {
	Msg  string
	Hint string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration error: %s. %s", e.Msg, e.Hint)
}

func (e *RegistrationError) Location() SourceLocation { return SourceLocation{} }
func (e *RegistrationError) Suggestion() string       { return e.Hint }
func (e *RegistrationError) Code() ErrorCode          { return RegistrationErrorCode }

// MultipleAnnotationErrors represents multiple annotation errors collected together
type MultipleAnnotationErrors struct {
	Errors []AnnotationError
}

func (e *MultipleAnnotationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple annotation errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// Unwrap returns the underlying errors for error inspection
func (e *MultipleAnnotationErrors) Unwrap() []error {
	errors := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errors[i] = err
	}
	return errors
}

// GetByType returns all errors of a specific type
func (e *MultipleAnnotationErrors) GetByType(code ErrorCode) []AnnotationError {
	var result []AnnotationError
	for _, err := range e.Errors {
		if err.Code() == code {
			result = append(result, err)
		}
	}
	return result
}

// HasType returns true if any error of the specified type exists
func (e *MultipleAnnotationErrors) HasType(code ErrorCode) bool {
	return len(e.GetByType(code)) > 0
}

// Flatten returns the annotation errors held by err, which may be a single
// AnnotationError or a MultipleAnnotationErrors
func Flatten(err error) []AnnotationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *MultipleAnnotationErrors:
		return e.Errors
	case AnnotationError:
		return []AnnotationError{e}
	default:
		return nil
	}
}
