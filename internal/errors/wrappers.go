package errors

import "fmt"

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapClassFormatError wraps a failure to decode a class file
func WrapClassFormatError(name string, cause error) *BaseError {
	return Wrap(ClassFormatErrorCode, fmt.Sprintf("invalid class file %s", name), cause).
		WithContext("class", name)
}

// NewClassFormatError reports a structural problem found while decoding a class file
func NewClassFormatError(format string, args ...interface{}) *BaseError {
	return Newf(ClassFormatErrorCode, format, args...)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapAnalysisError wraps a failure of the analysis context itself
func WrapAnalysisError(operation string, cause error) *BaseError {
	return Wrap(AnalysisErrorCode, fmt.Sprintf("analysis context: failed to %s", operation), cause).
		WithContext("operation", operation)
}

// WrapManifestError wraps manifest read/write failures
func WrapManifestError(operation, path string, cause error) *BaseError {
	return Wrap(ManifestErrorCode, fmt.Sprintf("failed to %s manifest '%s'", operation, path), cause).
		WithContext("operation", operation).
		WithContext("path", path)
}
