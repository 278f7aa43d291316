package annotations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chilicat/scrbuild/internal/settings"
)

// SchemaValidator defines the interface for validating annotations against their schemas
type SchemaValidator interface {
	// Validate annotation against its schema and the configured spec version
	Validate(annotation *ParsedAnnotation, schema AnnotationSchema, specVersion string) error

	// ApplyDefaults applies default values for missing optional parameters
	ApplyDefaults(annotation *ParsedAnnotation, schema AnnotationSchema)
}

// validator is the concrete implementation of SchemaValidator
type validator struct{}

// NewValidator creates a new schema validator
func NewValidator() SchemaValidator {
	return &validator{}
}

// Validate validates an annotation against its schema. All problems are
// collected into a MultipleAnnotationErrors; nil means the annotation is valid.
func (v *validator) Validate(annotation *ParsedAnnotation, schema AnnotationSchema, specVersion string) error {
	var errs []AnnotationError

	if schema.Since != "" && settings.CompareSpec(specVersion, schema.Since) < 0 {
		errs = append(errs, &SpecVersionError{
			Feature:    "@" + schema.Key.Type.String(),
			Required:   schema.Since,
			Configured: specVersion,
			Loc:        annotation.Location,
		})
	}

	for _, paramName := range sortedKeys(schema.Parameters) {
		paramSpec := schema.Parameters[paramName]
		if paramSpec.Required && !annotation.HasParameter(paramName) {
			errs = append(errs, &ValidationError{
				Annotation: schema.Key,
				Parameter:  paramName,
				Expected:   fmt.Sprintf("required parameter of type %s", paramSpec.Type),
				Actual:     "missing",
				Loc:        annotation.Location,
				Hint:       fmt.Sprintf("Add %s=<value> to the annotation", paramName),
				Missing:    true,
			})
		}
	}

	for _, paramName := range sortedKeys(annotation.Parameters) {
		paramValue := annotation.Parameters[paramName]
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			errs = append(errs, &ValidationError{
				Annotation: schema.Key,
				Parameter:  paramName,
				Expected:   "known parameter",
				Actual:     fmt.Sprintf("unknown parameter '%s'", paramName),
				Loc:        annotation.Location,
				Hint:       fmt.Sprintf("Remove %s or check parameter name spelling", paramName),
			})
			continue
		}

		if err := v.validateParameterType(schema.Key, paramName, paramSpec.Type, paramValue, annotation.Location); err != nil {
			errs = append(errs, err)
			continue
		}

		if paramSpec.Type == EnumType && !contains(paramSpec.Allowed, paramValue.(string)) {
			errs = append(errs, &ValidationError{
				Annotation: schema.Key,
				Parameter:  paramName,
				Expected:   "one of " + strings.Join(paramSpec.Allowed, ", "),
				Actual:     paramValue.(string),
				Loc:        annotation.Location,
			})
			continue
		}

		if paramSpec.Since != "" && settings.CompareSpec(specVersion, paramSpec.Since) < 0 {
			errs = append(errs, &SpecVersionError{
				Feature:    fmt.Sprintf("@%s(%s)", schema.Key.Type, paramName),
				Required:   paramSpec.Since,
				Configured: specVersion,
				Loc:        annotation.Location,
			})
		}

		if paramSpec.Validator != nil {
			if err := paramSpec.Validator(paramValue); err != nil {
				errs = append(errs, &ValidationError{
					Annotation: schema.Key,
					Parameter:  paramName,
					Expected:   "valid value",
					Actual:     fmt.Sprintf("%v", paramValue),
					Loc:        annotation.Location,
					Hint:       err.Error(),
				})
			}
		}
	}

	for _, customValidator := range schema.Validators {
		if err := customValidator(annotation); err != nil {
			errs = append(errs, &SchemaError{
				Msg: fmt.Sprintf("@%s: %v", schema.Key.Type, err),
				Loc: annotation.Location,
			})
		}
	}

	if len(errs) > 0 {
		return &MultipleAnnotationErrors{Errors: errs}
	}

	return nil
}

// ApplyDefaults applies default values for missing optional parameters
func (v *validator) ApplyDefaults(annotation *ParsedAnnotation, schema AnnotationSchema) {
	if annotation.Parameters == nil {
		annotation.Parameters = make(map[string]interface{})
	}

	for paramName, paramSpec := range schema.Parameters {
		if _, exists := annotation.Parameters[paramName]; !exists && paramSpec.DefaultValue != nil {
			annotation.Parameters[paramName] = paramSpec.DefaultValue
		}
	}
}

// validateParameterType validates that a parameter value matches the expected type
func (v *validator) validateParameterType(key Key, paramName string, expectedType ParameterType, value interface{}, location SourceLocation) AnnotationError {
	ok := false
	switch expectedType {
	case StringType, EnumType, ClassType:
		_, ok = value.(string)
	case BoolType:
		_, ok = value.(bool)
	case IntType:
		_, ok = value.(int64)
	case StringSliceType, ClassSliceType:
		// a single value is accepted where an array is declared
		switch value.(type) {
		case []string, string:
			ok = true
		}
	case AnnotationSliceType:
		_, ok = value.([]*ParsedAnnotation)
	case ValueSliceType:
		switch value.(type) {
		case []interface{}, []string:
			ok = true
		}
	}

	if ok {
		return nil
	}
	return &ValidationError{
		Annotation: key,
		Parameter:  paramName,
		Expected:   expectedType.String(),
		Actual:     fmt.Sprintf("%T", value),
		Loc:        location,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
