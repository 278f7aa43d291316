// Package annotations describes the component annotations the analyzer
// understands: one schema per annotation type, a registry keyed by the
// annotation's class descriptor, and a validator that checks a decoded
// annotation against its schema and the configured spec version.
package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// Package prefixes of the two supported annotation families, in internal form
const (
	FelixPackage = "org/apache/felix/scr/annotations/"
	DSPackage    = "org/osgi/service/component/annotations/"
)

// Family identifies the annotation vocabulary an annotation belongs to
type Family int

const (
	// Felix is org.apache.felix.scr.annotations
	Felix Family = iota
	// DS is org.osgi.service.component.annotations
	DS
)

// String returns the string representation of the family
func (f Family) String() string {
	switch f {
	case Felix:
		return "felix"
	case DS:
		return "ds"
	default:
		return "unknown"
	}
}

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	ComponentAnnotation AnnotationType = iota
	ServiceAnnotation
	PropertyAnnotation
	PropertiesAnnotation
	ReferenceAnnotation
	ReferencesAnnotation
	ActivateAnnotation
	DeactivateAnnotation
	ModifiedAnnotation
	PropertyOptionAnnotation
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case ComponentAnnotation:
		return "Component"
	case ServiceAnnotation:
		return "Service"
	case PropertyAnnotation:
		return "Property"
	case PropertiesAnnotation:
		return "Properties"
	case ReferenceAnnotation:
		return "Reference"
	case ReferencesAnnotation:
		return "References"
	case ActivateAnnotation:
		return "Activate"
	case DeactivateAnnotation:
		return "Deactivate"
	case ModifiedAnnotation:
		return "Modified"
	case PropertyOptionAnnotation:
		return "PropertyOption"
	default:
		return "Unknown"
	}
}

// Key identifies a schema: the same simple name means different things in
// the two families
type Key struct {
	Family Family
	Type   AnnotationType
}

// String returns e.g. "felix:Component"
func (k Key) String() string {
	return k.Family.String() + ":" + k.Type.String()
}

// Descriptor returns the class descriptor of the annotation, e.g.
// Lorg/apache/felix/scr/annotations/Component;
func (k Key) Descriptor() string {
	pkg := FelixPackage
	if k.Family == DS {
		pkg = DSPackage
	}
	return "L" + pkg + k.Type.String() + ";"
}

// SourceLocation is where an annotation was found
type SourceLocation = diagnostics.Location

// ParsedAnnotation is a decoded annotation with its element values converted
// to Go types: string, bool, int64, float32, float64, []string for arrays
// of strings, enums or classes, []*ParsedAnnotation for arrays of nested
// annotations and []interface{} for arrays of numbers or booleans.
type ParsedAnnotation struct {
	Key        Key
	Target     string                 // Member the annotation sits on, empty for the class
	Parameters map[string]interface{} // Element values, explicit ones only
	Location   SourceLocation
}

// Type returns the annotation type
func (p *ParsedAnnotation) Type() AnnotationType {
	return p.Key.Type
}

// Family returns the annotation family
func (p *ParsedAnnotation) Family() Family {
	return p.Key.Family
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetBool returns a boolean parameter value with optional default
func (p *ParsedAnnotation) GetBool(paramName string, defaultValue ...bool) bool {
	if value, exists := p.Parameters[paramName]; exists {
		if boolValue, ok := value.(bool); ok {
			return boolValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetInt returns an integer parameter value with optional default
func (p *ParsedAnnotation) GetInt(paramName string, defaultValue ...int64) int64 {
	if value, exists := p.Parameters[paramName]; exists {
		if intValue, ok := value.(int64); ok {
			return intValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetStringSlice returns a string slice parameter value. A single string is
// returned as a one-element slice.
func (p *ParsedAnnotation) GetStringSlice(paramName string) []string {
	switch v := p.Parameters[paramName].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}

// GetAnnotations returns the nested annotations of an annotation-array parameter
func (p *ParsedAnnotation) GetAnnotations(paramName string) []*ParsedAnnotation {
	nested, _ := p.Parameters[paramName].([]*ParsedAnnotation)
	return nested
}

// GetValues renders any scalar or array parameter as strings the way they
// appear in a component descriptor
func (p *ParsedAnnotation) GetValues(paramName string) []string {
	value, exists := p.Parameters[paramName]
	if !exists {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, FormatValue(item))
		}
		return out
	case []*ParsedAnnotation:
		return nil
	default:
		return []string{FormatValue(v)}
	}
}

// HasParameter checks if a parameter exists
func (p *ParsedAnnotation) HasParameter(paramName string) bool {
	_, exists := p.Parameters[paramName]
	return exists
}

// FormatValue renders a converted scalar in Java's toString form
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return javaFloat(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case float64:
		return javaFloat(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// javaFloat appends ".0" to integral values, as Double.toString does
func javaFloat(s string) string {
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}
	return s + ".0"
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	IntType
	StringSliceType
	EnumType
	ClassType
	ClassSliceType
	AnnotationSliceType
	ValueSliceType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case StringSliceType:
		return "[]string"
	case EnumType:
		return "enum"
	case ClassType:
		return "class"
	case ClassSliceType:
		return "[]class"
	case AnnotationSliceType:
		return "[]annotation"
	case ValueSliceType:
		return "[]value"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for an annotation parameter
type ParameterSpec struct {
	Type         ParameterType           // Parameter type
	Required     bool                    // Whether parameter is required
	DefaultValue interface{}             // Value assumed when the parameter is absent
	Description  string                  // Parameter description
	Allowed      []string                // Enum constants accepted for EnumType
	Since        string                  // Minimum spec version, empty for 1.0
	Validator    func(interface{}) error // Custom validator function
}

// CustomValidator represents a custom validation function for annotations
type CustomValidator func(*ParsedAnnotation) error

// AnnotationSchema defines the schema for an annotation type
type AnnotationSchema struct {
	Key         Key                      // Family and type
	Description string                   // Human-readable description
	Parameters  map[string]ParameterSpec // Parameter specifications
	Since       string                   // Minimum spec version of the annotation itself
	Validators  []CustomValidator        // Custom validation functions
}
