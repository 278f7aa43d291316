package annotations

import (
	"fmt"
	"sort"
	"sync"
)

// AnnotationRegistry defines the interface for managing annotation schemas
type AnnotationRegistry interface {
	// Register a new annotation type with its schema
	Register(schema AnnotationSchema) error

	// GetSchema retrieves the schema for an annotation key
	GetSchema(key Key) (AnnotationSchema, error)

	// Lookup resolves a class descriptor such as Lorg/acme/Component; to a schema
	Lookup(descriptor string) (AnnotationSchema, bool)

	// ListKeys returns all registered keys in a stable order
	ListKeys() []Key

	// IsRegistered checks if an annotation key is registered
	IsRegistered(key Key) bool
}

// registry is the concrete implementation of AnnotationRegistry
type registry struct {
	mu           sync.RWMutex             // Protects concurrent access
	schemas      map[Key]AnnotationSchema // Schema storage
	byDescriptor map[string]Key           // Descriptor index
}

// NewRegistry creates a new, empty annotation registry
func NewRegistry() AnnotationRegistry {
	return &registry{
		schemas:      make(map[Key]AnnotationSchema),
		byDescriptor: make(map[string]Key),
	}
}

// defaultRegistry is the global registry instance
var (
	defaultRegistry     AnnotationRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global registry holding the built-in schemas
func DefaultRegistry() AnnotationRegistry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		if err := RegisterBuiltinSchemas(r); err != nil {
			panic(fmt.Sprintf("annotations: built-in schemas: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Register adds a schema to the registry
func (r *registry) Register(schema AnnotationSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Key]; exists {
		return &RegistrationError{
			Msg:  fmt.Sprintf("annotation %s is already registered", schema.Key),
			Hint: "Register each annotation once",
		}
	}

	if err := r.validateSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s: %w", schema.Key, err)
	}

	r.schemas[schema.Key] = schema
	r.byDescriptor[schema.Key.Descriptor()] = schema.Key
	return nil
}

// GetSchema retrieves the schema for an annotation key
func (r *registry) GetSchema(key Key) (AnnotationSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[key]
	if !exists {
		return AnnotationSchema{}, fmt.Errorf("annotation %s is not registered", key)
	}

	return schema, nil
}

// Lookup resolves an annotation descriptor
func (r *registry) Lookup(descriptor string) (AnnotationSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.byDescriptor[descriptor]
	if !ok {
		return AnnotationSchema{}, false
	}
	return r.schemas[key], true
}

// ListKeys returns all registered keys ordered by family then type
func (r *registry) ListKeys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.schemas))
	for key := range r.schemas {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		return keys[i].Type < keys[j].Type
	})

	return keys
}

// IsRegistered checks if an annotation key is registered
func (r *registry) IsRegistered(key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[key]
	return exists
}

// validateSchema performs basic validation on a schema
func (r *registry) validateSchema(schema AnnotationSchema) error {
	for paramName, paramSpec := range schema.Parameters {
		if paramName == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}

		if paramSpec.Type < StringType || paramSpec.Type > ValueSliceType {
			return fmt.Errorf("invalid parameter type for %s: %d", paramName, paramSpec.Type)
		}

		if paramSpec.Type == EnumType && len(paramSpec.Allowed) == 0 {
			return fmt.Errorf("enum parameter %s has no allowed constants", paramName)
		}

		if paramSpec.DefaultValue != nil {
			if err := r.validateDefaultValue(paramName, paramSpec); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateDefaultValue checks if the default value matches the parameter type
func (r *registry) validateDefaultValue(paramName string, spec ParameterSpec) error {
	switch spec.Type {
	case StringType, EnumType, ClassType:
		if _, ok := spec.DefaultValue.(string); !ok {
			return fmt.Errorf("default value for %s parameter %s must be string, got %T", spec.Type, paramName, spec.DefaultValue)
		}
	case BoolType:
		if _, ok := spec.DefaultValue.(bool); !ok {
			return fmt.Errorf("default value for bool parameter %s must be bool, got %T", paramName, spec.DefaultValue)
		}
	case IntType:
		if _, ok := spec.DefaultValue.(int64); !ok {
			return fmt.Errorf("default value for int parameter %s must be int64, got %T", paramName, spec.DefaultValue)
		}
	case StringSliceType, ClassSliceType:
		if _, ok := spec.DefaultValue.([]string); !ok {
			return fmt.Errorf("default value for %s parameter %s must be []string, got %T", spec.Type, paramName, spec.DefaultValue)
		}
	default:
		return fmt.Errorf("parameter %s of type %s cannot have a default", paramName, spec.Type)
	}

	return nil
}
