package annotations

import (
	"fmt"
	"sort"
	"sync"
)

// MarkerRegistry defines the interface for managing marker schemas
type MarkerRegistry interface {
	// Register a new marker type with its schema
	Register(markerType MarkerType, schema MarkerSchema) error

	// GetSchema retrieves the schema for a marker type
	GetSchema(markerType MarkerType) (MarkerSchema, error)

	// ListTypes returns all registered marker types
	ListTypes() []MarkerType

	// IsRegistered checks if a marker type is registered
	IsRegistered(markerType MarkerType) bool
}

// registry is the concrete implementation of MarkerRegistry
type registry struct {
	mu      sync.RWMutex
	schemas map[MarkerType]MarkerSchema
}

// NewRegistry creates a new marker registry
func NewRegistry() MarkerRegistry {
	return &registry{
		schemas: make(map[MarkerType]MarkerSchema),
	}
}

var (
	defaultRegistry     MarkerRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global marker registry
func DefaultRegistry() MarkerRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register adds a new marker type with its schema to the registry
func (r *registry) Register(markerType MarkerType, schema MarkerSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schema.Type != markerType {
		return fmt.Errorf("schema type %s does not match marker type %s",
			schema.Type.String(), markerType.String())
	}

	if _, exists := r.schemas[markerType]; exists {
		return fmt.Errorf("marker type %s is already registered", markerType.String())
	}

	if err := r.validateSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s: %w", markerType.String(), err)
	}

	r.schemas[markerType] = schema
	return nil
}

// GetSchema retrieves the schema for a marker type
func (r *registry) GetSchema(markerType MarkerType) (MarkerSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[markerType]
	if !exists {
		return MarkerSchema{}, fmt.Errorf("marker type %s is not registered", markerType.String())
	}

	return schema, nil
}

// ListTypes returns all registered marker types in declaration order
func (r *registry) ListTypes() []MarkerType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]MarkerType, 0, len(r.schemas))
	for markerType := range r.schemas {
		types = append(types, markerType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// IsRegistered checks if a marker type is registered
func (r *registry) IsRegistered(markerType MarkerType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[markerType]
	return exists
}

func (r *registry) validateSchema(schema MarkerSchema) error {
	for paramName, paramSpec := range schema.Parameters {
		if paramName == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}

		if paramSpec.Type < StringType || paramSpec.Type > BoolType {
			return fmt.Errorf("invalid parameter type for %s: %d", paramName, paramSpec.Type)
		}

		if paramSpec.DefaultValue != nil {
			if err := validateDefaultValue(paramName, paramSpec.Type, paramSpec.DefaultValue); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateDefaultValue(paramName string, paramType ParameterType, defaultValue interface{}) error {
	switch paramType {
	case StringType:
		if _, ok := defaultValue.(string); !ok {
			return fmt.Errorf("default value for string parameter %s must be string, got %T", paramName, defaultValue)
		}
	case BoolType:
		if _, ok := defaultValue.(bool); !ok {
			return fmt.Errorf("default value for bool parameter %s must be bool, got %T", paramName, defaultValue)
		}
	}
	return nil
}
