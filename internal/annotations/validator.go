package annotations

import (
	"fmt"
	"sort"

	"github.com/toyz/mbean/internal/errors"
)

// SchemaValidator defines the interface for validating markers against their schemas
type SchemaValidator interface {
	// Validate marker against its schema
	Validate(marker *ParsedMarker, schema MarkerSchema) error

	// ApplyDefaults applies default values for missing optional parameters
	ApplyDefaults(marker *ParsedMarker, schema MarkerSchema) error

	// TransformParameters transforms parameter values to correct types
	TransformParameters(marker *ParsedMarker, schema MarkerSchema) error
}

type validator struct{}

// NewValidator creates a new schema validator
func NewValidator() SchemaValidator {
	return &validator{}
}

// Validate validates a marker against its schema and reports every problem at once
func (v *validator) Validate(marker *ParsedMarker, schema MarkerSchema) error {
	errs := errors.NewMultipleErrors()
	kind := marker.Type.String()

	for _, paramName := range sortedKeys(schema.Parameters) {
		paramSpec := schema.Parameters[paramName]
		if paramSpec.Required && !marker.HasParameter(paramName) {
			errs.Add(errors.NewValidationError(kind, paramName,
				fmt.Sprintf("required parameter of type %s", paramSpec.Type.String()), "missing").
				WithLocation(marker.Location).
				WithSuggestion(fmt.Sprintf("Add %s=<value> to the tag", paramName)))
		}
	}

	for _, paramName := range sortedKeys(marker.Parameters) {
		paramValue := marker.Parameters[paramName]
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			errs.Add(errors.NewValidationError(kind, paramName, "known parameter",
				fmt.Sprintf("unknown parameter '%s'", paramName)).
				WithLocation(marker.Location).
				WithSuggestion(fmt.Sprintf("Remove %s or check parameter name spelling", paramName)))
			continue
		}

		if err := v.validateParameterType(kind, paramName, paramSpec.Type, paramValue, marker); err != nil {
			errs.Add(err)
			continue
		}

		if paramSpec.Validator != nil {
			if err := paramSpec.Validator(paramValue); err != nil {
				errs.Add(errors.NewValidationError(kind, paramName, "valid value", fmt.Sprintf("%v", paramValue)).
					WithLocation(marker.Location).
					WithSuggestion(err.Error()))
			}
		}
	}

	return errs.ErrOrNil()
}

// ApplyDefaults applies default values for missing optional parameters
func (v *validator) ApplyDefaults(marker *ParsedMarker, schema MarkerSchema) error {
	if marker.Parameters == nil {
		marker.Parameters = make(map[string]interface{})
	}

	for paramName, paramSpec := range schema.Parameters {
		if _, exists := marker.Parameters[paramName]; !exists && paramSpec.DefaultValue != nil {
			marker.Parameters[paramName] = paramSpec.DefaultValue
		}
	}

	return nil
}

// TransformParameters converts raw tag values to the schema parameter types
func (v *validator) TransformParameters(marker *ParsedMarker, schema MarkerSchema) error {
	for paramName, paramValue := range marker.Parameters {
		paramSpec, exists := schema.Parameters[paramName]
		if !exists {
			continue // reported by Validate
		}

		var (
			transformed interface{}
			err         error
		)
		switch paramSpec.Type {
		case BoolType:
			transformed, err = ConvertToBool(paramValue)
		case StringType:
			if _, isFlag := paramValue.(bool); isFlag {
				err = fmt.Errorf("flag form is only valid for bool parameters")
			} else {
				transformed, err = ConvertToString(paramValue)
			}
		}
		if err != nil {
			return errors.NewValidationError(marker.Type.String(), paramName,
				fmt.Sprintf("value convertible to %s", paramSpec.Type.String()),
				fmt.Sprintf("%v (%T)", paramValue, paramValue)).
				WithLocation(marker.Location).
				WithSuggestion(err.Error())
		}

		marker.Parameters[paramName] = transformed
	}

	return nil
}

func (v *validator) validateParameterType(kind, paramName string, expected ParameterType, value interface{}, marker *ParsedMarker) errors.BeanError {
	ok := false
	switch expected {
	case StringType:
		_, ok = value.(string)
	case BoolType:
		_, ok = value.(bool)
	}
	if ok {
		return nil
	}
	return errors.NewValidationError(kind, paramName, expected.String(), fmt.Sprintf("%T", value)).
		WithLocation(marker.Location)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
