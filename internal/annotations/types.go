package annotations

import (
	"fmt"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
)

// MarkerType represents the type of marker a struct tag belongs to
type MarkerType int

const (
	PropertyMarker MarkerType = iota
	GetterMarker
	SetterMarker
	OperationMarker
	AttributeMarker
)

// String returns the string representation of the marker type
func (m MarkerType) String() string {
	switch m {
	case PropertyMarker:
		return "property"
	case GetterMarker:
		return "getter"
	case SetterMarker:
		return "setter"
	case OperationMarker:
		return "operation"
	case AttributeMarker:
		return "attribute"
	default:
		return "unknown"
	}
}

// ParseMarkerType converts string to MarkerType
func ParseMarkerType(s string) (MarkerType, error) {
	switch s {
	case "property":
		return PropertyMarker, nil
	case "getter":
		return GetterMarker, nil
	case "setter":
		return SetterMarker, nil
	case "operation":
		return OperationMarker, nil
	case "attribute":
		return AttributeMarker, nil
	default:
		return 0, fmt.Errorf("unknown marker type: %s", s)
	}
}

// MarkerTypeFor maps the member kind of a tagged field to its marker type
func MarkerTypeFor(kind models.MemberKind) MarkerType {
	switch kind {
	case models.GetterKind:
		return GetterMarker
	case models.SetterKind:
		return SetterMarker
	case models.OperationKind:
		return OperationMarker
	case models.PropertyMethodKind:
		return AttributeMarker
	default:
		return PropertyMarker
	}
}

// ParsedMarker represents a fully parsed marker tag with type-safe parameters
type ParsedMarker struct {
	Type       MarkerType             // Marker type enum
	Target     string                 // Struct field the tag is attached to
	Parameters map[string]interface{} // Typed parameters
	Location   errors.SourceLocation  // Source location, when known
	Raw        string                 // Original tag text
}

// GetString returns a string parameter value with optional default
func (p *ParsedMarker) GetString(paramName string, defaultValue ...string) string {
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
func (p *ParsedMarker) GetBool(paramName string, defaultValue ...bool) bool {
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

// HasParameter checks if a parameter exists
func (p *ParsedMarker) HasParameter(paramName string) bool {
	_, exists := p.Parameters[paramName]
	return exists
}

// PropertyTag converts a property marker into its model form
func (p *ParsedMarker) PropertyTag() models.PropertyTag {
	return models.PropertyTag{
		Name:        p.GetString(ParamName),
		Readable:    p.GetBool(ParamReadable, true),
		Writable:    p.GetBool(ParamWritable),
		Description: p.GetString(ParamDescription),
	}
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for a marker parameter
type ParameterSpec struct {
	Type         ParameterType           // Parameter type
	Required     bool                    // Whether parameter is required
	DefaultValue interface{}             // Default value if not provided
	Description  string                  // Parameter description
	Validator    func(interface{}) error // Custom validator function
}

// MarkerSchema defines the schema for a marker type
type MarkerSchema struct {
	Type        MarkerType               // Marker type enum
	Description string                   // Human-readable description
	Parameters  map[string]ParameterSpec // Parameter specifications
	Examples    []string                 // Usage examples
}

// ConvertToString converts any value to a string
func ConvertToString(value interface{}) (string, error) {
	if strValue, ok := value.(string); ok {
		return strValue, nil
	}
	return fmt.Sprintf("%v", value), nil
}

// ConvertToBool converts various types to boolean
func ConvertToBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return parseBoolString(v)
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

func parseBoolString(s string) (bool, error) {
	switch s {
	case "true", "True", "TRUE", "1", "yes", "Yes", "YES", "on", "On", "ON":
		return true, nil
	case "false", "False", "FALSE", "0", "no", "No", "NO", "off", "Off", "OFF":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s", s)
	}
}
