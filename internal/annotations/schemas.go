package annotations

import (
	"fmt"
	"go/token"
)

// Parameter names shared by the built-in schemas
const (
	ParamName        = "name"
	ParamReadable    = "readable"
	ParamWritable    = "writable"
	ParamDescription = "description"
	ParamMethod      = "method"
)

// ValidateIdentifier checks that a method reference is an exported Go identifier
func ValidateIdentifier(v interface{}) error {
	name := v.(string)
	if !token.IsIdentifier(name) {
		return fmt.Errorf("'%s' is not a Go identifier", name)
	}
	if !token.IsExported(name) {
		return fmt.Errorf("method '%s' must be exported to be bound", name)
	}
	return nil
}

// ValidateNotBlank rejects an explicitly empty name
func ValidateNotBlank(v interface{}) error {
	if v.(string) == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

func nameSpec(description string) ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Description: description,
		Validator:   ValidateNotBlank,
	}
}

func methodSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Required:    true,
		Description: "Exported method of the enclosing struct",
		Validator:   ValidateIdentifier,
	}
}

func descriptionSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringType,
		Description: "Human-readable description shown to management clients",
	}
}

// PropertyMarkerSchema defines the schema for property fields
var PropertyMarkerSchema = MarkerSchema{
	Type:        PropertyMarker,
	Description: "Exposes a struct field as a bean attribute",
	Parameters: map[string]ParameterSpec{
		ParamName: nameSpec("Attribute name, defaults to the field name"),
		ParamReadable: {
			Type:         BoolType,
			DefaultValue: true,
			Description:  "Whether management clients may read the attribute",
		},
		ParamWritable: {
			Type:         BoolType,
			DefaultValue: false,
			Description:  "Whether management clients may write the attribute",
		},
		ParamDescription: descriptionSpec(),
	},
	Examples: []string{
		"`mbean:\"\"`",
		"`mbean:\"name=hits,description='cache hits'\"`",
		"`mbean:\"writable\"`",
		"`mbean:\"readable=false,writable=true\"`",
	},
}

// GetterMarkerSchema defines the schema for getter markers
var GetterMarkerSchema = MarkerSchema{
	Type:        GetterMarker,
	Description: "Binds a method as the read accessor of a property",
	Parameters: map[string]ParameterSpec{
		ParamMethod: methodSpec(),
		ParamName:   nameSpec("Property name, defaults to the method name without its Get or Is prefix"),
	},
	Examples: []string{
		"_ mbean.Getter `mbean:\"method=GetHits\"`",
		"_ mbean.Getter `mbean:\"method=Current,name=hits\"`",
	},
}

// SetterMarkerSchema defines the schema for setter markers
var SetterMarkerSchema = MarkerSchema{
	Type:        SetterMarker,
	Description: "Binds a method as the write accessor of a property",
	Parameters: map[string]ParameterSpec{
		ParamMethod: methodSpec(),
		ParamName:   nameSpec("Property name, defaults to the method name without its Set prefix"),
	},
	Examples: []string{
		"_ mbean.Setter `mbean:\"method=SetLimit\"`",
	},
}

// OperationMarkerSchema defines the schema for operation markers
var OperationMarkerSchema = MarkerSchema{
	Type:        OperationMarker,
	Description: "Exposes a method as an invokable operation",
	Parameters: map[string]ParameterSpec{
		ParamMethod:      methodSpec(),
		ParamName:        nameSpec("Operation name, defaults to the method name"),
		ParamDescription: descriptionSpec(),
	},
	Examples: []string{
		"_ mbean.Operation `mbean:\"method=Flush\"`",
		"_ mbean.Operation `mbean:\"method=AddN,name=add,description='add n items'\"`",
	},
}

// AttributeMarkerSchema defines the schema for read-only method properties
var AttributeMarkerSchema = MarkerSchema{
	Type:        AttributeMarker,
	Description: "Exposes a value-returning method as a read-only attribute",
	Parameters: map[string]ParameterSpec{
		ParamMethod:      methodSpec(),
		ParamName:        nameSpec("Attribute name, defaults to the method name"),
		ParamDescription: descriptionSpec(),
	},
	Examples: []string{
		"_ mbean.Attribute `mbean:\"method=Uptime\"`",
	},
}

// RegisterBuiltinSchemas registers all built-in marker schemas
func RegisterBuiltinSchemas(registry MarkerRegistry) error {
	for _, schema := range GetBuiltinSchemas() {
		if err := registry.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type.String(), err)
		}
	}
	return nil
}

// GetBuiltinSchemas returns all built-in marker schemas
func GetBuiltinSchemas() []MarkerSchema {
	return []MarkerSchema{
		PropertyMarkerSchema,
		GetterMarkerSchema,
		SetterMarkerSchema,
		OperationMarkerSchema,
		AttributeMarkerSchema,
	}
}

func init() {
	if err := RegisterBuiltinSchemas(DefaultRegistry()); err != nil {
		panic(fmt.Sprintf("failed to register built-in schemas: %v", err))
	}
}
