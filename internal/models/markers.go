package models

import "reflect"

// Marker fields are blank struct fields whose tag points at a method of the
// enclosing struct:
//
//	type Cache struct {
//		_ mbean.Getter    `mbean:"method=HitCount,name=hits"`
//		_ mbean.Operation `mbean:"method=Flush,description='drop every entry'"`
//	}
//
// The types carry no data; they only select how the method is exposed.

// GetterMarker marks a method as the read accessor of a property.
type GetterMarker struct{}

// SetterMarker marks a method as the write accessor of a property.
type SetterMarker struct{}

// OperationMarker marks a method as an invokable operation.
type OperationMarker struct{}

// AttributeMarker marks a value-returning method as a read-only property
// that has no backing field.
type AttributeMarker struct{}

// TagKey is the struct tag key every marker is read from.
const TagKey = "mbean"

var (
	getterMarkerType    = reflect.TypeOf(GetterMarker{})
	setterMarkerType    = reflect.TypeOf(SetterMarker{})
	operationMarkerType = reflect.TypeOf(OperationMarker{})
	attributeMarkerType = reflect.TypeOf(AttributeMarker{})
)

// MarkerKindOf maps a marker field type to the member kind it declares.
// Any other type reports FieldKind, meaning the field itself is a property.
func MarkerKindOf(t reflect.Type) MemberKind {
	switch t {
	case getterMarkerType:
		return GetterKind
	case setterMarkerType:
		return SetterKind
	case operationMarkerType:
		return OperationKind
	case attributeMarkerType:
		return PropertyMethodKind
	default:
		return FieldKind
	}
}
