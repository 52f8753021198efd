package models

import (
	"reflect"
	"strings"
)

// WrapperKind classifies atomic single-value boxes a property can be backed by
type WrapperKind int

const (
	WrapperNone WrapperKind = iota
	WrapperAtomicInt
	WrapperAtomicLong
	WrapperAtomicBool
	WrapperAtomicRef
)

// String returns the string representation of the wrapper kind
func (k WrapperKind) String() string {
	switch k {
	case WrapperAtomicInt:
		return "atomic int"
	case WrapperAtomicLong:
		return "atomic long"
	case WrapperAtomicBool:
		return "atomic bool"
	case WrapperAtomicRef:
		return "atomic ref"
	default:
		return "none"
	}
}

// CompositeTypeName is the type advertised for map-backed properties
const CompositeTypeName = "composite"

// GetFunc reads the current value of a property
type GetFunc func() (interface{}, error)

// SetFunc stores a new value into a property
type SetFunc func(value interface{}) error

// Property is a resolved, named attribute of a bean
type Property struct {
	Name          string
	Type          string // type reported to management clients
	Description   string
	Readable      bool
	Writable      bool
	Composite     bool // backed by a map and projected on read
	Wrapper       WrapperKind
	DeclaringType reflect.Type
	Field         *FieldMember  // nil for method-only properties
	GetterMethod  *MethodMember // explicit getter, if any
	SetterMethod  *MethodMember // explicit setter, if any
	Get           GetFunc
	Set           SetFunc
}

// ValueType returns the Go type of the property value: the field type, or
// the first result of the getter for method-only properties.
func (p *Property) ValueType() reflect.Type {
	if p.Field != nil {
		return p.Field.Type
	}
	if p.GetterMethod != nil && p.GetterMethod.Type().NumOut() > 0 {
		return p.GetterMethod.Type().Out(0)
	}
	return nil
}

// IsGetterStyle reports whether the property reads as a boolean "is" flag
func (p *Property) IsGetterStyle() bool {
	t := p.ValueType()
	return t != nil && t.Kind() == reflect.Bool && p.Wrapper == WrapperNone
}

// InvokeFunc runs an operation with already coerced arguments
type InvokeFunc func(args []interface{}) (interface{}, error)

// Operation is a resolved, invokable action of a bean
type Operation struct {
	Name        string
	Signature   []string // parameter type identifiers
	Description string
	ReturnType  string
	Params      []reflect.Type
	Method      MethodMember
	Invoke      InvokeFunc
}

// Key returns the overload key of the operation
func (o *Operation) Key() string {
	return OperationKey(o.Name, o.Signature)
}

// OperationKey joins a name and a signature into a lookup key
func OperationKey(name string, signature []string) string {
	return name + "(" + JoinSignature(signature) + ")"
}

// JoinSignature renders a signature the way it travels over the wire
func JoinSignature(signature []string) string {
	return strings.Join(signature, ",")
}

// SplitSignature is the inverse of JoinSignature
func SplitSignature(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
