package models

import "reflect"

// MemberKind identifies what a scanned member contributes to a bean
type MemberKind int

const (
	FieldKind MemberKind = iota
	GetterKind
	SetterKind
	PropertyMethodKind
	OperationKind
)

// String returns the string representation of the member kind
func (k MemberKind) String() string {
	switch k {
	case FieldKind:
		return "field"
	case GetterKind:
		return "getter"
	case SetterKind:
		return "setter"
	case PropertyMethodKind:
		return "property method"
	case OperationKind:
		return "operation"
	default:
		return "unknown"
	}
}

// PropertyTag holds the parameters of a field property marker
type PropertyTag struct {
	Name        string
	Readable    bool
	Writable    bool
	Description string
}

// FieldMember is a struct field carrying a property marker
type FieldMember struct {
	Identifier    string       // Go field name
	DeclaringType reflect.Type // struct type the field is declared in
	Type          reflect.Type
	Value         reflect.Value // addressable and settable, even for unexported fields
	Tag           PropertyTag
}

// MethodMember is a method referenced by a getter, setter, property method
// or operation marker
type MethodMember struct {
	Kind          MemberKind
	Identifier    string // Go method name
	Name          string // explicit name from the marker, empty when absent
	Description   string
	DeclaringType reflect.Type
	Func          reflect.Value // bound to the receiver
}

// Type returns the signature of the bound method
func (m MethodMember) Type() reflect.Type {
	return m.Func.Type()
}

// TypeMembers is everything a MetadataProvider found on one exposed value
type TypeMembers struct {
	Type            reflect.Type
	Fields          []FieldMember
	Getters         []MethodMember
	Setters         []MethodMember
	PropertyMethods []MethodMember
	Operations      []MethodMember
	Hierarchy       *Hierarchy
}

// Methods returns the method members of the given kind
func (tm *TypeMembers) Methods(kind MemberKind) []MethodMember {
	switch kind {
	case GetterKind:
		return tm.Getters
	case SetterKind:
		return tm.Setters
	case PropertyMethodKind:
		return tm.PropertyMethods
	case OperationKind:
		return tm.Operations
	default:
		return nil
	}
}

// AddMethod appends m to the list matching its kind
func (tm *TypeMembers) AddMethod(m MethodMember) {
	switch m.Kind {
	case GetterKind:
		tm.Getters = append(tm.Getters, m)
	case SetterKind:
		tm.Setters = append(tm.Setters, m)
	case PropertyMethodKind:
		tm.PropertyMethods = append(tm.PropertyMethods, m)
	case OperationKind:
		tm.Operations = append(tm.Operations, m)
	}
}

// Hierarchy records which struct types embed which. An embedded struct is
// an ancestor of every struct that embeds it, directly or not.
type Hierarchy struct {
	parents map[reflect.Type][]reflect.Type
}

// NewHierarchy creates an empty hierarchy
func NewHierarchy() *Hierarchy {
	return &Hierarchy{parents: make(map[reflect.Type][]reflect.Type)}
}

// Embed records that outer embeds inner
func (h *Hierarchy) Embed(outer, inner reflect.Type) {
	for _, p := range h.parents[outer] {
		if p == inner {
			return
		}
	}
	h.parents[outer] = append(h.parents[outer], inner)
}

// IsAncestor reports whether ancestor is embedded, at any depth, in t
func (h *Hierarchy) IsAncestor(ancestor, t reflect.Type) bool {
	if h == nil {
		return false
	}
	seen := make(map[reflect.Type]bool)
	stack := append([]reflect.Type(nil), h.parents[t]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, h.parents[cur]...)
	}
	return false
}

// Related reports whether one of a and b is an ancestor of the other
func (h *Hierarchy) Related(a, b reflect.Type) bool {
	return h.IsAncestor(a, b) || h.IsAncestor(b, a)
}
