// Package resolver merges scanned fields and accessor methods into named
// properties and collects operations by name and signature.
package resolver

import (
	"reflect"
	"sort"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Result is the resolved table of one exposed value
type Result struct {
	Properties []*models.Property  // scan order, one per name
	Operations []*models.Operation // first appearance order, one per key
	Scanned    []*models.Operation // every scanned operation in scan order
	byKey      map[string]*models.Operation
}

// Operation returns the operation registered under name and signature
func (r *Result) Operation(name string, signature []string) (*models.Operation, bool) {
	op, ok := r.byKey[models.OperationKey(name, signature)]
	return op, ok
}

// Resolve builds the property and operation tables from scanned members
func Resolve(tm *models.TypeMembers) (*Result, error) {
	props, err := resolveProperties(tm)
	if err != nil {
		return nil, err
	}
	ops, scanned, byKey, err := resolveOperations(tm.Operations)
	if err != nil {
		return nil, err
	}
	return &Result{Properties: props, Operations: ops, Scanned: scanned, byKey: byKey}, nil
}

func resolveProperties(tm *models.TypeMembers) ([]*models.Property, error) {
	// fields: a name may appear once per declaring type; across types it is
	// tolerated only between an embedded struct and its embedder, and the
	// outermost declaration wins
	var order []string
	fields := make(map[string]*models.FieldMember)
	perType := make(map[reflect.Type]map[string]bool)
	for i := range tm.Fields {
		f := &tm.Fields[i]
		name := fieldName(f)

		seen := perType[f.DeclaringType]
		if seen == nil {
			seen = make(map[string]bool)
			perType[f.DeclaringType] = seen
		}
		if seen[name] {
			return nil, errors.DuplicateProperty("field", name)
		}
		seen[name] = true

		if existing, ok := fields[name]; ok {
			if !tm.Hierarchy.Related(existing.DeclaringType, f.DeclaringType) {
				return nil, errors.DuplicateProperty("property", name).
					WithContext("declared_in", []string{existing.DeclaringType.String(), f.DeclaringType.String()})
			}
			continue
		}
		fields[name] = f
		order = append(order, name)
	}

	getters, err := indexMethods(tm.Getters, "getter", GetterName)
	if err != nil {
		return nil, err
	}
	setters, err := indexMethods(tm.Setters, "setter", SetterName)
	if err != nil {
		return nil, err
	}

	methodProps := make(map[string]*models.MethodMember)
	var methodOrder []string
	for i := range tm.PropertyMethods {
		m := &tm.PropertyMethods[i]
		name := m.Name
		if name == "" {
			name = LowerFirst(m.Identifier)
		}
		_, isField := fields[name]
		_, isGetter := getters[name]
		_, isSetter := setters[name]
		_, isMethod := methodProps[name]
		if isField || isGetter || isSetter || isMethod {
			return nil, errors.DuplicateProperty("property method", name)
		}
		if err := checkGetterSignature(m); err != nil {
			return nil, err
		}
		methodProps[name] = m
		methodOrder = append(methodOrder, name)
	}

	if err := checkOrphans("setter", setters, fields); err != nil {
		return nil, err
	}
	if err := checkOrphans("getter", getters, fields); err != nil {
		return nil, err
	}

	props := make([]*models.Property, 0, len(order)+len(methodOrder))
	for _, name := range order {
		f := fields[name]
		p := &models.Property{
			Name:          name,
			Type:          f.Type.String(),
			Description:   f.Tag.Description,
			Readable:      f.Tag.Readable,
			Writable:      f.Tag.Writable,
			DeclaringType: f.DeclaringType,
			Field:         f,
		}
		if !p.Readable && !p.Writable {
			return nil, errors.InaccessibleProperty(name)
		}
		if g, ok := getters[name]; ok && p.Readable {
			if err := checkGetterSignature(g); err != nil {
				return nil, err
			}
			p.GetterMethod = g
		}
		if s, ok := setters[name]; ok && p.Writable {
			if err := checkSetterSignature(s); err != nil {
				return nil, err
			}
			p.SetterMethod = s
		}
		props = append(props, p)
	}
	for _, name := range methodOrder {
		m := methodProps[name]
		props = append(props, &models.Property{
			Name:          name,
			Type:          m.Type().Out(0).String(),
			Description:   m.Description,
			Readable:      true,
			DeclaringType: m.DeclaringType,
			GetterMethod:  m,
		})
	}
	return props, nil
}

func fieldName(f *models.FieldMember) string {
	if f.Tag.Name != "" {
		return f.Tag.Name
	}
	return LowerFirst(f.Identifier)
}

func indexMethods(members []models.MethodMember, kind string, derive func(string) string) (map[string]*models.MethodMember, error) {
	index := make(map[string]*models.MethodMember, len(members))
	for i := range members {
		m := &members[i]
		name := m.Name
		if name == "" {
			name = derive(m.Identifier)
		}
		if _, dup := index[name]; dup {
			return nil, errors.DuplicateProperty(kind, name)
		}
		index[name] = m
	}
	return index, nil
}

func checkOrphans(kind string, accessors map[string]*models.MethodMember, fields map[string]*models.FieldMember) error {
	var orphans []string
	for name := range accessors {
		if _, ok := fields[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	if len(orphans) == 0 {
		return nil
	}
	sort.Strings(orphans)
	return errors.OrphanedAccessor(kind, orphans[0]).WithContext("orphans", orphans)
}

// checkGetterSignature accepts func() T and func() (T, error)
func checkGetterSignature(m *models.MethodMember) error {
	t := m.Type()
	ok := t.NumIn() == 0 &&
		(t.NumOut() == 1 && t.Out(0) != errorType ||
			t.NumOut() == 2 && t.Out(1) == errorType)
	if !ok {
		return errors.MetadataAccess(m.DeclaringType.String(),
			errors.Newf(errors.MetadataAccessCode, "%s has signature %s, want func() T or func() (T, error)", m.Identifier, t))
	}
	return nil
}

// checkSetterSignature accepts func(T) and func(T) error
func checkSetterSignature(m *models.MethodMember) error {
	t := m.Type()
	ok := t.NumIn() == 1 &&
		(t.NumOut() == 0 || t.NumOut() == 1 && t.Out(0) == errorType)
	if !ok {
		return errors.MetadataAccess(m.DeclaringType.String(),
			errors.Newf(errors.MetadataAccessCode, "%s has signature %s, want func(T) or func(T) error", m.Identifier, t))
	}
	return nil
}

func resolveOperations(members []models.MethodMember) ([]*models.Operation, []*models.Operation, map[string]*models.Operation, error) {
	byKey := make(map[string]*models.Operation, len(members))
	scanned := make([]*models.Operation, 0, len(members))
	var order []string
	for _, m := range members {
		t := m.Type()
		if t.IsVariadic() {
			return nil, nil, nil, errors.MetadataAccess(m.DeclaringType.String(),
				errors.Newf(errors.MetadataAccessCode, "operation %s is variadic", m.Identifier))
		}
		name := m.Name
		if name == "" {
			name = LowerFirst(m.Identifier)
		}
		params := make([]reflect.Type, t.NumIn())
		signature := make([]string, t.NumIn())
		for i := range params {
			params[i] = t.In(i)
			signature[i] = TypeIdentifier(t.In(i))
		}
		op := &models.Operation{
			Name:        name,
			Signature:   signature,
			Description: m.Description,
			ReturnType:  returnType(t),
			Params:      params,
			Method:      m,
		}
		key := op.Key()
		if _, exists := byKey[key]; !exists {
			order = append(order, key)
		}
		byKey[key] = op
		scanned = append(scanned, op)
	}

	ops := make([]*models.Operation, len(order))
	for i, key := range order {
		ops[i] = byKey[key]
	}
	return ops, scanned, byKey, nil
}

// TypeIdentifier is the name a parameter type is matched by in signatures
func TypeIdentifier(t reflect.Type) string {
	return t.String()
}

func returnType(t reflect.Type) string {
	switch {
	case t.NumOut() == 0:
		return "void"
	case t.Out(0) == errorType:
		return "void"
	default:
		return t.Out(0).String()
	}
}
