// Package scanner collects the marked members of an exposed struct and of
// every struct it embeds.
package scanner

import (
	"reflect"
	"unsafe"

	"github.com/toyz/mbean/internal/annotations"
	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
)

// MetadataProvider returns the marked members of a target value
type MetadataProvider interface {
	Members(target reflect.Value) (*models.TypeMembers, error)
}

// StructProvider reads markers from struct tags by reflection
type StructProvider struct {
	parser *annotations.Parser
}

// NewStructProvider creates a provider using parser, or the default parser when nil
func NewStructProvider(parser *annotations.Parser) *StructProvider {
	if parser == nil {
		parser = annotations.DefaultParser()
	}
	return &StructProvider{parser: parser}
}

// Default is the provider used when none is configured
var Default MetadataProvider = NewStructProvider(nil)

type visitKey struct {
	addr uintptr
	typ  reflect.Type
}

type walkState struct {
	visited map[visitKey]bool
	types   map[reflect.Type]bool
}

// Members walks target, a non-nil pointer to a struct. Fields of a struct
// are listed in declaration order before the members of the structs it
// embeds; embedded structs are walked depth first.
func (p *StructProvider) Members(target reflect.Value) (*models.TypeMembers, error) {
	if err := CheckTarget(target); err != nil {
		return nil, err
	}

	root := target.Elem()
	tm := &models.TypeMembers{
		Type:      root.Type(),
		Hierarchy: models.NewHierarchy(),
	}
	state := &walkState{visited: make(map[visitKey]bool), types: make(map[reflect.Type]bool)}
	if err := p.walk(root, tm, state); err != nil {
		return nil, err
	}
	return tm, nil
}

func (p *StructProvider) walk(v reflect.Value, tm *models.TypeMembers, state *walkState) error {
	t := v.Type()
	key := visitKey{addr: v.UnsafeAddr(), typ: t}
	if state.visited[key] {
		return nil
	}
	state.visited[key] = true
	// a second instance of the same struct, as in a diamond embedding
	repeated := state.types[t]
	state.types[t] = true

	var embedded []reflect.Value
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := accessible(v.Field(i))
		tag, tagged := sf.Tag.Lookup(models.TagKey)

		if !tagged {
			if sf.Anonymous {
				if inner, ok := embeddedStruct(fv); ok {
					tm.Hierarchy.Embed(t, inner.Type())
					embedded = append(embedded, inner)
				}
			}
			continue
		}
		if tag == "-" {
			continue
		}
		if repeated {
			return errors.Newf(errors.DuplicatePropertyCode,
				"%s is embedded more than once, so its marked member %s is ambiguous", typeName(t), sf.Name).
				WithContext("type", typeName(t)).
				WithContext("field", sf.Name).
				WithSuggestion("embed " + typeName(t) + " once, or mark the member on the embedding types")
		}

		if err := p.collect(v, sf, fv, tag, tm); err != nil {
			return err
		}
	}

	for _, inner := range embedded {
		if err := p.walk(inner, tm, state); err != nil {
			return err
		}
	}
	return nil
}

func (p *StructProvider) collect(owner reflect.Value, sf reflect.StructField, fv reflect.Value, tag string, tm *models.TypeMembers) error {
	t := owner.Type()
	kind := models.MarkerKindOf(sf.Type)
	target := t.Name() + "." + sf.Name

	marker, err := p.parser.Parse(annotations.MarkerTypeFor(kind), target, tag, errors.SourceLocation{})
	if err != nil {
		return errors.MetadataAccess(typeName(t), err).WithContext("field", sf.Name)
	}

	if kind == models.FieldKind {
		if sf.Name == "_" {
			return errors.MetadataAccess(typeName(t),
				errors.Newf(errors.MarkerValidationCode, "blank field of type %s cannot be a property", sf.Type))
		}
		tm.Fields = append(tm.Fields, models.FieldMember{
			Identifier:    sf.Name,
			DeclaringType: t,
			Type:          sf.Type,
			Value:         fv,
			Tag:           marker.PropertyTag(),
		})
		return nil
	}

	methodName := marker.GetString(annotations.ParamMethod)
	method := accessible(owner).Addr().MethodByName(methodName)
	if !method.IsValid() {
		return errors.MetadataAccess(typeName(t),
			errors.Newf(errors.MetadataAccessCode, "method %s not found on *%s", methodName, t.Name())).
			WithContext("field", sf.Name).
			WithSuggestion("methods are bound on the pointer receiver and must be exported")
	}

	tm.AddMethod(models.MethodMember{
		Kind:          kind,
		Identifier:    methodName,
		Name:          marker.GetString(annotations.ParamName),
		Description:   marker.GetString(annotations.ParamDescription),
		DeclaringType: t,
		Func:          method,
	})
	return nil
}

// CheckTarget reports whether target can be exposed
func CheckTarget(target reflect.Value) error {
	if !target.IsValid() || target.Kind() != reflect.Ptr || target.IsNil() || target.Elem().Kind() != reflect.Struct {
		var got interface{}
		if target.IsValid() && target.CanInterface() {
			got = target.Interface()
		}
		return errors.InvalidTarget(got)
	}
	return nil
}

// embeddedStruct returns the struct behind an embedded field, if any
func embeddedStruct(fv reflect.Value) (reflect.Value, bool) {
	switch fv.Kind() {
	case reflect.Struct:
		return fv, true
	case reflect.Ptr:
		if fv.IsNil() || fv.Elem().Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		return accessible(fv.Elem()), true
	default:
		return reflect.Value{}, false
	}
}

// accessible returns v with its read-only flag cleared so unexported fields
// can be read, written and have their methods called.
func accessible(v reflect.Value) reflect.Value {
	if !v.CanAddr() || v.CanSet() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

func typeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
