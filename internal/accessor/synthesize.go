// Package accessor binds property getters and setters and operation
// invokers to an exposed value.
package accessor

import (
	"fmt"
	"reflect"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func errNoMethod(t reflect.Type, method string) error {
	return errors.Newf(errors.UnsupportedTypeCode, "*%s has no %s method", t, method)
}

// Synthesize binds Get for every readable property and Set for every
// writable one. Properties backed by an atomic box report the boxed type,
// whether or not they are writable. Explicit accessor methods are wrapped;
// properties without them get accessors working on the backing field.
// Composite properties never get a setter.
func Synthesize(props []*models.Property) error {
	for _, p := range props {
		if p.Field != nil {
			if w, ok := WrapperOf(p.Field.Type); ok {
				p.Wrapper = w.Kind
				p.Type = w.Elem.String()
				if w.Elem.Kind() == reflect.Interface {
					p.Type = "string"
				}
			}
		}

		if p.Readable {
			get, err := getterFor(p)
			if err != nil {
				return err
			}
			p.Get = get
		}

		if p.Writable && !p.Composite {
			set, err := setterFor(p)
			if err != nil {
				return err
			}
			p.Set = set
		}
	}
	return nil
}

func getterFor(p *models.Property) (models.GetFunc, error) {
	member := "getter of " + p.Name
	if p.GetterMethod != nil {
		fn := p.GetterMethod.Func
		return func() (result interface{}, err error) {
			defer recoverInvocation(member, &err)
			out := fn.Call(nil)
			if len(out) == 2 && !out[1].IsNil() {
				return nil, errors.Invocation(member, out[1].Interface().(error))
			}
			return out[0].Interface(), nil
		}, nil
	}
	if p.Field == nil {
		return nil, errors.InaccessibleProperty(p.Name)
	}

	field := p.Field.Value
	switch p.Wrapper {
	case models.WrapperNone:
		return func() (result interface{}, err error) {
			defer recoverInvocation(member, &err)
			return field.Interface(), nil
		}, nil
	case models.WrapperAtomicRef:
		load, err := boxMethod(p.Field, "Load")
		if err != nil {
			return nil, err
		}
		return func() (result interface{}, err error) {
			defer recoverInvocation(member, &err)
			v := load.Call(nil)[0]
			if v.Kind() == reflect.Interface && v.IsNil() {
				return nil, nil
			}
			return fmt.Sprint(v.Interface()), nil
		}, nil
	default:
		load, err := boxMethod(p.Field, "Load")
		if err != nil {
			return nil, err
		}
		return func() (result interface{}, err error) {
			defer recoverInvocation(member, &err)
			return load.Call(nil)[0].Interface(), nil
		}, nil
	}
}

func setterFor(p *models.Property) (models.SetFunc, error) {
	member := "setter of " + p.Name
	if p.SetterMethod != nil {
		fn := p.SetterMethod.Func
		in := fn.Type().In(0)
		return func(value interface{}) (err error) {
			defer recoverInvocation(member, &err)
			arg, err := Coerce(value, in)
			if err != nil {
				return errors.Invocation(member, err)
			}
			out := fn.Call([]reflect.Value{arg})
			if len(out) == 1 && !out[0].IsNil() {
				return errors.Invocation(member, out[0].Interface().(error))
			}
			return nil
		}, nil
	}
	if p.Field == nil {
		return nil, errors.NotWritable("", p.Name)
	}

	if p.Wrapper == models.WrapperNone {
		parse, ok := ParserFor(p.Field.Type)
		if !ok {
			return nil, errors.UnsupportedType(p.Field.Type.String()).WithContext("property", p.Name)
		}
		field := p.Field.Value
		return func(value interface{}) (err error) {
			defer recoverInvocation(member, &err)
			v, err := parse(ToText(value))
			if err != nil {
				return errors.Invocation(member, err)
			}
			field.Set(v)
			return nil
		}, nil
	}

	w, _ := WrapperOf(p.Field.Type)
	parse, ok := ParserFor(w.Elem)
	if !ok || w.Elem.Kind() == reflect.Interface {
		return nil, errors.UnsupportedType(p.Field.Type.String()).
			WithContext("property", p.Name).
			WithSuggestion("use a typed box such as atomic.String for writable references")
	}
	store, err := boxMethod(p.Field, "Store")
	if err != nil {
		return nil, err
	}
	return func(value interface{}) (err error) {
		defer recoverInvocation(member, &err)
		v, err := parse(ToText(value))
		if err != nil {
			return errors.Invocation(member, err)
		}
		store.Call([]reflect.Value{v})
		return nil
	}, nil
}

func boxMethod(f *models.FieldMember, name string) (reflect.Value, error) {
	m := f.Value.Addr().MethodByName(name)
	if !m.IsValid() {
		return reflect.Value{}, errNoMethod(f.Type, name)
	}
	return m, nil
}

// BindOperations sets Invoke on every operation
func BindOperations(ops []*models.Operation) {
	for _, op := range ops {
		op.Invoke = invoker(op)
	}
}

func invoker(op *models.Operation) models.InvokeFunc {
	member := "operation " + op.Key()
	fn := op.Method.Func
	t := fn.Type()
	return func(args []interface{}) (result interface{}, err error) {
		defer recoverInvocation(member, &err)
		if len(args) != len(op.Params) {
			return nil, errors.Invocation(member,
				fmt.Errorf("got %d arguments, want %d", len(args), len(op.Params)))
		}
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			v, err := Coerce(arg, op.Params[i])
			if err != nil {
				return nil, errors.Invocation(member, fmt.Errorf("argument %d: %w", i+1, err))
			}
			in[i] = v
		}

		out := fn.Call(in)
		if n := t.NumOut(); n > 0 && t.Out(n-1) == errorType {
			if errv := out[n-1]; !errv.IsNil() {
				return nil, errors.Invocation(member, errv.Interface().(error))
			}
			out = out[:n-1]
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out[0].Interface(), nil
	}
}

func recoverInvocation(member string, err *error) {
	if r := recover(); r != nil {
		cause, ok := r.(error)
		if !ok {
			cause = fmt.Errorf("panic: %v", r)
		}
		*err = errors.Invocation(member, cause)
	}
}
