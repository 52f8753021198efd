package accessor

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/toyz/mbean/internal/errors"
)

// ParseFunc parses the textual form of a value
type ParseFunc func(text string) (interface{}, error)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
	uuidType     = reflect.TypeOf(uuid.UUID{})
)

// BuiltinParsers holds parsers for named types whose textual form differs
// from their underlying kind
var BuiltinParsers = map[reflect.Type]ParseFunc{
	durationType: func(text string) (interface{}, error) { return time.ParseDuration(text) },
	timeType:     func(text string) (interface{}, error) { return time.Parse(time.RFC3339Nano, text) },
	uuidType:     func(text string) (interface{}, error) { return uuid.Parse(text) },
}

// SignatureAliases maps names management clients commonly send in
// operation signatures to Go type identifiers
var SignatureAliases = map[string]string{
	"integer": "int",
	"long":    "int64",
	"short":   "int16",
	"byte":    "int8",
	"boolean": "bool",
	"double":  "float64",
	"float":   "float32",
	"UUID":    "uuid.UUID",
	"date":    "time.Time",
}

// ResolveTypeAlias resolves a signature alias to its Go type identifier
func ResolveTypeAlias(typeName string) string {
	if actual, ok := SignatureAliases[typeName]; ok {
		return actual
	}
	return typeName
}

// ParserFor returns a function parsing text into a value of type t, or
// false when t has no textual form.
func ParserFor(t reflect.Type) (func(text string) (reflect.Value, error), bool) {
	if parse, ok := BuiltinParsers[t]; ok {
		return func(text string) (reflect.Value, error) {
			v, err := parse(text)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(v), nil
		}, true
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(text string) (reflect.Value, error) {
			n, err := strconv.ParseInt(text, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v, nil
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(text string) (reflect.Value, error) {
			n, err := strconv.ParseUint(text, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v, nil
		}, true
	case reflect.Float32, reflect.Float64:
		return func(text string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(text, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v, nil
		}, true
	case reflect.Bool:
		return func(text string) (reflect.Value, error) {
			b, err := strconv.ParseBool(text)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetBool(b)
			return v, nil
		}, true
	case reflect.String:
		return func(text string) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			v.SetString(text)
			return v, nil
		}, true
	default:
		return nil, false
	}
}

// ToText renders a value the way the parsers read it back
func ToText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case json.Number:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// Coerce converts a dispatch input into a value of type t. Assignable values
// pass through; values with a textual parser are parsed from their text;
// anything else must be convertible.
func Coerce(value interface{}, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if parse, ok := ParserFor(t); ok {
		parsed, err := parse(ToText(value))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot parse %q as %s: %w", ToText(value), t, err)
		}
		return parsed, nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.UnsupportedType(t.String()).
		WithContext("value_type", rv.Type().String())
}
