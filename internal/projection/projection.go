// Package projection turns map-backed properties into composite values.
package projection

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/accessor"
	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
)

// Mark flags every property whose value type is a map as composite. Such
// properties advertise the composite type and are never writable. A
// property left with no way to be read is rejected.
func Mark(props []*models.Property) error {
	for _, p := range props {
		t := p.ValueType()
		if t == nil || t.Kind() != reflect.Map {
			continue
		}
		p.Composite = true
		p.Writable = false
		p.SetterMethod = nil
		p.Type = models.CompositeTypeName
		if !p.Readable {
			return errors.InaccessibleProperty(p.Name).
				WithSuggestion("map properties are read-only; mark them readable")
		}
	}
	return nil
}

// Attach wraps the getter of every composite property so reads return a
// *models.CompositeData, or nil when the map is empty or cannot be projected.
// Projection failures are logged, not returned.
func Attach(props []*models.Property, logger *zap.Logger) {
	for _, p := range props {
		if !p.Composite || p.Get == nil {
			continue
		}
		get, name := p.Get, p.Name
		p.Get = func() (interface{}, error) {
			raw, err := get()
			if err != nil {
				return nil, err
			}
			cd, err := Project(name, raw)
			if err != nil {
				logger.Error("composite projection failed",
					zap.String("property", name),
					zap.Error(err))
				return nil, nil
			}
			if cd == nil {
				return nil, nil
			}
			return cd, nil
		}
	}
}

// Project converts a map into a composite value. Keys become field names
// through their string form; values are unwrapped from atomic boxes and
// tagged by their runtime type. Nil and empty maps give nil.
func Project(typeName string, m interface{}) (*models.CompositeData, error) {
	if m == nil {
		return nil, nil
	}
	mv := reflect.ValueOf(m)
	if mv.Kind() != reflect.Map {
		return nil, errors.Projection(typeName, fmt.Errorf("%T is not a map", m))
	}
	if mv.Len() == 0 {
		return nil, nil
	}

	items := make([]models.CompositeItem, 0, mv.Len())
	iter := mv.MapRange()
	for iter.Next() {
		value := Unwrap(iter.Value())
		leaf, typed := Leaf(value)
		items = append(items, models.CompositeItem{
			Name:  accessor.ToText(iter.Key().Interface()),
			Type:  leaf,
			Value: typed,
		})
	}

	cd, err := models.NewCompositeData(typeName, items)
	if err != nil {
		return nil, errors.Projection(typeName, err)
	}
	return cd, nil
}

// Unwrap returns the plain value of v, loading it first when v holds or
// points to a known atomic box.
func Unwrap(v reflect.Value) interface{} {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
		return nil
	}

	box := v
	if box.Kind() == reflect.Ptr {
		if box.IsNil() {
			return nil
		}
		box = box.Elem()
	}
	if _, ok := accessor.WrapperOf(box.Type()); ok {
		if !box.CanAddr() {
			// boxes stored by value in a map are copies; load from a copy
			tmp := reflect.New(box.Type()).Elem()
			tmp.Set(box)
			box = tmp
		}
		if load := box.Addr().MethodByName("Load"); load.IsValid() {
			return load.Call(nil)[0].Interface()
		}
	}
	return v.Interface()
}

// Leaf picks the leaf tag for a runtime value. Unrecognized values are
// tagged as strings and rendered with their string form.
func Leaf(value interface{}) (models.LeafType, interface{}) {
	switch v := value.(type) {
	case int, int32:
		return models.LeafInteger, v
	case int64:
		return models.LeafLong, v
	case int16:
		return models.LeafShort, v
	case int8, uint8:
		return models.LeafByte, v
	case bool:
		return models.LeafBoolean, v
	case float64:
		return models.LeafDouble, v
	case float32:
		return models.LeafFloat, v
	case time.Time:
		return models.LeafDate, v
	case nil:
		return models.LeafString, nil
	default:
		return models.LeafString, accessor.ToText(value)
	}
}
