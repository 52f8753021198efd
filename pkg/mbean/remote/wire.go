package remote

import (
	"fmt"
	"reflect"
	"time"

	"github.com/toyz/mbean/internal/accessor"
	"github.com/toyz/mbean/internal/models"
	"github.com/toyz/mbean/pkg/mbean"
)

// CompositeType tags composite values on the wire
const CompositeType = "composite"

// WireComposite is the JSON form of a composite value
type WireComposite struct {
	Type     string      `json:"@type"`
	TypeName string      `json:"typeName"`
	Fields   []WireField `json:"fields"`
}

// WireField is one leaf of a WireComposite
type WireField struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// EncodeValue converts composite values into their wire form. Other values
// are returned unchanged.
func EncodeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case *mbean.CompositeData:
		if val == nil {
			return nil
		}
		fields := make([]WireField, 0, val.Len())
		for _, item := range val.Items() {
			fields = append(fields, WireField{Name: item.Name, Type: item.Type.String(), Value: item.Value})
		}
		return WireComposite{Type: CompositeType, TypeName: val.TypeName, Fields: fields}
	case []mbean.AttributeValue:
		out := make([]mbean.AttributeValue, len(val))
		for i, av := range val {
			out[i] = mbean.AttributeValue{Name: av.Name, Value: EncodeValue(av.Value)}
		}
		return out
	default:
		return v
	}
}

var leafGoTypes = map[models.LeafType]reflect.Type{
	models.LeafString:  reflect.TypeOf(""),
	models.LeafInteger: reflect.TypeOf(int(0)),
	models.LeafLong:    reflect.TypeOf(int64(0)),
	models.LeafShort:   reflect.TypeOf(int16(0)),
	models.LeafByte:    reflect.TypeOf(int8(0)),
	models.LeafBoolean: reflect.TypeOf(false),
	models.LeafDouble:  reflect.TypeOf(float64(0)),
	models.LeafFloat:   reflect.TypeOf(float32(0)),
	models.LeafDate:    reflect.TypeOf(time.Time{}),
}

// DecodeValue turns a decoded JSON value back into a composite when it
// carries the composite tag. Leaves get the Go type of their leaf tag.
// Other values are returned unchanged.
func DecodeValue(v interface{}) (interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok || m["@type"] != CompositeType {
		return v, nil
	}
	typeName, _ := m["typeName"].(string)
	rawFields, _ := m["fields"].([]interface{})

	items := make([]mbean.CompositeItem, 0, len(rawFields))
	for _, raw := range rawFields {
		f, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("composite %s: malformed field %v", typeName, raw)
		}
		name, _ := f["name"].(string)
		tag, _ := f["type"].(string)
		leaf, err := mbean.ParseLeafType(tag)
		if err != nil {
			return nil, fmt.Errorf("composite %s: field %s: %w", typeName, name, err)
		}
		value := f["value"]
		if value != nil {
			coerced, err := accessor.Coerce(value, leafGoTypes[leaf])
			if err != nil {
				return nil, fmt.Errorf("composite %s: field %s: %w", typeName, name, err)
			}
			value = coerced.Interface()
		}
		items = append(items, mbean.CompositeItem{Name: name, Type: leaf, Value: value})
	}
	return mbean.NewCompositeData(typeName, items)
}
