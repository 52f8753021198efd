package models

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct{}
type middle struct{ inner }
type outer struct{ middle }
type sibling struct{}

func TestHierarchy(t *testing.T) {
	h := NewHierarchy()
	tOuter, tMiddle, tInner := reflect.TypeOf(outer{}), reflect.TypeOf(middle{}), reflect.TypeOf(inner{})
	h.Embed(tOuter, tMiddle)
	h.Embed(tMiddle, tInner)
	h.Embed(tMiddle, tInner)

	assert.True(t, h.IsAncestor(tMiddle, tOuter))
	assert.True(t, h.IsAncestor(tInner, tOuter))
	assert.False(t, h.IsAncestor(tOuter, tInner))
	assert.False(t, h.IsAncestor(tOuter, tOuter))
	assert.True(t, h.Related(tOuter, tInner))
	assert.False(t, h.Related(tOuter, reflect.TypeOf(sibling{})))

	var nilHierarchy *Hierarchy
	assert.False(t, nilHierarchy.Related(tOuter, tInner))
}

func TestMarkerKindOf(t *testing.T) {
	assert.Equal(t, GetterKind, MarkerKindOf(reflect.TypeOf(GetterMarker{})))
	assert.Equal(t, SetterKind, MarkerKindOf(reflect.TypeOf(SetterMarker{})))
	assert.Equal(t, OperationKind, MarkerKindOf(reflect.TypeOf(OperationMarker{})))
	assert.Equal(t, PropertyMethodKind, MarkerKindOf(reflect.TypeOf(AttributeMarker{})))
	assert.Equal(t, FieldKind, MarkerKindOf(reflect.TypeOf(0)))
}

func TestCompositeData(t *testing.T) {
	cd, err := NewCompositeData("hits", []CompositeItem{
		{Name: "b", Type: LeafLong, Value: int64(2)},
		{Name: "a", Type: LeafInteger, Value: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, cd.Keys())
	assert.Equal(t, 2, cd.Len())

	item, ok := cd.Item("a")
	require.True(t, ok)
	assert.Equal(t, LeafInteger, item.Type)
	assert.Equal(t, 1, item.Value)

	_, ok = cd.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": int64(2)}, cd.Map())

	_, err = NewCompositeData("dup", []CompositeItem{{Name: "x"}, {Name: "x"}})
	assert.Error(t, err)
}

func TestLeafType_RoundTrip(t *testing.T) {
	for l := LeafString; l <= LeafDate; l++ {
		parsed, err := ParseLeafType(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	_, err := ParseLeafType("matrix")
	assert.Error(t, err)
}

func TestSignatureHelpers(t *testing.T) {
	assert.Equal(t, "add(int,string)", OperationKey("add", []string{"int", "string"}))
	assert.Equal(t, "reset()", OperationKey("reset", nil))
	assert.Equal(t, []string{"int", "string"}, SplitSignature(" int , string"))
	assert.Nil(t, SplitSignature(""))
}

func TestInfoBuilder(t *testing.T) {
	props := []*Property{
		{Name: "hits", Type: "int64", Readable: true},
		{Name: "enabled", Type: "bool", Readable: true, Writable: true,
			Field: &FieldMember{Type: reflect.TypeOf(true)}},
	}
	ops := []*Operation{{Name: "flush", Signature: []string{"bool"}, ReturnType: "int"}}

	info := NewInfoBuilder("app:type=Cache", "app.Cache").
		WithDescription("").
		WithProperties(props...).
		WithOperations(ops...).
		Build()

	assert.Equal(t, DefaultDescription, info.Description)
	require.Len(t, info.Attributes, 2)
	assert.True(t, info.Attributes[1].IsIs)
	require.Len(t, info.Operations, 1)
	assert.Equal(t, []ParameterInfo{{Name: "p1", Type: "bool"}}, info.Operations[0].Parameters)
	assert.Equal(t, []string{"bool"}, info.Operations[0].Signature())

	attr, ok := info.Attribute("hits")
	require.True(t, ok)
	assert.Equal(t, "int64", attr.Type)
}
