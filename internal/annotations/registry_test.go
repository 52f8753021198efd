package annotations

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(GetterMarker, GetterMarkerSchema))
	assert.True(t, r.IsRegistered(GetterMarker))
	assert.False(t, r.IsRegistered(SetterMarker))

	err := r.Register(GetterMarker, GetterMarkerSchema)
	assert.ErrorContains(t, err, "already registered")

	err = r.Register(SetterMarker, GetterMarkerSchema)
	assert.ErrorContains(t, err, "does not match")

	_, err = r.GetSchema(SetterMarker)
	assert.Error(t, err)
}

func TestRegistry_InvalidSchema(t *testing.T) {
	r := NewRegistry()

	err := r.Register(PropertyMarker, MarkerSchema{
		Type: PropertyMarker,
		Parameters: map[string]ParameterSpec{
			"readable": {Type: BoolType, DefaultValue: "yes"},
		},
	})
	assert.ErrorContains(t, err, "must be bool")

	err = r.Register(PropertyMarker, MarkerSchema{
		Type:       PropertyMarker,
		Parameters: map[string]ParameterSpec{"": {Type: StringType}},
	})
	assert.ErrorContains(t, err, "cannot be empty")
}

func TestDefaultRegistry_HasBuiltins(t *testing.T) {
	types := DefaultRegistry().ListTypes()
	assert.Equal(t, []MarkerType{PropertyMarker, GetterMarker, SetterMarker, OperationMarker, AttributeMarker}, types)

	for _, schema := range GetBuiltinSchemas() {
		assert.NotEmpty(t, schema.Examples, schema.Type.String())
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltinSchemas(r))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.GetSchema(OperationMarker)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestMarkerType_RoundTrip(t *testing.T) {
	for _, mt := range []MarkerType{PropertyMarker, GetterMarker, SetterMarker, OperationMarker, AttributeMarker} {
		parsed, err := ParseMarkerType(mt.String())
		require.NoError(t, err)
		assert.Equal(t, mt, parsed)
	}
	_, err := ParseMarkerType("route")
	assert.Error(t, err)
}

func TestConvertToBool(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    bool
		wantErr bool
	}{
		{true, true, false},
		{"on", true, false},
		{"NO", false, false},
		{1, true, false},
		{"maybe", false, true},
		{3.5, false, true},
	}
	for _, tt := range tests {
		got, err := ConvertToBool(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
