package resolver

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
)

type parentType struct{}
type childType struct{}
type strangerType struct{}

var (
	tParent   = reflect.TypeOf(parentType{})
	tChild    = reflect.TypeOf(childType{})
	tStranger = reflect.TypeOf(strangerType{})
)

func field(identifier string, declaring reflect.Type, tag models.PropertyTag) models.FieldMember {
	v := 0
	return models.FieldMember{
		Identifier:    identifier,
		DeclaringType: declaring,
		Type:          reflect.TypeOf(v),
		Value:         reflect.ValueOf(&v).Elem(),
		Tag:           tag,
	}
}

func method(kind models.MemberKind, identifier, name string, fn interface{}) models.MethodMember {
	return models.MethodMember{
		Kind:          kind,
		Identifier:    identifier,
		Name:          name,
		DeclaringType: tChild,
		Func:          reflect.ValueOf(fn),
	}
}

func readable() models.PropertyTag { return models.PropertyTag{Readable: true} }
func writable() models.PropertyTag { return models.PropertyTag{Readable: true, Writable: true} }

func members(fields ...models.FieldMember) *models.TypeMembers {
	h := models.NewHierarchy()
	h.Embed(tChild, tParent)
	return &models.TypeMembers{Type: tChild, Fields: fields, Hierarchy: h}
}

func TestNaming(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{GetterName, "GetHits", "hits"},
		{GetterName, "IsEnabled", "enabled"},
		{GetterName, "Issues", "issues"},
		{GetterName, "Get", "get"},
		{GetterName, "Getaway", "getaway"},
		{GetterName, "Current", "current"},
		{GetterName, "GetURL", "uRL"},
		{SetterName, "SetLimit", "limit"},
		{SetterName, "Settle", "settle"},
		{SetterName, "Set", "set"},
		{LowerFirst, "PrimitiveCnt", "primitiveCnt"},
		{LowerFirst, "", ""},
		{LowerFirst, "Ärger", "ärger"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.fn(tt.in), tt.in)
	}
}

func TestResolve_FieldsAndAccessors(t *testing.T) {
	tm := members(
		field("Hits", tChild, writable()),
		field("Misses", tChild, models.PropertyTag{Name: "missCount", Readable: true, Description: "misses"}),
	)
	tm.Getters = []models.MethodMember{method(models.GetterKind, "GetHits", "", func() int { return 1 })}
	tm.Setters = []models.MethodMember{method(models.SetterKind, "SetHits", "", func(int) {})}
	tm.PropertyMethods = []models.MethodMember{method(models.PropertyMethodKind, "Ratio", "", func() float64 { return 0 })}

	res, err := Resolve(tm)
	require.NoError(t, err)
	require.Len(t, res.Properties, 3)

	hits := res.Properties[0]
	assert.Equal(t, "hits", hits.Name)
	assert.Equal(t, "int", hits.Type)
	assert.NotNil(t, hits.GetterMethod)
	assert.NotNil(t, hits.SetterMethod)
	assert.True(t, hits.Writable)

	misses := res.Properties[1]
	assert.Equal(t, "missCount", misses.Name)
	assert.Equal(t, "misses", misses.Description)
	assert.Nil(t, misses.GetterMethod)

	ratio := res.Properties[2]
	assert.Equal(t, "ratio", ratio.Name)
	assert.Equal(t, "float64", ratio.Type)
	assert.True(t, ratio.Readable)
	assert.False(t, ratio.Writable)
	assert.Nil(t, ratio.Field)
}

func TestResolve_AccessorDroppedWhenFlagOff(t *testing.T) {
	tm := members(field("Hits", tChild, readable()))
	tm.Setters = []models.MethodMember{method(models.SetterKind, "SetHits", "", func(int) {})}

	res, err := Resolve(tm)
	require.NoError(t, err)
	assert.Nil(t, res.Properties[0].SetterMethod)
	assert.False(t, res.Properties[0].Writable)
}

func TestResolve_AncestorDuplicateKeepsOutermost(t *testing.T) {
	tm := members(
		field("Hits", tChild, models.PropertyTag{Readable: true, Description: "child"}),
		field("Hits", tParent, models.PropertyTag{Readable: true, Description: "parent"}),
	)

	res, err := Resolve(tm)
	require.NoError(t, err)
	require.Len(t, res.Properties, 1)
	assert.Equal(t, "child", res.Properties[0].Description)
	assert.Equal(t, tChild, res.Properties[0].DeclaringType)
}

func TestResolve_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		tm   func() *models.TypeMembers
		code errors.ErrorCode
	}{
		{
			name: "duplicate field in one type",
			tm: func() *models.TypeMembers {
				return members(field("Hits", tChild, readable()), field("Other", tChild, models.PropertyTag{Name: "hits", Readable: true}))
			},
			code: errors.DuplicatePropertyCode,
		},
		{
			name: "duplicate across unrelated types",
			tm: func() *models.TypeMembers {
				return members(field("Hits", tChild, readable()), field("Hits", tStranger, readable()))
			},
			code: errors.DuplicatePropertyCode,
		},
		{
			name: "duplicate getter",
			tm: func() *models.TypeMembers {
				tm := members(field("Hits", tChild, readable()))
				tm.Getters = []models.MethodMember{
					method(models.GetterKind, "GetHits", "", func() int { return 0 }),
					method(models.GetterKind, "Current", "hits", func() int { return 0 }),
				}
				return tm
			},
			code: errors.DuplicatePropertyCode,
		},
		{
			name: "duplicate setter",
			tm: func() *models.TypeMembers {
				tm := members(field("Hits", tChild, writable()))
				tm.Setters = []models.MethodMember{
					method(models.SetterKind, "SetHits", "", func(int) {}),
					method(models.SetterKind, "Reset", "hits", func(int) {}),
				}
				return tm
			},
			code: errors.DuplicatePropertyCode,
		},
		{
			name: "property method collides with field",
			tm: func() *models.TypeMembers {
				tm := members(field("Hits", tChild, readable()))
				tm.PropertyMethods = []models.MethodMember{method(models.PropertyMethodKind, "Hits", "", func() int { return 0 })}
				return tm
			},
			code: errors.DuplicatePropertyCode,
		},
		{
			name: "orphaned setter",
			tm: func() *models.TypeMembers {
				tm := members(field("Hits", tChild, writable()))
				tm.Setters = []models.MethodMember{method(models.SetterKind, "SetHtis", "", func(int) {})}
				return tm
			},
			code: errors.OrphanedAccessorCode,
		},
		{
			name: "orphaned getter",
			tm: func() *models.TypeMembers {
				tm := members()
				tm.Getters = []models.MethodMember{method(models.GetterKind, "GetHits", "", func() int { return 0 })}
				return tm
			},
			code: errors.OrphanedAccessorCode,
		},
		{
			name: "neither readable nor writable",
			tm: func() *models.TypeMembers {
				return members(field("Hits", tChild, models.PropertyTag{}))
			},
			code: errors.InaccessiblePropertyCode,
		},
		{
			name: "getter with arguments",
			tm: func() *models.TypeMembers {
				tm := members(field("Hits", tChild, readable()))
				tm.Getters = []models.MethodMember{method(models.GetterKind, "GetHits", "", func(int) int { return 0 })}
				return tm
			},
			code: errors.MetadataAccessCode,
		},
		{
			name: "setter returning a value",
			tm: func() *models.TypeMembers {
				tm := members(field("Hits", tChild, writable()))
				tm.Setters = []models.MethodMember{method(models.SetterKind, "SetHits", "", func(int) int { return 0 })}
				return tm
			},
			code: errors.MetadataAccessCode,
		},
		{
			name: "variadic operation",
			tm: func() *models.TypeMembers {
				tm := members()
				tm.Operations = []models.MethodMember{method(models.OperationKind, "Sum", "", func(...int) int { return 0 })}
				return tm
			},
			code: errors.MetadataAccessCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.tm())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, errors.CodeOf(err), err.Error())
			assert.Equal(t, errors.ConstructionKind, errors.CodeOf(err).Kind())
		})
	}
}

func TestResolve_Operations(t *testing.T) {
	tm := members()
	tm.Operations = []models.MethodMember{
		method(models.OperationKind, "Add", "", func(int) int { return 1 }),
		method(models.OperationKind, "AddPair", "add", func(int, int) int { return 2 }),
		method(models.OperationKind, "Flush", "", func() error { return nil }),
		method(models.OperationKind, "AddAgain", "add", func(int) int { return 3 }),
	}

	res, err := Resolve(tm)
	require.NoError(t, err)
	require.Len(t, res.Operations, 3, "identical name and signature collapse")
	require.Len(t, res.Scanned, 4)
	for i, identifier := range []string{"Add", "AddPair", "Flush", "AddAgain"} {
		assert.Equal(t, identifier, res.Scanned[i].Method.Identifier)
	}

	op, ok := res.Operation("add", []string{"int"})
	require.True(t, ok)
	assert.Equal(t, "AddAgain", op.Method.Identifier, "last definition wins")
	assert.Equal(t, "int", op.ReturnType)

	op, ok = res.Operation("add", []string{"int", "int"})
	require.True(t, ok)
	assert.Equal(t, "AddPair", op.Method.Identifier)

	op, ok = res.Operation("flush", nil)
	require.True(t, ok)
	assert.Equal(t, "void", op.ReturnType)

	_, ok = res.Operation("add", []string{"string"})
	assert.False(t, ok)
}
