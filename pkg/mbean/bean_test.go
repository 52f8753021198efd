package mbean

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	uatomic "go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toyz/mbean/internal/errors"
)

type parent struct {
	Version string `mbean:"description='build version'"`
}

type monitored struct {
	parent

	Primitive int            `mbean:"writable,description='plain counter'"`
	counter   atomic.Int64   `mbean:"writable"`
	requests  atomic.Int32   `mbean:""`
	enabled   uatomic.Bool   `mbean:"writable"`
	Names     map[string]int `mbean:""`
	secret    string         `mbean:"readable=false,writable"`
	started   time.Time

	_ Attribute `mbean:"method=Uptime"`
	_ Operation `mbean:"method=Add,description='sum two numbers'"`
	_ Operation `mbean:"method=AddAll,name=add"`
	_ Operation `mbean:"method=Fail"`
}

func (m *monitored) Uptime() time.Duration { return time.Since(m.started) }
func (m *monitored) Add(a, b int) int { return a + b }

func (m *monitored) AddAll(values []int) int {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum
}

func (m *monitored) Fail() error { return fmt.Errorf("storage offline") }

type hidden struct {
	value int `mbean:"readable=false"`
}

type isolated struct {
	server *InMemoryServer
	names  *NameRegistry
}

func newIsolated() *isolated {
	return &isolated{server: NewInMemoryServer(), names: NewNameRegistry()}
}

func (i *isolated) opts(extra ...Option) []Option {
	return append([]Option{WithServer(i.server), WithNames(i.names), WithLogger(zap.NewNop())}, extra...)
}

func registered(t *testing.T, target interface{}, extra ...Option) *Bean {
	t.Helper()
	b, err := ExposeAndRegister(target, newIsolated().opts(extra...)...)
	require.NoError(t, err)
	return b
}

func TestExpose_AttributesMatchResolvedNames(t *testing.T) {
	b := registered(t, &monitored{})

	info := b.Info()
	names := make([]string, len(info.Attributes))
	for i, a := range info.Attributes {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"primitive", "counter", "requests", "enabled", "names", "secret", "version", "uptime"}, names)
	assert.Equal(t, names, b.Attributes())

	primitive, ok := info.Attribute("primitive")
	require.True(t, ok)
	assert.Equal(t, AttributeInfo{Name: "primitive", Type: "int", Description: "plain counter", Readable: true, Writable: true}, primitive)

	counter, _ := info.Attribute("counter")
	assert.Equal(t, "int64", counter.Type)
	requests, _ := info.Attribute("requests")
	assert.Equal(t, AttributeInfo{Name: "requests", Type: "int32", Readable: true}, requests, "read-only atomics report the boxed type")
	names2, _ := info.Attribute("names")
	assert.Equal(t, "composite", names2.Type)
	assert.False(t, names2.Writable)
	version, _ := info.Attribute("version")
	assert.Equal(t, "build version", version.Description)

	assert.Equal(t, DefaultDescription, info.Description)
	assert.Equal(t, "mbean.monitored", info.ClassName)
	require.Len(t, info.Operations, 3)
	assert.Equal(t, []string{"int", "int"}, info.Operations[0].Signature())
	assert.Equal(t, "int", info.Operations[0].ReturnType)
	assert.Equal(t, []string{"[]int"}, info.Operations[1].Signature())
	assert.Equal(t, "void", info.Operations[2].ReturnType)
}

func TestSetAttribute_TextIntoInt(t *testing.T) {
	m := &monitored{}
	b := registered(t, m)

	require.NoError(t, b.SetAttribute("primitive", "42"))
	v, err := b.GetAttribute("primitive")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, m.Primitive)
}

func TestGetAttribute_AtomicReadsPlainValue(t *testing.T) {
	m := &monitored{}
	m.requests.Store(5)
	b := registered(t, m)

	m.requests.Add(1)
	v, err := b.GetAttribute("requests")
	require.NoError(t, err)
	assert.Equal(t, int32(6), v)
}

func TestSetAttribute_AtomicLong(t *testing.T) {
	m := &monitored{}
	b := registered(t, m)

	require.NoError(t, b.SetAttribute("counter", 100))
	v, err := b.GetAttribute("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)

	require.NoError(t, b.SetAttribute("enabled", "true"))
	assert.True(t, m.enabled.Load())
}

func TestGetAttribute_CompositeMap(t *testing.T) {
	m := &monitored{}
	b := registered(t, m)

	v, err := b.GetAttribute("names")
	require.NoError(t, err)
	assert.Nil(t, v)

	m.Names = map[string]int{"a": 1}
	v, err = b.GetAttribute("names")
	require.NoError(t, err)
	cd, ok := v.(*CompositeData)
	require.True(t, ok)
	assert.Equal(t, "names", cd.TypeName)
	item, ok := cd.Item("a")
	require.True(t, ok)
	assert.Equal(t, LeafInteger, item.Type)
	assert.Equal(t, 1, item.Value)

	err = b.SetAttribute("names", map[string]int{})
	assert.ErrorIs(t, err, ErrNotWritable)
}

func TestNames_UniquePerBase(t *testing.T) {
	iso := newIsolated()
	base := BaseName(reflect.TypeOf(&monitored{}))
	assert.Equal(t, "github.com/toyz/mbean/pkg/mbean:type=monitored", base)

	first, err := ExposeAndRegister(&monitored{}, iso.opts()...)
	require.NoError(t, err)
	second, err := ExposeAndRegister(&monitored{}, iso.opts()...)
	require.NoError(t, err)
	assert.Equal(t, base, first.Name())
	assert.Equal(t, base+"-1", second.Name())

	require.NoError(t, second.Unregister())
	third, err := ExposeAndRegister(&monitored{}, iso.opts()...)
	require.NoError(t, err)
	assert.Equal(t, base+"-2", third.Name())

	names, err := iso.server.Names("")
	require.NoError(t, err)
	assert.Equal(t, []string{base, base + "-2"}, names)
}

func TestNames_QuotedExplicitName(t *testing.T) {
	iso := newIsolated()
	const name = `app:type="cache"`

	first, err := ExposeAndRegister(&monitored{}, iso.opts(WithName(name))...)
	require.NoError(t, err)
	second, err := ExposeAndRegister(&monitored{}, iso.opts(WithName(name))...)
	require.NoError(t, err)
	assert.Equal(t, name, first.Name())
	assert.Equal(t, `app:type="cache-1"`, second.Name())
	assert.Equal(t, 2, iso.server.Len())
}

func TestNameRegistry_Concurrent(t *testing.T) {
	r := NewNameRegistry()
	const n = 50

	var wg sync.WaitGroup
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.Reserve("app:type=X")
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for name := range results {
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["app:type=X"])
	assert.True(t, seen["app:type=X-49"])
}

func TestInvoke(t *testing.T) {
	b := registered(t, &monitored{})

	out, err := b.Invoke("add", []interface{}{1, "2"}, []string{"int", "int"})
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	out, err = b.Invoke("add", []interface{}{1, 2}, []string{"integer", "integer"})
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	out, err = b.Invoke("add", []interface{}{[]int{1, 2, 3}}, []string{"[]int"})
	require.NoError(t, err)
	assert.Equal(t, 6, out)

	_, err = b.Invoke("add", []interface{}{"x"}, []string{"string"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOperationNotFound)
	assert.NotErrorIs(t, err, ErrUnknownAttribute)

	_, err = b.Invoke("missing", nil, nil)
	assert.ErrorIs(t, err, ErrOperationNotFound)

	_, err = b.Invoke("fail", nil, nil)
	assert.ErrorIs(t, err, ErrInvocation)
	assert.Contains(t, err.Error(), "storage offline")

	_, err = b.Invoke("add", []interface{}{"one", 2}, []string{"int", "int"})
	assert.ErrorIs(t, err, ErrInvocation)
}

func TestLookupErrors(t *testing.T) {
	b := registered(t, &monitored{})

	_, err := b.GetAttribute("nope")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindLookup, kind)

	_, err = b.GetAttribute("secret")
	assert.ErrorIs(t, err, ErrNotReadable)

	require.NoError(t, b.SetAttribute("secret", "s3cr3t"))
	assert.ErrorIs(t, b.SetAttribute("version", "2"), ErrNotWritable)
	assert.ErrorIs(t, b.SetAttribute("nope", 1), ErrUnknownAttribute)
	assert.ErrorIs(t, b.SetAttribute("primitive", "many"), ErrInvocation)
}

func TestKindOf_CollectedErrors(t *testing.T) {
	multi := errors.NewMultipleErrors()
	multi.Add(errors.DuplicateProperty("field", "hits"))
	multi.Add(errors.OrphanedAccessor("setter", "misses"))

	kind, ok := KindOf(fmt.Errorf("expose: %w", multi))
	assert.True(t, ok)
	assert.Equal(t, KindConstruction, kind)

	_, ok = KindOf(fmt.Errorf("boom"))
	assert.False(t, ok)
}

func TestBulkAttributes(t *testing.T) {
	m := &monitored{parent: parent{Version: "1.0"}}
	b := registered(t, m)

	values, err := b.GetAttributes([]string{"primitive", "version"})
	require.NoError(t, err)
	assert.Equal(t, []AttributeValue{{Name: "primitive", Value: 0}, {Name: "version", Value: "1.0"}}, values)

	_, err = b.GetAttributes([]string{"primitive", "nope"})
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	values, err = b.SetAttributes([]AttributeValue{{Name: "primitive", Value: "7"}, {Name: "counter", Value: 9}})
	require.NoError(t, err)
	assert.Equal(t, []AttributeValue{{Name: "primitive", Value: 7}, {Name: "counter", Value: int64(9)}}, values)

	values, err = b.SetAttributes([]AttributeValue{{Name: "primitive", Value: "3"}, {Name: "secret", Value: "y"}})
	require.NoError(t, err)
	assert.Equal(t, []AttributeValue{{Name: "primitive", Value: 3}}, values)
	assert.Equal(t, "y", m.secret)

	// earlier writes stay applied when a later one fails
	_, err = b.SetAttributes([]AttributeValue{{Name: "primitive", Value: 8}, {Name: "version", Value: "2"}})
	assert.ErrorIs(t, err, ErrNotWritable)
	assert.Equal(t, 8, m.Primitive)
}

func TestExpose_ConstructionFailures(t *testing.T) {
	iso := newIsolated()

	b, err := Expose(&hidden{}, iso.opts()...)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrInaccessibleProperty)
	kind, _ := KindOf(err)
	assert.Equal(t, KindConstruction, kind)

	_, err = Expose(plain{}, iso.opts()...)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = Expose(nil, iso.opts()...)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	assert.Equal(t, 0, iso.server.Len())
}

func TestLifecycle(t *testing.T) {
	iso := newIsolated()
	b, err := Expose(&monitored{}, iso.opts()...)
	require.NoError(t, err)
	assert.Equal(t, StateNew, b.State())

	_, err = b.GetAttribute("primitive")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.ErrorIs(t, b.SetAttribute("primitive", 1), ErrNotRegistered)
	_, err = b.Invoke("add", []interface{}{1, 2}, []string{"int", "int"})
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.NotNil(t, b.Info())
	assert.ErrorIs(t, b.Unregister(), ErrNotRegistered)

	require.NoError(t, b.Register())
	assert.Equal(t, StateRegistered, b.State())
	assert.Error(t, b.Register())

	found, ok := iso.server.Lookup(b.Name())
	require.True(t, ok)
	assert.Same(t, b, found)

	require.NoError(t, b.Unregister())
	assert.Equal(t, StateUnregistered, b.State())
	_, err = b.GetAttribute("primitive")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Error(t, b.Register())
	assert.NotNil(t, b.Info())

	_, ok = iso.server.Lookup(b.Name())
	assert.False(t, ok)
}

func TestRegister_FailureKeepsBeanNew(t *testing.T) {
	server := NewInMemoryServer()

	first, err := ExposeAndRegister(&monitored{}, WithServer(server), WithNames(NewNameRegistry()), WithName("app:type=Shared"))
	require.NoError(t, err)
	assert.Equal(t, "app:type=Shared", first.Name())

	second, err := Expose(&monitored{}, WithServer(server), WithNames(NewNameRegistry()), WithName("app:type=Shared"))
	require.NoError(t, err)
	err = second.Register()
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, StateNew, second.State())

	require.NoError(t, first.Unregister())
	require.NoError(t, second.Register())

	malformed, err := Expose(&monitored{}, WithServer(server), WithNames(NewNameRegistry()), WithName("no-domain"))
	require.NoError(t, err)
	err = malformed.Register()
	assert.ErrorIs(t, err, ErrInvalidName)
	kind, _ := KindOf(err)
	assert.Equal(t, KindRegistration, kind)
	assert.Equal(t, StateNew, malformed.State())
}

func TestExposeAndRegisterSilently(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	iso := newIsolated()

	b := ExposeAndRegisterSilently(&hidden{}, WithServer(iso.server), WithNames(iso.names), WithLogger(zap.New(core)))
	assert.Nil(t, b)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "exposing bean failed", entry.Message)
	assert.Equal(t, "*mbean.hidden", entry.ContextMap()["type"])

	b = ExposeAndRegisterSilently(&monitored{}, WithServer(iso.server), WithNames(iso.names), WithLogger(zap.New(core)))
	require.NotNil(t, b)
	assert.Equal(t, StateRegistered, b.State())

	assert.Nil(t, ExposeSilently(&hidden{}, WithLogger(zap.New(core))))
	assert.Equal(t, 2, logs.Len())
}

func TestDefaultServer(t *testing.T) {
	custom := NewInMemoryServer()
	SetDefaultServer(custom)
	defer SetDefaultServer(nil)

	b, err := ExposeAndRegister(&monitored{}, WithNames(NewNameRegistry()), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	_, ok := custom.Lookup(b.Name())
	assert.True(t, ok)

	SetDefaultServer(nil)
	assert.NotSame(t, custom, DefaultServer())
}

func TestWithDescription(t *testing.T) {
	b := registered(t, &monitored{}, WithDescription("cache stats"))
	assert.Equal(t, "cache stats", b.Info().Description)
}

func TestConcurrentDispatch(t *testing.T) {
	m := &monitored{}
	b := registered(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.SetAttribute("counter", i))
			_, err := b.GetAttribute("counter")
			assert.NoError(t, err)
			_, err = b.Invoke("add", []interface{}{i, i}, []string{"int", "int"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Members(target reflect.Value) (*TypeMembers, error) {
	args := m.Called(target)
	tm, _ := args.Get(0).(*TypeMembers)
	return tm, args.Error(1)
}

type plain struct {
	N int
}

func TestWithProvider(t *testing.T) {
	target := &plain{N: 3}
	pt := reflect.TypeOf(plain{})
	provider := &mockProvider{}
	provider.On("Members", mock.Anything).Return(&TypeMembers{
		Type: pt,
		Fields: []FieldMember{{
			Identifier:    "N",
			DeclaringType: pt,
			Type:          reflect.TypeOf(0),
			Value:         reflect.ValueOf(target).Elem().Field(0),
			Tag:           PropertyTag{Name: "count", Readable: true, Writable: true},
		}},
		Hierarchy: NewHierarchy(),
	}, nil).Once()

	b := registered(t, target, WithProvider(provider))
	provider.AssertExpectations(t)

	require.NoError(t, b.SetAttribute("count", "11"))
	assert.Equal(t, 11, target.N)

	failing := &mockProvider{}
	failing.On("Members", mock.Anything).Return(nil, ErrMetadataAccess).Once()
	_, err := Expose(&plain{}, newIsolated().opts(WithProvider(failing))...)
	assert.ErrorIs(t, err, ErrMetadataAccess)
	failing.AssertExpectations(t)
}

func TestTableProvider(t *testing.T) {
	table := NewTableProvider()
	target := &plain{N: 1}
	pt := reflect.TypeOf(plain{})
	require.NoError(t, table.Seed(pt, &TypeMembers{
		Fields: []FieldMember{{
			Identifier:    "N",
			DeclaringType: pt,
			Type:          reflect.TypeOf(0),
			Value:         reflect.ValueOf(target).Elem().Field(0),
			Tag:           PropertyTag{Readable: true},
		}},
	}))

	b := registered(t, target, WithProvider(table))
	v, err := b.GetAttribute("n")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
