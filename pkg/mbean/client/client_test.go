package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/pkg/mbean"
	"github.com/toyz/mbean/pkg/mbean/adapters"
	"github.com/toyz/mbean/pkg/mbean/remote"
)

const storeName = "app:type=Store"

type store struct {
	mu sync.Mutex

	Capacity int            `mbean:"writable"`
	Used     int64          `mbean:"writable"`
	Ratio    float64        `mbean:""`
	Tags     map[string]int `mbean:""`

	inflight atomic.Int32
	peak     atomic.Int32

	_ mbean.Operation `mbean:"method=Grow"`
	_ mbean.Operation `mbean:"method=Label"`
	_ mbean.Operation `mbean:"method=Slow"`
}

func (s *store) Grow(by int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Capacity += by
	return s.Capacity
}

func (s *store) Label(name string, n int64) string { return fmt.Sprintf("%s-%d", name, n) }

func (s *store) Slow() int32 {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return n
}

func newTestClient(t *testing.T) (*Client, *store) {
	t.Helper()
	server := mbean.NewInMemoryServer()
	s := &store{Capacity: 10, Ratio: 0.25, Tags: map[string]int{"hot": 3}}
	_, err := mbean.ExposeAndRegister(s,
		mbean.WithServer(server),
		mbean.WithNames(mbean.NewNameRegistry()),
		mbean.WithName(storeName),
		mbean.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	web := adapters.NewDefaultChiAdapter()
	remote.Mount(web, "/mbean", remote.NewHandler(server, zap.NewNop()))
	ts := httptest.NewServer(web.GetRouter())
	t.Cleanup(ts.Close)

	return New(ts.URL+"/mbean/", WithLogger(zap.NewNop())), s
}

func TestClient_Attributes(t *testing.T) {
	c, s := newTestClient(t)
	ctx := context.Background()
	assert.True(t, strings.HasSuffix(c.Endpoint(), "/mbean"))

	v, err := c.GetAttribute(ctx, storeName, "capacity")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	v, err = c.GetAttribute(ctx, storeName, "ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	require.NoError(t, c.SetAttribute(ctx, storeName, "capacity", "42"))
	assert.Equal(t, 42, s.Capacity)

	values, err := c.SetAttributes(ctx, storeName, []mbean.AttributeValue{
		{Name: "capacity", Value: 7},
		{Name: "used", Value: "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []mbean.AttributeValue{
		{Name: "capacity", Value: int64(7)},
		{Name: "used", Value: int64(3)},
	}, values)

	values, err = c.GetAttributes(ctx, storeName, "used", "tags")
	require.NoError(t, err)
	require.Len(t, values, 2)
	cd, ok := values[1].Value.(*mbean.CompositeData)
	require.True(t, ok)
	hot, ok := cd.Item("hot")
	require.True(t, ok)
	assert.Equal(t, mbean.LeafInteger, hot.Type)
	assert.Equal(t, 3, hot.Value)
}

func TestClient_NamesAndInfo(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	names, err := c.Names(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{storeName}, names)

	names, err = c.Names(ctx, "other:*")
	require.NoError(t, err)
	assert.Empty(t, names)

	info, err := c.Info(ctx, storeName)
	require.NoError(t, err)
	assert.Equal(t, storeName, info.Name)
	assert.Len(t, info.Attributes, 4)
	assert.Len(t, info.Operations, 3)
}

func TestClient_Invoke(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	v, err := c.Invoke(ctx, storeName, "grow", []interface{}{5}, []string{"integer"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)

	v, err = c.InvokeSmart(ctx, storeName, "grow", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(16), v)

	v, err = c.InvokeSmart(ctx, storeName, "label", "disk", int64(2))
	require.NoError(t, err)
	assert.Equal(t, "disk-2", v)

	_, err = c.InvokeSmart(ctx, storeName, "grow", "1")
	assert.ErrorIs(t, err, mbean.ErrOperationNotFound)

	_, err = c.InvokeSmart(ctx, storeName, "grow", nil)
	assert.ErrorIs(t, err, mbean.ErrInvocation)
}

func TestClient_Errors(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.GetAttribute(ctx, storeName, "missing")
	assert.ErrorIs(t, err, mbean.ErrUnknownAttribute)
	kind, ok := mbean.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, mbean.KindLookup, kind)

	err = c.SetAttribute(ctx, storeName, "ratio", 1)
	assert.ErrorIs(t, err, mbean.ErrNotWritable)

	_, err = c.Info(ctx, "app:type=Gone")
	assert.ErrorIs(t, err, mbean.ErrBeanNotFound)
}

func TestClient_TransportErrors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer bad.Close()

	_, err := New(bad.URL).GetAttribute(context.Background(), storeName, "capacity")
	require.Error(t, err)
	assert.Equal(t, errors.TransportCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "upstream down")

	gone := httptest.NewServer(http.NotFoundHandler())
	url := gone.URL
	gone.Close()
	_, err = New(url, WithTimeout(time.Second)).Names(context.Background(), "")
	assert.Equal(t, errors.TransportCode, errors.CodeOf(err))
}

func TestSignatureOf(t *testing.T) {
	sig, err := SignatureOf(1, int64(2), "x", true, 1.5, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"int", "int64", "string", "bool", "float64", "time.Duration"}, sig)

	sig, err = SignatureOf()
	require.NoError(t, err)
	assert.Empty(t, sig)
}

func TestAsyncClient(t *testing.T) {
	c, _ := newTestClient(t)
	a := NewAsync(c, 2)
	ctx := context.Background()

	names := <-a.Names(ctx, "")
	require.NoError(t, names.Err)
	assert.Equal(t, []string{storeName}, names.Value)

	set := <-a.SetAttribute(ctx, storeName, "used", 9)
	require.NoError(t, set.Err)

	got := <-a.GetAttribute(ctx, storeName, "used")
	require.NoError(t, got.Err)
	assert.Equal(t, int64(9), got.Value)

	info := <-a.Info(ctx, storeName)
	require.NoError(t, info.Err)
	assert.Equal(t, storeName, info.Value.Name)

	label := <-a.InvokeSmart(ctx, storeName, "label", "a", int64(1))
	require.NoError(t, label.Err)
	assert.Equal(t, "a-1", label.Value)

	missing := <-a.GetAttribute(ctx, storeName, "missing")
	assert.ErrorIs(t, missing.Err, mbean.ErrUnknownAttribute)

	a.Close()
	closed := <-a.Names(ctx, "")
	assert.ErrorIs(t, closed.Err, ErrClosed)
}

func TestAsyncClient_BoundsConcurrency(t *testing.T) {
	c, s := newTestClient(t)
	a := NewAsync(c, 2)
	ctx := context.Background()

	var results []<-chan Result[interface{}]
	for i := 0; i < 6; i++ {
		results = append(results, a.Invoke(ctx, storeName, "slow", nil, nil))
	}
	a.Close()

	for _, ch := range results {
		select {
		case r := <-ch:
			require.NoError(t, r.Err)
		default:
			t.Fatal("Close returned before every call finished")
		}
		_, open := <-ch
		assert.False(t, open)
	}
	assert.LessOrEqual(t, s.peak.Load(), int32(2))
	assert.Equal(t, int32(0), s.inflight.Load())
}

func TestAsyncClient_CanceledContext(t *testing.T) {
	c, _ := newTestClient(t)
	a := NewAsync(c, 1)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := <-a.GetAttribute(ctx, storeName, "capacity")
	require.Error(t, r.Err)
	assert.Equal(t, errors.TransportCode, errors.CodeOf(r.Err))
}
