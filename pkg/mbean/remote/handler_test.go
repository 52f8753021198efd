package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/pkg/mbean"
)

type cache struct {
	Hits  int            `mbean:"writable"`
	Limit int            `mbean:"writable"`
	Sizes map[string]int `mbean:""`

	_ mbean.Operation `mbean:"method=Scale"`
}

func (c *cache) Scale(n int64) int64 { return int64(c.Hits) * n }

const beanName = "app:type=Cache"

func newFixture(t *testing.T) (*Handler, *cache) {
	t.Helper()
	server := mbean.NewInMemoryServer()
	c := &cache{Hits: 2, Sizes: map[string]int{"a": 1}}
	_, err := mbean.ExposeAndRegister(c,
		mbean.WithServer(server),
		mbean.WithNames(mbean.NewNameRegistry()),
		mbean.WithName(beanName),
		mbean.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return NewHandler(server, zap.NewNop()), c
}

type fakeContext struct {
	method  string
	headers map[string]string
	query   map[string]string
	body    []byte

	status      int
	contentType string
	written     []byte
	respHeaders map[string]string
}

func newFakeContext(body string) *fakeContext {
	return &fakeContext{
		method:      http.MethodPost,
		headers:     map[string]string{},
		query:       map[string]string{},
		body:        []byte(body),
		respHeaders: map[string]string{},
	}
}

func (f *fakeContext) Context() context.Context { return context.Background() }
func (f *fakeContext) Method() string { return f.method }
func (f *fakeContext) Path() string { return "/mbean" }
func (f *fakeContext) Header(key string) string { return f.headers[key] }
func (f *fakeContext) SetHeader(key, value string) { f.respHeaders[key] = value }
func (f *fakeContext) QueryParam(key string) string { return f.query[key] }
func (f *fakeContext) Body() ([]byte, error) { return f.body, nil }

func (f *fakeContext) Blob(code int, contentType string, b []byte) error {
	f.status, f.contentType, f.written = code, contentType, b
	return nil
}

func (f *fakeContext) response(t *testing.T) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(f.written, &resp))
	return resp
}

func TestHandler_Execute(t *testing.T) {
	h, c := newFixture(t)

	v, err := h.Execute(&Request{Type: TypeRead, Bean: beanName, Attribute: "hits"})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = h.Execute(&Request{Type: TypeWrite, Bean: beanName, Attribute: "hits", Value: "5"})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Hits)

	v, err = h.Execute(&Request{Type: TypeReadMany, Bean: beanName, Attributes: []string{"hits", "limit"}})
	require.NoError(t, err)
	assert.Equal(t, []mbean.AttributeValue{{Name: "hits", Value: 5}, {Name: "limit", Value: 0}}, v)

	v, err = h.Execute(&Request{Type: TypeWriteMany, Bean: beanName, Values: []mbean.AttributeValue{{Name: "limit", Value: 10}}})
	require.NoError(t, err)
	assert.Equal(t, []mbean.AttributeValue{{Name: "limit", Value: 10}}, v)

	v, err = h.Execute(&Request{Type: TypeExec, Bean: beanName, Operation: "scale", Arguments: []interface{}{3}, Signature: []string{"long"}})
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)

	v, err = h.Execute(&Request{Type: TypeInfo, Bean: beanName})
	require.NoError(t, err)
	info, ok := v.(*mbean.BeanInfo)
	require.True(t, ok)
	assert.Equal(t, beanName, info.Name)

	v, err = h.Execute(&Request{Type: TypeList, Pattern: "app:*"})
	require.NoError(t, err)
	assert.Equal(t, []string{beanName}, v)

	v, err = h.Execute(&Request{Type: TypeRead, Bean: beanName, Attribute: "sizes"})
	require.NoError(t, err)
	wire, ok := v.(WireComposite)
	require.True(t, ok)
	assert.Equal(t, CompositeType, wire.Type)
	assert.Equal(t, []WireField{{Name: "a", Type: "integer", Value: 1}}, wire.Fields)
}

func TestHandler_ExecuteErrors(t *testing.T) {
	h, _ := newFixture(t)

	tests := []struct {
		name   string
		req    Request
		status int
	}{
		{"missing type", Request{Bean: beanName}, http.StatusBadRequest},
		{"unknown type", Request{Type: "delete", Bean: beanName}, http.StatusBadRequest},
		{"missing bean", Request{Type: TypeRead}, http.StatusBadRequest},
		{"unknown bean", Request{Type: TypeRead, Bean: "app:type=Missing", Attribute: "hits"}, http.StatusNotFound},
		{"unknown attribute", Request{Type: TypeRead, Bean: beanName, Attribute: "nope"}, http.StatusNotFound},
		{"not writable", Request{Type: TypeWrite, Bean: beanName, Attribute: "sizes", Value: 1}, http.StatusBadRequest},
		{"wrong signature", Request{Type: TypeExec, Bean: beanName, Operation: "scale", Signature: []string{"string"}}, http.StatusNotFound},
		{"bad argument", Request{Type: TypeExec, Bean: beanName, Operation: "scale", Arguments: []interface{}{"x"}, Signature: []string{"int64"}}, http.StatusInternalServerError},
		{"bad pattern", Request{Type: TypeList, Pattern: "nodomain"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(&tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.status, FromError(err).StatusCode)
		})
	}
}

func TestHandler_Serve(t *testing.T) {
	h, _ := newFixture(t)

	rc := newFakeContext(`{"type":"exec","bean":"app:type=Cache","operation":"scale","arguments":[3],"signature":["long"]}`)
	require.NoError(t, h.Serve(rc))

	assert.Equal(t, http.StatusOK, rc.status)
	assert.Equal(t, "application/json", rc.contentType)
	resp := rc.response(t)
	assert.Equal(t, float64(6), resp["value"])
	assert.Equal(t, float64(200), resp["status"])
	assert.NotEmpty(t, rc.respHeaders[RequestIDHeader])
	assert.Equal(t, rc.respHeaders[RequestIDHeader], resp["request_id"])
}

func TestHandler_ServeKeepsRequestID(t *testing.T) {
	h, _ := newFixture(t)

	rc := newFakeContext(`{"type":"read","bean":"app:type=Cache","attribute":"hits"}`)
	rc.headers[RequestIDHeader] = "req-1"
	require.NoError(t, h.Serve(rc))
	assert.Equal(t, "req-1", rc.respHeaders[RequestIDHeader])
	assert.Equal(t, "req-1", rc.response(t)["request_id"])
}

func TestHandler_ServeErrors(t *testing.T) {
	h, _ := newFixture(t)

	rc := newFakeContext(`{"type":"read","bean":"app:type=Cache","attribute":"nope"}`)
	require.NoError(t, h.Serve(rc))
	assert.Equal(t, http.StatusNotFound, rc.status)

	var resp Response
	require.NoError(t, json.Unmarshal(rc.written, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UnknownAttribute", resp.Error.Code)
	assert.Equal(t, "lookup", resp.Error.Kind)
	assert.Nil(t, resp.Value)
	assert.ErrorIs(t, resp.Error.Err(), mbean.ErrUnknownAttribute)

	rc = newFakeContext(`{not json`)
	require.NoError(t, h.Serve(rc))
	assert.Equal(t, http.StatusBadRequest, rc.status)
}

func TestHandler_ServeComposite(t *testing.T) {
	h, _ := newFixture(t)

	rc := newFakeContext(`{"type":"read","bean":"app:type=Cache","attribute":"sizes"}`)
	require.NoError(t, h.Serve(rc))

	value := rc.response(t)["value"]
	decoded, err := DecodeValue(value)
	require.NoError(t, err)
	cd, ok := decoded.(*mbean.CompositeData)
	require.True(t, ok)
	assert.Equal(t, "sizes", cd.TypeName)
	v, ok := cd.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestHandler_ServeList(t *testing.T) {
	h, _ := newFixture(t)

	rc := newFakeContext("")
	rc.method = http.MethodGet
	rc.query["pattern"] = "app:type=C*"
	require.NoError(t, h.ServeList(rc))
	assert.Equal(t, http.StatusOK, rc.status)
	assert.Equal(t, []interface{}{beanName}, rc.response(t)["value"])
}

func TestWireCodec(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cd, err := mbean.NewCompositeData("stats", []mbean.CompositeItem{
		{Name: "count", Type: mbean.LeafLong, Value: int64(7)},
		{Name: "ok", Type: mbean.LeafBoolean, Value: true},
		{Name: "ratio", Type: mbean.LeafFloat, Value: float32(0.5)},
		{Name: "since", Type: mbean.LeafDate, Value: when},
		{Name: "word", Type: mbean.LeafString, Value: nil},
	})
	require.NoError(t, err)

	b, err := json.Marshal(EncodeValue(cd))
	require.NoError(t, err)
	var generic interface{}
	require.NoError(t, json.Unmarshal(b, &generic))

	decoded, err := DecodeValue(generic)
	require.NoError(t, err)
	back := decoded.(*mbean.CompositeData)
	assert.Equal(t, cd.Items(), back.Items())

	plain, err := DecodeValue(map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": 1}, plain)

	_, err = DecodeValue(map[string]interface{}{"@type": "composite", "fields": []interface{}{
		map[string]interface{}{"name": "a", "type": "matrix", "value": 1},
	}})
	assert.Error(t, err)

	assert.Nil(t, EncodeValue((*mbean.CompositeData)(nil)))
	assert.Equal(t, 3, EncodeValue(3))
}

func TestHttpError(t *testing.T) {
	he := FromError(errors.OperationNotFound(beanName, "scale", "string"))
	assert.Equal(t, http.StatusNotFound, he.StatusCode)
	assert.Equal(t, "OperationNotFound", he.Code)
	assert.ErrorIs(t, he.Err(), mbean.ErrOperationNotFound)

	plain := FromError(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.StatusCode)
	assert.Empty(t, plain.Code)
	assert.Equal(t, errors.TransportCode, errors.CodeOf(plain.Err()))

	bad := ErrBadRequest("nope")
	assert.Same(t, bad, FromError(bad))
	assert.Equal(t, "HTTP 400: nope", bad.Error())
}

func TestHttpError_FromCollectedErrors(t *testing.T) {
	multi := errors.NewMultipleErrors()
	multi.Add(errors.NewValidationError("operation", "method", "exported method", "run"))

	he := FromError(multi.ErrOrNil())
	assert.Equal(t, http.StatusInternalServerError, he.StatusCode)
	assert.Equal(t, "MarkerValidation", he.Code)
	assert.Equal(t, "construction", he.Kind)
	details, ok := he.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "method", details["parameter"])
	assert.ErrorIs(t, he.Err(), mbean.ErrMarkerValidation)
}

type fakeWeb struct {
	routes   map[string]HandlerFunc
	startErr error

	once    sync.Once
	stopped chan struct{}
}

func newFakeWeb() *fakeWeb {
	return &fakeWeb{routes: map[string]HandlerFunc{}, stopped: make(chan struct{})}
}

func (f *fakeWeb) RegisterRoute(method, path string, handler HandlerFunc) {
	f.routes[method+" "+path] = handler
}

func (f *fakeWeb) Start(addr string) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeWeb) Stop(ctx context.Context) error {
	f.once.Do(func() { close(f.stopped) })
	return nil
}

func (f *fakeWeb) Name() string { return "fake" }

func TestMount(t *testing.T) {
	h, _ := newFixture(t)

	web := newFakeWeb()
	Mount(web, "mgmt/", h)
	assert.Contains(t, web.routes, "POST /mgmt")
	assert.Contains(t, web.routes, "GET /mgmt/list")

	root := newFakeWeb()
	Mount(root, "/", h)
	assert.Contains(t, root.routes, "POST /")
	assert.Contains(t, root.routes, "GET /list")
}

func TestServer_StartAndShutdown(t *testing.T) {
	h, _ := newFixture(t)
	web := newFakeWeb()
	srv := NewServer(&ServerConfig{Port: "0", Prefix: "/mbean", ShutdownTimeout: time.Second}, h, web)
	assert.Same(t, web, srv.WebServer())
	assert.Contains(t, web.routes, "POST /mbean")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartFailure(t *testing.T) {
	h, _ := newFixture(t)
	web := newFakeWeb()
	web.startErr = fmt.Errorf("address in use")
	srv := NewServer(nil, h, web)

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestDefaultServerConfig(t *testing.T) {
	t.Setenv("PORT", "9191")
	cfg := DefaultServerConfig()
	assert.Equal(t, "9191", cfg.Port)
	assert.Equal(t, "/mbean", cfg.Prefix)
	assert.Equal(t, ":9191", cfg.Addr())
}
