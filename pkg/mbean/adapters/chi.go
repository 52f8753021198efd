package adapters

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/toyz/mbean/pkg/mbean/remote"
)

// ChiAdapter implements remote.WebServer for chi routers
type ChiAdapter struct {
	router chi.Router

	mu     sync.Mutex
	server *http.Server
}

// NewChiAdapter creates a new chi adapter
func NewChiAdapter(r chi.Router) *ChiAdapter {
	return &ChiAdapter{router: r}
}

// NewDefaultChiAdapter creates a new chi adapter with panic recovery
func NewDefaultChiAdapter() *ChiAdapter {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return &ChiAdapter{router: r}
}

// RegisterRoute registers a route with the router
func (ca *ChiAdapter) RegisterRoute(method, path string, handler remote.HandlerFunc) {
	ca.router.Method(method, path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler(&HTTPRequestContext{w: w, r: r}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
}

// Start starts the server
func (ca *ChiAdapter) Start(addr string) error {
	ca.mu.Lock()
	ca.server = &http.Server{Addr: addr, Handler: ca.router}
	srv := ca.server
	ca.mu.Unlock()
	return srv.ListenAndServe()
}

// Stop stops the server
func (ca *ChiAdapter) Stop(ctx context.Context) error {
	ca.mu.Lock()
	srv := ca.server
	ca.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Name returns the adapter name
func (ca *ChiAdapter) Name() string {
	return "Chi"
}

// GetRouter returns the underlying router
func (ca *ChiAdapter) GetRouter() chi.Router {
	return ca.router
}

// HTTPRequestContext implements remote.RequestContext over net/http
type HTTPRequestContext struct {
	w http.ResponseWriter
	r *http.Request
}

func (hrc *HTTPRequestContext) Context() context.Context {
	return hrc.r.Context()
}

func (hrc *HTTPRequestContext) Method() string {
	return hrc.r.Method
}

func (hrc *HTTPRequestContext) Path() string {
	return hrc.r.URL.Path
}

func (hrc *HTTPRequestContext) Header(key string) string {
	return hrc.r.Header.Get(key)
}

func (hrc *HTTPRequestContext) SetHeader(key, value string) {
	hrc.w.Header().Set(key, value)
}

func (hrc *HTTPRequestContext) QueryParam(key string) string {
	return hrc.r.URL.Query().Get(key)
}

func (hrc *HTTPRequestContext) Body() ([]byte, error) {
	return io.ReadAll(hrc.r.Body)
}

func (hrc *HTTPRequestContext) Blob(code int, contentType string, b []byte) error {
	hrc.w.Header().Set("Content-Type", contentType)
	hrc.w.WriteHeader(code)
	_, err := hrc.w.Write(b)
	return err
}
