package adapters

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/toyz/mbean/pkg/mbean/remote"
)

// GinAdapter implements remote.WebServer for the Gin framework. Gin has no
// shutdown of its own, so the engine is served through an http.Server.
type GinAdapter struct {
	engine *gin.Engine

	mu     sync.Mutex
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with panic recovery
func NewDefaultGinAdapter() *GinAdapter {
	g := gin.New()
	g.Use(gin.Recovery())
	return &GinAdapter{engine: g}
}

// RegisterRoute registers a route with the Gin server
func (ga *GinAdapter) RegisterRoute(method, path string, handler remote.HandlerFunc) {
	ga.engine.Handle(method, path, func(c *gin.Context) {
		if err := handler(&GinRequestContext{ctx: c}); err != nil {
			_ = c.Error(err)
		}
	})
}

// Start starts the Gin server
func (ga *GinAdapter) Start(addr string) error {
	ga.mu.Lock()
	ga.server = &http.Server{Addr: addr, Handler: ga.engine}
	srv := ga.server
	ga.mu.Unlock()
	return srv.ListenAndServe()
}

// Stop stops the Gin server
func (ga *GinAdapter) Stop(ctx context.Context) error {
	ga.mu.Lock()
	srv := ga.server
	ga.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

// GinRequestContext implements remote.RequestContext for Gin
type GinRequestContext struct {
	ctx *gin.Context
}

func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

func (grc *GinRequestContext) Path() string {
	return grc.ctx.Request.URL.Path
}

func (grc *GinRequestContext) Header(key string) string {
	return grc.ctx.GetHeader(key)
}

func (grc *GinRequestContext) SetHeader(key, value string) {
	grc.ctx.Header(key, value)
}

func (grc *GinRequestContext) QueryParam(key string) string {
	return grc.ctx.Query(key)
}

func (grc *GinRequestContext) Body() ([]byte, error) {
	return io.ReadAll(grc.ctx.Request.Body)
}

func (grc *GinRequestContext) Blob(code int, contentType string, b []byte) error {
	grc.ctx.Data(code, contentType, b)
	return nil
}
