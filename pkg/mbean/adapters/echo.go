// Package adapters carries the management endpoints on common HTTP
// frameworks.
package adapters

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/toyz/mbean/pkg/mbean/remote"
)

// EchoAdapter implements remote.WebServer for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with panic recovery
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return &EchoAdapter{engine: e}
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(method, path string, handler remote.HandlerFunc) {
	ea.engine.Add(method, path, func(c echo.Context) error {
		return handler(&EchoRequestContext{ctx: c})
	})
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	return ea.engine.Start(addr)
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.engine
}

// EchoRequestContext implements remote.RequestContext for Echo
type EchoRequestContext struct {
	ctx echo.Context
}

func (erc *EchoRequestContext) Context() context.Context {
	return erc.ctx.Request().Context()
}

func (erc *EchoRequestContext) Method() string {
	return erc.ctx.Request().Method
}

func (erc *EchoRequestContext) Path() string {
	return erc.ctx.Request().URL.Path
}

func (erc *EchoRequestContext) Header(key string) string {
	return erc.ctx.Request().Header.Get(key)
}

func (erc *EchoRequestContext) SetHeader(key, value string) {
	erc.ctx.Response().Header().Set(key, value)
}

func (erc *EchoRequestContext) QueryParam(key string) string {
	return erc.ctx.QueryParam(key)
}

func (erc *EchoRequestContext) Body() ([]byte, error) {
	return io.ReadAll(erc.ctx.Request().Body)
}

func (erc *EchoRequestContext) Blob(code int, contentType string, b []byte) error {
	return erc.ctx.Blob(code, contentType, b)
}
