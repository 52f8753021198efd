package mbean

import (
	"sync"

	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/scanner"
)

type config struct {
	name        string
	description string
	server      Server
	names       *NameRegistry
	logger      *zap.Logger
	provider    MetadataProvider
}

// Option configures Expose
type Option func(*config)

// WithName sets the base object name; it is still made unique
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithDescription sets the bean description
func WithDescription(description string) Option {
	return func(c *config) { c.description = description }
}

// WithServer publishes the bean on s instead of DefaultServer
func WithServer(s Server) Option {
	return func(c *config) { c.server = s }
}

// WithNames reserves the bean name from r instead of DefaultNames
func WithNames(r *NameRegistry) Option {
	return func(c *config) { c.names = r }
}

// WithLogger sets the logger of the bean
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithProvider reads metadata from p instead of struct tags
func WithProvider(p MetadataProvider) Option {
	return func(c *config) { c.provider = p }
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.server == nil {
		c.server = DefaultServer()
	}
	if c.names == nil {
		c.names = DefaultNames()
	}
	if c.logger == nil {
		c.logger = Logger()
	}
	if c.provider == nil {
		c.provider = scanner.Default
	}
	return c
}

var (
	loggerMu sync.RWMutex
	logger   *zap.Logger
)

// SetLogger sets the logger used by beans exposed without WithLogger. A nil
// logger falls back to zap's global logger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the package logger
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return zap.L()
	}
	return logger
}
