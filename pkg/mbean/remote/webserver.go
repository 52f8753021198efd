package remote

import "context"

// WebServer is the contract adapters implement to carry the management
// endpoints on a particular HTTP framework
type WebServer interface {
	// RegisterRoute registers handler for method and path
	RegisterRoute(method, path string, handler HandlerFunc)

	// Start listens on addr and blocks until the server stops
	Start(addr string) error

	// Stop shuts the server down gracefully
	Stop(ctx context.Context) error

	// Name returns the framework name
	Name() string
}

// RequestContext is the framework-agnostic view of one HTTP exchange
type RequestContext interface {
	// Context returns the request context
	Context() context.Context

	Method() string
	Path() string

	// Header returns a request header
	Header(key string) string

	// SetHeader sets a response header
	SetHeader(key, value string)

	// QueryParam returns a query string parameter
	QueryParam(key string) string

	// Body returns the raw request body
	Body() ([]byte, error)

	// Blob writes the response
	Blob(code int, contentType string, b []byte) error
}

// HandlerFunc handles one exchange
type HandlerFunc func(RequestContext) error
