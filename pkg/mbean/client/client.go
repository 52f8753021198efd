// Package client talks to a management endpoint served by pkg/mbean/remote.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/pkg/mbean"
	"github.com/toyz/mbean/pkg/mbean/remote"
)

// DefaultTimeout bounds every request unless WithHTTPClient or WithTimeout
// says otherwise
const DefaultTimeout = 10 * time.Second

// truncateForError shortens response bodies quoted in error messages
func truncateForError(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}

// Client is a synchronous management client
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the endpoint a remote.Server mounts, such as
// http://localhost:8080/mbean
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = mbean.Logger()
	}
	return c
}

// Endpoint returns the management endpoint URL
func (c *Client) Endpoint() string { return c.endpoint }

type response struct {
	RequestID string            `json:"request_id"`
	Status    int               `json:"status"`
	Value     json.RawMessage   `json:"value,omitempty"`
	Error     *remote.HttpError `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, req *remote.Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WrapTransportError(c.endpoint, fmt.Errorf("encoding request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	id := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(remote.RequestIDHeader, id)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransportError(c.endpoint, fmt.Errorf("reading response: %w", err))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.WrapTransportError(c.endpoint,
			fmt.Errorf("status %d: malformed response: %s", resp.StatusCode, truncateForError(raw)))
	}
	c.logger.Debug("management call",
		zap.String("request_id", id),
		zap.String("type", req.Type),
		zap.String("bean", req.Bean),
		zap.Int("status", out.Status))

	if out.Error != nil {
		return nil, out.Error.Err()
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.WrapTransportError(c.endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncateForError(raw)))
	}
	return out.Value, nil
}

// decodeValue decodes a raw attribute or result value. Integral numbers come
// back as int64, other numbers as float64 and composites as
// *mbean.CompositeData.
func decodeValue(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	decoded, err := remote.DecodeValue(v)
	if err != nil {
		return nil, err
	}
	if cd, ok := decoded.(*mbean.CompositeData); ok {
		return cd, nil
	}
	return normalize(v), nil
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []interface{}:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	case map[string]interface{}:
		for k := range val {
			val[k] = normalize(val[k])
		}
		return val
	default:
		return v
	}
}

// Names lists the registered bean names matching pattern; an empty pattern
// lists every bean
func (c *Client) Names(ctx context.Context, pattern string) ([]string, error) {
	raw, err := c.do(ctx, &remote.Request{Type: remote.TypeList, Pattern: pattern})
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	return names, nil
}

// Info returns the descriptor of bean
func (c *Client) Info(ctx context.Context, bean string) (*mbean.BeanInfo, error) {
	raw, err := c.do(ctx, &remote.Request{Type: remote.TypeInfo, Bean: bean})
	if err != nil {
		return nil, err
	}
	var info mbean.BeanInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	return &info, nil
}

// GetAttribute reads one attribute
func (c *Client) GetAttribute(ctx context.Context, bean, attribute string) (interface{}, error) {
	raw, err := c.do(ctx, &remote.Request{Type: remote.TypeRead, Bean: bean, Attribute: attribute})
	if err != nil {
		return nil, err
	}
	v, err := decodeValue(raw)
	if err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	return v, nil
}

type rawAttribute struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func (c *Client) attributeValues(raw json.RawMessage) ([]mbean.AttributeValue, error) {
	var items []rawAttribute
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	values := make([]mbean.AttributeValue, 0, len(items))
	for _, item := range items {
		v, err := decodeValue(item.Value)
		if err != nil {
			return nil, errors.WrapTransportError(c.endpoint, fmt.Errorf("attribute %s: %w", item.Name, err))
		}
		values = append(values, mbean.AttributeValue{Name: item.Name, Value: v})
	}
	return values, nil
}

// GetAttributes reads several attributes of one bean
func (c *Client) GetAttributes(ctx context.Context, bean string, attributes ...string) ([]mbean.AttributeValue, error) {
	raw, err := c.do(ctx, &remote.Request{Type: remote.TypeReadMany, Bean: bean, Attributes: attributes})
	if err != nil {
		return nil, err
	}
	return c.attributeValues(raw)
}

// SetAttribute writes one attribute. Strings are parsed by the bean into the
// attribute type.
func (c *Client) SetAttribute(ctx context.Context, bean, attribute string, value interface{}) error {
	_, err := c.do(ctx, &remote.Request{Type: remote.TypeWrite, Bean: bean, Attribute: attribute, Value: value})
	return err
}

// SetAttributes writes several attributes and returns them as read back
func (c *Client) SetAttributes(ctx context.Context, bean string, values []mbean.AttributeValue) ([]mbean.AttributeValue, error) {
	raw, err := c.do(ctx, &remote.Request{Type: remote.TypeWriteMany, Bean: bean, Values: values})
	if err != nil {
		return nil, err
	}
	return c.attributeValues(raw)
}

// Invoke runs an operation with an explicit signature
func (c *Client) Invoke(ctx context.Context, bean, operation string, args []interface{}, signature []string) (interface{}, error) {
	raw, err := c.do(ctx, &remote.Request{
		Type:      remote.TypeExec,
		Bean:      bean,
		Operation: operation,
		Arguments: args,
		Signature: signature,
	})
	if err != nil {
		return nil, err
	}
	v, err := decodeValue(raw)
	if err != nil {
		return nil, errors.WrapTransportError(c.endpoint, err)
	}
	return v, nil
}

// InvokeSmart runs an operation whose signature is the Go types of args
func (c *Client) InvokeSmart(ctx context.Context, bean, operation string, args ...interface{}) (interface{}, error) {
	signature, err := SignatureOf(args...)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, bean, operation, args, signature)
}

// SignatureOf returns the type identifiers of args. Nil arguments have no
// type and are rejected.
func SignatureOf(args ...interface{}) ([]string, error) {
	signature := make([]string, len(args))
	for i, arg := range args {
		if arg == nil {
			return nil, errors.Newf(errors.InvocationCode,
				"argument %d is nil, its type cannot be derived", i+1).
				WithSuggestion("use Invoke with an explicit signature")
		}
		signature[i] = reflect.TypeOf(arg).String()
	}
	return signature, nil
}
