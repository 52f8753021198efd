package client

import (
	"context"
	"sync"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/pkg/mbean"
)

// DefaultWorkers bounds concurrent calls of an AsyncClient
const DefaultWorkers = 4

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New(errors.TransportCode, "async client is closed")

// Result is the outcome of one asynchronous call
type Result[T any] struct {
	Value T
	Err   error
}

// AsyncClient runs Client calls in the background. Every call returns a
// channel that receives exactly one Result and is then closed.
type AsyncClient struct {
	client    *Client
	semaphore chan struct{}

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync wraps c; at most workers calls run at the same time
func NewAsync(c *Client, workers int) *AsyncClient {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &AsyncClient{
		client:    c,
		semaphore: make(chan struct{}, workers),
	}
}

// Client returns the wrapped synchronous client
func (a *AsyncClient) Client() *Client { return a.client }

func submit[T any](ctx context.Context, a *AsyncClient, call func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)

	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		out <- Result[T]{Err: ErrClosed}
		close(out)
		return out
	}
	a.wg.Add(1)
	a.mu.RUnlock()

	go func() {
		defer a.wg.Done()
		defer close(out)

		select {
		case a.semaphore <- struct{}{}:
		case <-ctx.Done():
			out <- Result[T]{Err: errors.WrapTransportError(a.client.endpoint, ctx.Err())}
			return
		}
		defer func() { <-a.semaphore }()

		v, err := call(ctx)
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}

// Close rejects new calls and waits for the ones in flight
func (a *AsyncClient) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}

// Names is the asynchronous Client.Names
func (a *AsyncClient) Names(ctx context.Context, pattern string) <-chan Result[[]string] {
	return submit(ctx, a, func(ctx context.Context) ([]string, error) {
		return a.client.Names(ctx, pattern)
	})
}

// Info is the asynchronous Client.Info
func (a *AsyncClient) Info(ctx context.Context, bean string) <-chan Result[*mbean.BeanInfo] {
	return submit(ctx, a, func(ctx context.Context) (*mbean.BeanInfo, error) {
		return a.client.Info(ctx, bean)
	})
}

// GetAttribute is the asynchronous Client.GetAttribute
func (a *AsyncClient) GetAttribute(ctx context.Context, bean, attribute string) <-chan Result[interface{}] {
	return submit(ctx, a, func(ctx context.Context) (interface{}, error) {
		return a.client.GetAttribute(ctx, bean, attribute)
	})
}

// GetAttributes is the asynchronous Client.GetAttributes
func (a *AsyncClient) GetAttributes(ctx context.Context, bean string, attributes ...string) <-chan Result[[]mbean.AttributeValue] {
	return submit(ctx, a, func(ctx context.Context) ([]mbean.AttributeValue, error) {
		return a.client.GetAttributes(ctx, bean, attributes...)
	})
}

// SetAttribute is the asynchronous Client.SetAttribute
func (a *AsyncClient) SetAttribute(ctx context.Context, bean, attribute string, value interface{}) <-chan Result[struct{}] {
	return submit(ctx, a, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.client.SetAttribute(ctx, bean, attribute, value)
	})
}

// SetAttributes is the asynchronous Client.SetAttributes
func (a *AsyncClient) SetAttributes(ctx context.Context, bean string, values []mbean.AttributeValue) <-chan Result[[]mbean.AttributeValue] {
	return submit(ctx, a, func(ctx context.Context) ([]mbean.AttributeValue, error) {
		return a.client.SetAttributes(ctx, bean, values)
	})
}

// Invoke is the asynchronous Client.Invoke
func (a *AsyncClient) Invoke(ctx context.Context, bean, operation string, args []interface{}, signature []string) <-chan Result[interface{}] {
	return submit(ctx, a, func(ctx context.Context) (interface{}, error) {
		return a.client.Invoke(ctx, bean, operation, args, signature)
	})
}

// InvokeSmart is the asynchronous Client.InvokeSmart
func (a *AsyncClient) InvokeSmart(ctx context.Context, bean, operation string, args ...interface{}) <-chan Result[interface{}] {
	return submit(ctx, a, func(ctx context.Context) (interface{}, error) {
		return a.client.InvokeSmart(ctx, bean, operation, args...)
	})
}
