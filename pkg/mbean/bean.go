package mbean

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/accessor"
	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
	"github.com/toyz/mbean/internal/projection"
	"github.com/toyz/mbean/internal/resolver"
	"github.com/toyz/mbean/internal/scanner"
)

// State is the lifecycle state of a bean
type State int32

const (
	// StateNew is the state after construction and after a failed Register
	StateNew State = iota
	// StateRegistered means the bean is published and dispatch is allowed
	StateRegistered
	// StateUnregistered is terminal
	StateUnregistered
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRegistered:
		return "registered"
	case StateUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// Bean is an exposed value. Its properties and operations are fixed at
// construction; reads, writes and invocations go straight to the value and
// are safe for concurrent use as far as the value's own methods are.
type Bean struct {
	name   string
	target interface{}
	info   BeanInfo

	props      map[string]*models.Property
	propOrder  []string
	ops        map[string]*models.Operation
	operations map[string]bool

	server Server
	logger *zap.Logger

	lifecycle sync.Mutex
	state     atomic.Int32
}

var _ DynamicBean = (*Bean)(nil)

// Expose builds a bean for target, a non-nil pointer to a struct. The bean
// name is reserved right away, but the bean is only reachable through a
// Server after Register.
func Expose(target interface{}, opts ...Option) (*Bean, error) {
	c := newConfig(opts)

	v := reflect.ValueOf(target)
	if err := scanner.CheckTarget(v); err != nil {
		return nil, err
	}
	tm, err := c.provider.Members(v)
	if err != nil {
		return nil, err
	}
	res, err := resolver.Resolve(tm)
	if err != nil {
		return nil, err
	}
	if err := projection.Mark(res.Properties); err != nil {
		return nil, err
	}
	if err := accessor.Synthesize(res.Properties); err != nil {
		return nil, err
	}
	projection.Attach(res.Properties, c.logger)
	accessor.BindOperations(res.Scanned)

	base := c.name
	if base == "" {
		base = BaseName(v.Type())
	}
	name := c.names.Reserve(base)

	b := &Bean{
		name:       name,
		target:     target,
		props:      make(map[string]*models.Property, len(res.Properties)),
		ops:        make(map[string]*models.Operation, len(res.Operations)),
		operations: make(map[string]bool),
		server:     c.server,
		logger:     c.logger.With(zap.String("bean", name)),
	}
	for _, p := range res.Properties {
		b.props[p.Name] = p
		b.propOrder = append(b.propOrder, p.Name)
	}
	for _, op := range res.Operations {
		b.ops[op.Key()] = op
		b.operations[op.Name] = true
	}
	b.info = models.NewInfoBuilder(name, v.Type().Elem().String()).
		WithDescription(c.description).
		WithProperties(res.Properties...).
		WithOperations(res.Scanned...).
		Build()

	b.logger.Debug("bean exposed",
		zap.Int("attributes", len(b.propOrder)),
		zap.Int("operations", len(res.Operations)))
	return b, nil
}

// ExposeAndRegister exposes target and registers the bean
func ExposeAndRegister(target interface{}, opts ...Option) (*Bean, error) {
	b, err := Expose(target, opts...)
	if err != nil {
		return nil, err
	}
	if err := b.Register(); err != nil {
		return nil, err
	}
	return b, nil
}

// ExposeAndRegisterSilently is ExposeAndRegister for callers that cannot
// handle errors: failures are logged and nil is returned.
func ExposeAndRegisterSilently(target interface{}, opts ...Option) *Bean {
	b, err := ExposeAndRegister(target, opts...)
	if err != nil {
		logExposeFailure(target, opts, err)
		return nil
	}
	return b
}

// ExposeSilently is Expose with failures logged and nil returned
func ExposeSilently(target interface{}, opts ...Option) *Bean {
	b, err := Expose(target, opts...)
	if err != nil {
		logExposeFailure(target, opts, err)
		return nil
	}
	return b
}

func logExposeFailure(target interface{}, opts []Option, err error) {
	newConfig(opts).logger.Error("exposing bean failed",
		zap.String("type", fmt.Sprintf("%T", target)),
		zap.Error(err))
}

// Name returns the unique object name of the bean
func (b *Bean) Name() string { return b.name }

// Target returns the exposed value
func (b *Bean) Target() interface{} { return b.target }

// State returns the lifecycle state
func (b *Bean) State() State { return State(b.state.Load()) }

// Info returns the descriptor. It is available in every state.
func (b *Bean) Info() *BeanInfo {
	info := b.info
	info.Attributes = append([]AttributeInfo(nil), b.info.Attributes...)
	info.Operations = append([]OperationInfo(nil), b.info.Operations...)
	return &info
}

// Register publishes the bean on its server. On failure the bean stays New
// and Register may be retried.
func (b *Bean) Register() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if s := b.State(); s != StateNew {
		return errors.Newf(errors.AlreadyRegisteredCode, "bean %s is %s", b.name, s).
			WithContext("bean", b.name)
	}
	if err := b.server.RegisterBean(b.name, b); err != nil {
		b.logger.Debug("register failed", zap.Error(err))
		return err
	}
	b.state.Store(int32(StateRegistered))
	b.logger.Debug("bean registered")
	return nil
}

// Unregister removes the bean from its server. An unregistered bean cannot
// be registered again.
func (b *Bean) Unregister() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if s := b.State(); s != StateRegistered {
		return errors.NotRegistered(b.name, s.String())
	}
	if err := b.server.UnregisterBean(b.name); err != nil {
		return err
	}
	b.state.Store(int32(StateUnregistered))
	b.logger.Debug("bean unregistered")
	return nil
}

func (b *Bean) checkRegistered() error {
	if s := b.State(); s != StateRegistered {
		return errors.NotRegistered(b.name, s.String())
	}
	return nil
}

// GetAttribute reads one attribute. Map-backed attributes read as
// *CompositeData, or nil when empty.
func (b *Bean) GetAttribute(name string) (interface{}, error) {
	if err := b.checkRegistered(); err != nil {
		return nil, err
	}
	p, ok := b.props[name]
	if !ok {
		return nil, errors.UnknownAttribute(b.name, name)
	}
	if !p.Readable || p.Get == nil {
		return nil, errors.NotReadable(b.name, name)
	}
	v, err := p.Get()
	if err != nil {
		b.logger.Debug("get failed", zap.String("attribute", name), zap.Error(err))
		return nil, err
	}
	return v, nil
}

// GetAttributes reads names in order and stops at the first failure
func (b *Bean) GetAttributes(names []string) ([]AttributeValue, error) {
	values := make([]AttributeValue, 0, len(names))
	for _, name := range names {
		v, err := b.GetAttribute(name)
		if err != nil {
			return nil, err
		}
		values = append(values, AttributeValue{Name: name, Value: v})
	}
	return values, nil
}

// SetAttribute writes one attribute. Textual values are parsed into the
// attribute type.
func (b *Bean) SetAttribute(name string, value interface{}) error {
	if err := b.checkRegistered(); err != nil {
		return err
	}
	p, ok := b.props[name]
	if !ok {
		return errors.UnknownAttribute(b.name, name)
	}
	if !p.Writable || p.Set == nil {
		return errors.NotWritable(b.name, name)
	}
	if err := p.Set(value); err != nil {
		b.logger.Debug("set failed", zap.String("attribute", name), zap.Error(err))
		return err
	}
	return nil
}

// SetAttributes writes values in order and stops at the first failure.
// Writes already applied are kept. On success the written attributes that
// can be read are read back; write-only attributes and failed reads are left
// out of the result.
func (b *Bean) SetAttributes(values []AttributeValue) ([]AttributeValue, error) {
	for _, av := range values {
		if err := b.SetAttribute(av.Name, av.Value); err != nil {
			return nil, err
		}
	}
	written := make([]AttributeValue, 0, len(values))
	for _, av := range values {
		if p := b.props[av.Name]; !p.Readable || p.Get == nil {
			continue
		}
		v, err := b.GetAttribute(av.Name)
		if err != nil {
			continue
		}
		written = append(written, AttributeValue{Name: av.Name, Value: v})
	}
	return written, nil
}

// Invoke runs the operation matching name and signature. Signature entries
// are Go type identifiers as reported by Info; common management aliases
// such as "long" or "boolean" are accepted too.
func (b *Bean) Invoke(name string, args []interface{}, signature []string) (interface{}, error) {
	if err := b.checkRegistered(); err != nil {
		return nil, err
	}
	sig := make([]string, len(signature))
	for i, t := range signature {
		sig[i] = accessor.ResolveTypeAlias(strings.TrimSpace(t))
	}
	op, ok := b.ops[models.OperationKey(name, sig)]
	if !ok {
		err := errors.OperationNotFound(b.name, name, models.JoinSignature(sig))
		if b.operations[name] {
			err = err.WithSuggestion("check the signature; " + name + " has other overloads")
		}
		return nil, err
	}
	result, err := op.Invoke(args)
	if err != nil {
		b.logger.Debug("invoke failed", zap.String("operation", op.Key()), zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Attributes returns the attribute names in descriptor order
func (b *Bean) Attributes() []string {
	return append([]string(nil), b.propOrder...)
}
