package mbean

import (
	"sort"
	"sync"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/objectname"
	"github.com/toyz/mbean/internal/utils"
)

// DynamicBean is the dispatch surface a Server publishes
type DynamicBean interface {
	// Name returns the unique object name of the bean
	Name() string

	// Info returns the descriptor of the bean
	Info() *BeanInfo

	// GetAttribute reads one attribute
	GetAttribute(name string) (interface{}, error)

	// GetAttributes reads several attributes, stopping at the first failure
	GetAttributes(names []string) ([]AttributeValue, error)

	// SetAttribute writes one attribute
	SetAttribute(name string, value interface{}) error

	// SetAttributes writes several attributes in order and returns the
	// values read back afterwards
	SetAttributes(values []AttributeValue) ([]AttributeValue, error)

	// Invoke runs the operation selected by name and signature
	Invoke(name string, args []interface{}, signature []string) (interface{}, error)
}

// Server is a registry of published beans
type Server interface {
	// RegisterBean publishes bean under name
	RegisterBean(name string, bean DynamicBean) error

	// UnregisterBean removes the bean published under name
	UnregisterBean(name string) error

	// Lookup returns the bean published under name
	Lookup(name string) (DynamicBean, bool)

	// Names returns the sorted names matching pattern; empty matches all
	Names(pattern string) ([]string, error)
}

type entry struct {
	name *objectname.Name
	bean DynamicBean
}

// InMemoryServer keeps published beans in memory, keyed by canonical name
type InMemoryServer struct {
	beans *utils.BaseRegistry[string, entry]
}

// NewInMemoryServer creates an empty server
func NewInMemoryServer() *InMemoryServer {
	beans := utils.NewBaseRegistry[string, entry]("bean", "bean name")
	beans.SetValidator(func(key string, _ entry, existing map[string]entry) error {
		if _, exists := existing[key]; exists {
			return errors.AlreadyRegistered(key)
		}
		return nil
	})
	return &InMemoryServer{beans: beans}
}

// RegisterBean validates name and publishes bean under it
func (s *InMemoryServer) RegisterBean(name string, bean DynamicBean) error {
	n, err := objectname.Parse(name)
	if err != nil {
		return err
	}
	return s.beans.Register(n.Canonical(), entry{name: n, bean: bean})
}

// UnregisterBean removes the bean published under name
func (s *InMemoryServer) UnregisterBean(name string) error {
	n, err := objectname.Parse(name)
	if err != nil {
		return err
	}
	if !s.beans.Delete(n.Canonical()) {
		return errors.BeanNotFound(name)
	}
	return nil
}

// Lookup returns the bean published under name
func (s *InMemoryServer) Lookup(name string) (DynamicBean, bool) {
	n, err := objectname.Parse(name)
	if err != nil {
		return nil, false
	}
	e, ok := s.beans.Get(n.Canonical())
	return e.bean, ok
}

// Names returns the names of published beans matching pattern
func (s *InMemoryServer) Names(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*:*"
	}
	p, err := objectname.ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	matched := s.beans.Filter(func(_ string, e entry) bool {
		return p.Matches(e.name)
	})
	names := make([]string, 0, len(matched))
	for _, e := range matched {
		names = append(names, e.bean.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Len returns the number of published beans
func (s *InMemoryServer) Len() int {
	return s.beans.Size()
}

var (
	defaultServerMu sync.RWMutex
	defaultServer   Server = NewInMemoryServer()
)

// DefaultServer returns the process-wide server used by beans exposed
// without WithServer
func DefaultServer() Server {
	defaultServerMu.RLock()
	defer defaultServerMu.RUnlock()
	return defaultServer
}

// SetDefaultServer replaces the process-wide server. Beans already exposed
// keep the server they were created with. A nil server restores a fresh
// in-memory one.
func SetDefaultServer(s Server) {
	if s == nil {
		s = NewInMemoryServer()
	}
	defaultServerMu.Lock()
	defer defaultServerMu.Unlock()
	defaultServer = s
}
