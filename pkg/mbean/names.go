package mbean

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// NameSeparator joins a base name and its counter
const NameSeparator = "-"

// NameRegistry hands out unique bean names. The first reservation of a base
// returns it unchanged; later ones append an increasing counter. Counters are
// never released, so a name is not handed out twice in one process even
// after its bean is unregistered.
type NameRegistry struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewNameRegistry creates an empty name registry
func NewNameRegistry() *NameRegistry {
	return &NameRegistry{counters: make(map[string]int64)}
}

// Reserve returns a name derived from base that was not returned before
func (r *NameRegistry) Reserve(base string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, used := r.counters[base]
	if !used {
		r.counters[base] = 0
		return base
	}
	n++
	r.counters[base] = n
	suffix := NameSeparator + strconv.FormatInt(n, 10)
	// a quoted last value takes the counter inside its quotes
	if len(base) > 1 && strings.HasSuffix(base, `"`) {
		return base[:len(base)-1] + suffix + `"`
	}
	return base + suffix
}

var defaultNames = NewNameRegistry()

// DefaultNames returns the process-wide name registry
func DefaultNames() *NameRegistry {
	return defaultNames
}

// BaseName returns the name used for beans of type t exposed without an
// explicit name: "<package path>:type=<type name>".
func BaseName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	domain := t.PkgPath()
	if domain == "" {
		domain = "default"
	}
	return domain + ":type=" + t.Name()
}
