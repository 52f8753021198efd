// Package runtimebean exposes Go runtime statistics as a ready-made bean.
package runtimebean

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/toyz/mbean/pkg/mbean"
)

// Name is the object name the runtime bean registers under by default
const Name = "go.runtime:type=Runtime"

// Runtime reports process statistics. Each read samples the runtime, so
// values are current but not consistent with each other.
type Runtime struct {
	GoVersion string    `mbean:"description='Go version the binary was built with'"`
	NumCPU    int       `mbean:"description='logical CPUs usable by the process'"`
	StartTime time.Time `mbean:"description='time the bean was created'"`

	mu        sync.Mutex
	gcPercent int `mbean:"writable,description='garbage collection target percentage'"`

	_ mbean.Attribute `mbean:"method=Goroutines,description='live goroutines'"`
	_ mbean.Attribute `mbean:"method=HeapAlloc,description='bytes of allocated heap objects'"`
	_ mbean.Attribute `mbean:"method=NumGC,description='completed GC cycles'"`
	_ mbean.Attribute `mbean:"method=Uptime,description='time since StartTime'"`
	_ mbean.Attribute `mbean:"method=MemStats,description='selected runtime.MemStats counters'"`
	_ mbean.Getter    `mbean:"method=GetGCPercent,name=gcPercent"`
	_ mbean.Setter    `mbean:"method=SetGCPercent,name=gcPercent"`
	_ mbean.Operation `mbean:"method=GC,name=gc,description='run a garbage collection'"`
	_ mbean.Operation `mbean:"method=FreeOSMemory,description='return as much memory as possible to the OS'"`
}

// New samples the static runtime facts
func New() *Runtime {
	percent := debug.SetGCPercent(100)
	debug.SetGCPercent(percent)
	return &Runtime{
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
		StartTime: time.Now(),
		gcPercent: percent,
	}
}

// Expose creates and registers a runtime bean. Without mbean.WithName it
// registers as Name.
func Expose(opts ...mbean.Option) (*mbean.Bean, error) {
	opts = append([]mbean.Option{
		mbean.WithName(Name),
		mbean.WithDescription("Go runtime statistics"),
	}, opts...)
	return mbean.ExposeAndRegister(New(), opts...)
}

func (r *Runtime) Goroutines() int { return runtime.NumGoroutine() }

func (r *Runtime) HeapAlloc() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc)
}

func (r *Runtime) NumGC() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.NumGC)
}

func (r *Runtime) Uptime() time.Duration { return time.Since(r.StartTime) }

// MemStats returns a subset of runtime.MemStats keyed by lower camel case
// field name
func (r *Runtime) MemStats() map[string]int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return map[string]int64{
		"alloc":        int64(ms.Alloc),
		"totalAlloc":   int64(ms.TotalAlloc),
		"sys":          int64(ms.Sys),
		"mallocs":      int64(ms.Mallocs),
		"frees":        int64(ms.Frees),
		"heapAlloc":    int64(ms.HeapAlloc),
		"heapSys":      int64(ms.HeapSys),
		"heapIdle":     int64(ms.HeapIdle),
		"heapInuse":    int64(ms.HeapInuse),
		"heapReleased": int64(ms.HeapReleased),
		"heapObjects":  int64(ms.HeapObjects),
		"stackInuse":   int64(ms.StackInuse),
		"numGC":        int64(ms.NumGC),
		"pauseTotalNs": int64(ms.PauseTotalNs),
	}
}

func (r *Runtime) GetGCPercent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gcPercent
}

// SetGCPercent applies percent with debug.SetGCPercent; a negative value
// disables the collector
func (r *Runtime) SetGCPercent(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	debug.SetGCPercent(percent)
	r.gcPercent = percent
}

func (r *Runtime) GC() { runtime.GC() }

func (r *Runtime) FreeOSMemory() { debug.FreeOSMemory() }
