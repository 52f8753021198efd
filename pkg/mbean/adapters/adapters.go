package adapters

import (
	"fmt"
	"strings"

	"github.com/toyz/mbean/pkg/mbean/remote"
)

// Names of the supported adapters
const (
	Echo  = "echo"
	Gin   = "gin"
	Fiber = "fiber"
	Chi   = "chi"
)

// New returns a default adapter by name
func New(name string) (remote.WebServer, error) {
	switch strings.ToLower(name) {
	case Echo, "":
		return NewDefaultEchoAdapter(), nil
	case Gin:
		return NewDefaultGinAdapter(), nil
	case Fiber:
		return NewDefaultFiberAdapter(), nil
	case Chi:
		return NewDefaultChiAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q, want one of %s", name, strings.Join(Names(), ", "))
	}
}

// Names lists the supported adapters
func Names() []string {
	return []string{Echo, Gin, Fiber, Chi}
}
