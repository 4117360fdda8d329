package broker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownGateway is returned by Open for a name nobody registered.
var ErrUnknownGateway = errors.New("unknown gateway")

// Factory builds a Gateway from options.
type Factory func(Options) (Gateway, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a gateway available under name. It panics if the name is
// taken or the factory is nil, so adapters call it from init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("broker: Register factory is nil")
	}
	name = strings.ToLower(name)
	if _, dup := registry[name]; dup {
		panic("broker: Register called twice for " + name)
	}
	registry[name] = f
}

// Open builds the gateway registered under name.
func Open(name string, opts Options) (Gateway, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownGateway, name, strings.Join(Gateways(), ", "))
	}
	return f(opts)
}

// Gateways returns the registered names, sorted.
func Gateways() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
