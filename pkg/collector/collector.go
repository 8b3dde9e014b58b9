// Package collector defines the contract every service-specific collector
// implements: an asynchronous factory, an aggregate data-collection entry
// point, and an optional disconnect hook.
package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/collectorkit/collectorkit/pkg/errors"
	"github.com/collectorkit/collectorkit/pkg/httpclient"
	"github.com/collectorkit/collectorkit/pkg/types"
)

// Client is the contract for a concrete collector. GetAllData aggregates
// every data source the collector is responsible for into a named dataset;
// Disconnect releases any persistent resources and is a no-op by default.
type Client interface {
	GetAllData(ctx context.Context) (types.Dataset, error)
	Disconnect(ctx context.Context) error
}

// Factory constructs a connected collector: resolve credentials, open any
// session, and return the ready instance.
type Factory func(ctx context.Context) (Client, error)

// Create is the base factory. Concrete collectors must register their own
// factory; calling the base one is always an error.
func Create(ctx context.Context) (Client, error) {
	return nil, errors.NewNotImplemented("Create")
}

// Base is the embeddable foundation for concrete collectors. It wraps the
// authenticated HTTP client and supplies the default no-op Disconnect.
type Base struct {
	http *httpclient.Client
}

// NewBase creates a Base around an authenticated HTTP client.
func NewBase(http *httpclient.Client) Base {
	return Base{http: http}
}

// HTTP returns the wrapped authenticated HTTP client.
func (b *Base) HTTP() *httpclient.Client {
	return b.http
}

// Disconnect is a no-op. Collectors holding a persistent resource override it.
func (b *Base) Disconnect(ctx context.Context) error {
	return nil
}

// Registry maps collector names to factories, so a service can construct its
// collectors from configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a name, replacing any previous entry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create constructs the named collector.
func (r *Registry) Create(ctx context.Context, name string) (Client, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown collector: %q", name)
	}
	return factory(ctx)
}

// Names returns the registered collector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
