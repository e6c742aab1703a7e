package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/stubs"
)

// AdapterFactory builds an adapter for the resolved manager config.
type AdapterFactory func(cfg core.Config) (core.TransportAdapter, error)

// Registry resolves transports by kind. Factories win over static
// adapters so config changes reach freshly built adapters.
type Registry struct {
	mu        sync.RWMutex
	adapters  map[string]core.TransportAdapter
	factories map[string]AdapterFactory
}

func NewRegistry() *Registry {
	return &Registry{
		adapters:  map[string]core.TransportAdapter{},
		factories: map[string]AdapterFactory{},
	}
}

// NewDefaultRegistry registers the rest and stub factories. When locator
// is nil the stub factory builds one from the stub config.
func NewDefaultRegistry(locator *stubs.Locator, client HTTPDoer) *Registry {
	registry := NewRegistry()
	_ = registry.RegisterFactory(KindREST, RESTFactory(client))
	_ = registry.RegisterFactory(KindStub, StubFactory(locator))
	return registry
}

func RESTFactory(client HTTPDoer) AdapterFactory {
	return func(cfg core.Config) (core.TransportAdapter, error) {
		return NewRESTAdapterForConfig(client, cfg), nil
	}
}

func StubFactory(locator *stubs.Locator, opts ...stubs.Option) AdapterFactory {
	return func(cfg core.Config) (core.TransportAdapter, error) {
		resolver := locator
		if resolver == nil {
			locatorOpts := []stubs.Option{stubs.WithBaseDir(cfg.Stub.BaseDir)}
			if len(cfg.Stub.Directories) > 0 {
				locatorOpts = append(locatorOpts, stubs.WithDirectories(cfg.Stub.Directories...))
			}
			resolver = stubs.NewLocator(append(locatorOpts, opts...)...)
		}
		return NewStubAdapter(resolver, cfg.Stub.Routes, cfg.Stub.Extension), nil
	}
}

func (r *Registry) Register(adapter core.TransportAdapter) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if adapter == nil {
		return fmt.Errorf("transport: adapter is nil")
	}
	kind := normalizeKind(adapter.Kind())
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[kind]; exists {
		return fmt.Errorf("transport: adapter kind %q already registered", kind)
	}
	r.adapters[kind] = adapter
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory AdapterFactory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: adapter factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("transport: adapter factory kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Build implements core.TransportResolver.
func (r *Registry) Build(kind string, cfg core.Config) (core.TransportAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return nil, fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.RLock()
	adapter, ok := r.adapters[kind]
	factory := r.factories[kind]
	r.mu.RUnlock()
	if factory != nil {
		built, err := factory(cfg)
		if err != nil {
			return nil, err
		}
		if built == nil {
			return nil, fmt.Errorf("transport: factory for %q returned nil adapter", kind)
		}
		return built, nil
	}
	if ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("transport: adapter kind %q not registered", kind)
}

func (r *Registry) Get(kind string) (core.TransportAdapter, bool) {
	if r == nil {
		return nil, false
	}
	kind = normalizeKind(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[kind]
	return adapter, ok
}

// Kinds lists every registered kind, static or factory, sorted.
func (r *Registry) Kinds() []string {
	if r == nil {
		return []string{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for kind := range r.adapters {
		seen[kind] = struct{}{}
	}
	for kind := range r.factories {
		seen[kind] = struct{}{}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

var _ core.TransportResolver = (*Registry)(nil)
