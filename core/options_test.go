package core

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewManager_DefaultDependencies(t *testing.T) {
	manager, err := NewManager()
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if manager.logger == nil || manager.loggerProvider == nil {
		t.Fatalf("expected default logger and provider")
	}
	if manager.errorMapper == nil || manager.configProvider == nil || manager.optionsResolver == nil {
		t.Fatalf("expected default error mapper, config provider and options resolver")
	}
	if _, ok := manager.sessionStore.(*MemorySessionStore); !ok {
		t.Fatalf("expected in-memory session store, got %T", manager.sessionStore)
	}
	if _, ok := manager.loginEncoder.(JSONLoginEncoder); !ok {
		t.Fatalf("expected JSON login encoder, got %T", manager.loginEncoder)
	}
	if manager.IsConfigured() {
		t.Fatalf("expected new manager to be unconfigured")
	}
}

func TestNewManager_WithXOverrides(t *testing.T) {
	logger := newCaptureLogger()
	provider := stubLoggerProvider{logger: logger}
	sentinel := errors.New("sentinel")
	mapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	configProvider := &fixedConfigProvider{cfg: stubConfig()}
	store := NewMemorySessionStore()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	manager, err := NewManager(
		WithLogger(logger),
		WithLoggerProvider(provider),
		WithErrorMapper(mapper),
		WithConfigProvider(configProvider),
		WithSessionStore(store),
		WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if manager.baseLogger != logger {
		t.Fatalf("expected logger override")
	}
	if manager.configProvider != configProvider {
		t.Fatalf("expected config provider override")
	}
	if manager.sessionStore != store {
		t.Fatalf("expected session store override")
	}
	if !errors.Is(manager.errorMapper(errors.New("boom")), sentinel) {
		t.Fatalf("expected error mapper override")
	}
	if !manager.clock().Equal(fixed) {
		t.Fatalf("expected clock override")
	}
}

func TestManagerConfigure_UsesOptionsResolverOutput(t *testing.T) {
	resolved := stubConfig()
	resolved.ServiceName = "resolved"
	manager, err := NewManager(
		WithTransportResolver(&staticTransportResolver{adapter: routedTransport(nil)}),
		WithOptionsResolver(&fixedOptionsResolver{cfg: resolved}),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := manager.Configure(context.Background(), Config{ServiceName: "runtime"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := manager.Config().ServiceName; got != "resolved" {
		t.Fatalf("expected resolver output, got %q", got)
	}
}

func TestGoOptionsResolver_RuntimeOverridesLoadedOverDefaults(t *testing.T) {
	loaded := Config{Remote: RemoteConfig{Host: "loaded.example.com", Timeout: 5 * time.Second}}
	runtime := Config{ServiceName: "runtime", Remote: RemoteConfig{Timeout: 2 * time.Second}}

	cfg, err := GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ServiceName != "runtime" || cfg.Remote.Timeout != 2*time.Second {
		t.Fatalf("expected runtime values to win, got %+v", cfg)
	}
	if cfg.Remote.Host != "loaded.example.com" {
		t.Fatalf("expected loaded host, got %q", cfg.Remote.Host)
	}
	if cfg.Remote.UserAgent != DefaultUserAgent || cfg.Endpoints.Logout != DefaultLogoutEndpoint {
		t.Fatalf("expected defaults to fill unset values, got %+v", cfg)
	}
}

func TestGoOptionsResolver_RejectsMissingHostWithoutStubs(t *testing.T) {
	_, err := GoOptionsResolver{}.Resolve(DefaultConfig(), Config{}, Config{})
	if err == nil {
		t.Fatalf("expected validation error for missing host")
	}
}

func TestStaticConfigLoader_ReturnsCopy(t *testing.T) {
	values := map[string]any{"service_name": "a"}
	raw, err := StaticConfigLoader(values).LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	raw["service_name"] = "b"
	if values["service_name"] != "a" {
		t.Fatalf("expected loader to hand out a copy")
	}
}

func TestGoOptionsResolver_RuntimeStubDisableOverridesLoaded(t *testing.T) {
	loaded := DefaultConfig()
	loaded.Stub.Enabled = Bool(true)
	runtime := Config{
		Remote: RemoteConfig{Host: "api.example.com"},
		Stub:   StubConfig{Enabled: Bool(false)},
	}

	cfg, err := GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Stub.IsEnabled() {
		t.Fatalf("expected runtime false to disable stubs enabled by loaded config")
	}
}

func TestGoOptionsResolver_UnsetRuntimeStubKeepsLoaded(t *testing.T) {
	loaded := DefaultConfig()
	loaded.Stub.Enabled = Bool(true)

	cfg, err := GoOptionsResolver{}.Resolve(DefaultConfig(), loaded, Config{ServiceName: "runtime"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !cfg.Stub.IsEnabled() {
		t.Fatalf("expected loaded stub toggle to survive an unset runtime toggle")
	}
}

func TestManagerConfigure_RuntimeLiveModeBeatsLoadedStubToggle(t *testing.T) {
	resolver := &staticTransportResolver{adapter: routedTransport(nil)}
	manager, err := NewManager(
		WithTransportResolver(resolver),
		WithRawConfigLoader(StaticConfigLoader(map[string]any{
			"stub": map[string]any{"enabled": true},
		})),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	cfg := Config{Remote: RemoteConfig{Host: "api.example.com"}, Stub: StubConfig{Enabled: Bool(false)}}
	if err := manager.Configure(context.Background(), cfg); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if len(resolver.kinds) != 1 || resolver.kinds[0] != TransportKindREST {
		t.Fatalf("expected rest transport, got %v", resolver.kinds)
	}
	if manager.Config().Stub.IsEnabled() {
		t.Fatalf("expected stub mode off")
	}
}
