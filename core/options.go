package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type managerBuilder struct {
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	transportResolver TransportResolver
	sessionStore      SessionStore
	loginEncoder      LoginEncoder
	clock             func() time.Time
}

type Option func(*managerBuilder)

func WithLogger(logger Logger) Option {
	return func(b *managerBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *managerBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *managerBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *managerBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *managerBuilder) {
		b.configProvider = provider
	}
}

// WithRawConfigLoader wraps loader in the cfgx config provider.
func WithRawConfigLoader(loader RawConfigLoader) Option {
	return func(b *managerBuilder) {
		b.configProvider = NewCfgxConfigProvider(loader)
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *managerBuilder) {
		b.optionsResolver = resolver
	}
}

func WithTransportResolver(resolver TransportResolver) Option {
	return func(b *managerBuilder) {
		b.transportResolver = resolver
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(b *managerBuilder) {
		b.sessionStore = store
	}
}

func WithLoginEncoder(encoder LoginEncoder) Option {
	return func(b *managerBuilder) {
		b.loginEncoder = encoder
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *managerBuilder) {
		b.clock = clock
	}
}

func defaultManagerBuilder() managerBuilder {
	loggerProvider, logger := glog.Resolve("apiclient", nil, nil)
	return managerBuilder{
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     apiErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		sessionStore:    NewMemorySessionStore(),
		loginEncoder:    JSONLoginEncoder{},
		clock:           time.Now,
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// StaticConfigLoader serves a fixed raw map, mostly useful in tests.
func StaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load decodes the raw map over defaults. Validation is deferred to the
// resolver since the runtime layer may still fill required values.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	if len(raw) == 0 {
		return defaults, nil
	}
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap skips zero values unless includeZero is set so an
// upper layer only overrides what it actually sets. The stub toggle is
// skipped only when nil, so an explicit false still overrides.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	remote := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Remote.Host) != "" {
		remote["host"] = cfg.Remote.Host
	}
	if includeZero || strings.TrimSpace(cfg.Remote.UserAgent) != "" {
		remote["user_agent"] = cfg.Remote.UserAgent
	}
	if includeZero || cfg.Remote.Timeout != 0 {
		remote["timeout"] = cfg.Remote.Timeout
	}
	if len(remote) > 0 {
		layer["remote"] = remote
	}

	stub := map[string]any{}
	if includeZero || cfg.Stub.Enabled != nil {
		stub["enabled"] = cfg.Stub.IsEnabled()
	}
	if includeZero || strings.TrimSpace(cfg.Stub.BaseDir) != "" {
		stub["base_dir"] = cfg.Stub.BaseDir
	}
	if includeZero || len(cfg.Stub.Directories) > 0 {
		stub["directories"] = append([]string(nil), cfg.Stub.Directories...)
	}
	if includeZero || strings.TrimSpace(cfg.Stub.Extension) != "" {
		stub["extension"] = cfg.Stub.Extension
	}
	if includeZero || len(cfg.Stub.Routes) > 0 {
		routes := make(map[string]any, len(cfg.Stub.Routes))
		for key, value := range cfg.Stub.Routes {
			routes[key] = value
		}
		stub["routes"] = routes
	}
	if len(stub) > 0 {
		layer["stub"] = stub
	}

	if includeZero || strings.TrimSpace(cfg.Logging.Level) != "" {
		layer["logging"] = map[string]any{"level": cfg.Logging.Level}
	}

	endpoints := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Endpoints.Login) != "" {
		endpoints["login"] = cfg.Endpoints.Login
	}
	if includeZero || strings.TrimSpace(cfg.Endpoints.Logout) != "" {
		endpoints["logout"] = cfg.Endpoints.Logout
	}
	if len(endpoints) > 0 {
		layer["endpoints"] = endpoints
	}
	return layer
}
