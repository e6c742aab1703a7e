// Package apiclient is a client for a remote login API: configure it once,
// authenticate with a login and parameters, and log out. In stub mode the
// remote is replaced with fixture files found on disk or in embedded bundles.
package apiclient

import (
	"github.com/goliatone/go-apiclient/core"
	"github.com/goliatone/go-apiclient/stubs"
	"github.com/goliatone/go-apiclient/transport"
)

type (
	Config       = core.Config
	Option       = core.Option
	Manager      = core.Manager
	Token        = core.Token
	LogoutStatus = core.LogoutStatus
	Session      = core.Session
	Cancellable  = core.Cancellable
)

type Result[T any] = core.Result[T]

var (
	Bool                = core.Bool
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithRawConfigLoader = core.WithRawConfigLoader
	WithOptionsResolver = core.WithOptionsResolver
	WithSessionStore    = core.WithSessionStore
	WithLoginEncoder    = core.WithLoginEncoder
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewManager returns an unconfigured Manager wired with the default rest and
// stub transports. A WithTransportResolver option replaces them.
func NewManager(opts ...Option) (*Manager, error) {
	withDefaults := make([]Option, 0, len(opts)+1)
	withDefaults = append(withDefaults, core.WithTransportResolver(DefaultTransports(nil)))
	withDefaults = append(withDefaults, opts...)
	return core.NewManager(withDefaults...)
}

// DefaultTransports registers the rest and stub transports. The stub
// locator is built from the stub config on every Configure; stubOpts are
// applied to it, after the configured base dir and directories.
func DefaultTransports(client transport.HTTPDoer, stubOpts ...stubs.Option) *transport.Registry {
	registry := transport.NewRegistry()
	_ = registry.RegisterFactory(transport.KindREST, transport.RESTFactory(client))
	_ = registry.RegisterFactory(transport.KindStub, transport.StubFactory(nil, stubOpts...))
	return registry
}

// WithTransports swaps the transport resolver.
func WithTransports(resolver core.TransportResolver) Option {
	return core.WithTransportResolver(resolver)
}
