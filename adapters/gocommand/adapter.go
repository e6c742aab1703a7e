// Package gocommand wires the client's commands and queries into a
// go-command registry and dispatcher.
package gocommand

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-apiclient/adapters/gologger"
	apicommand "github.com/goliatone/go-apiclient/command"
	"github.com/goliatone/go-apiclient/core"
	apiquery "github.com/goliatone/go-apiclient/query"
)

const queueResolverKey = "apiclient.queue"

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) register(handler any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(handler)
}

// AddQueueResolver mirrors every registered command into queueRegistry on
// Initialize, keyed by message type. Queries are skipped.
func (a *RegistryAdapter) AddQueueResolver(queueRegistry *jobqueuecommand.Registry) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	mirror := jobqueuecommand.QueueResolver(queueRegistry)
	return a.registry.AddResolver(queueResolverKey, func(handler any, meta command.CommandMeta, reg *command.Registry) error {
		if !reflect.ValueOf(handler).MethodByName("Execute").IsValid() {
			return nil
		}
		return mirror(handler, meta, reg)
	})
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.register(cmd); err != nil {
		subscription.Unsubscribe()
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.register(qry); err != nil {
		subscription.Unsubscribe()
		return nil, err
	}
	return subscription, nil
}

// Service is satisfied by *core.Manager.
type Service interface {
	apicommand.MutatingService
	apiquery.SessionReader
	apiquery.ConfigurationReader
}

// Subscriptions holds the dispatcher subscriptions made by RegisterService.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	runnerOpts []runner.Option
	queue      *jobqueuecommand.Registry
	logger     glog.Logger
}

func WithRunnerOptions(opts ...runner.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.runnerOpts = append(o.runnerOpts, opts...)
	}
}

// WithQueueRegistry makes configure, authenticate and logout runnable by
// go-job workers under their message types.
func WithQueueRegistry(reg *jobqueuecommand.Registry) ServiceOption {
	return func(o *serviceOptions) {
		o.queue = reg
	}
}

func WithLoggerProvider(provider glog.LoggerProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = gologger.ForComponent(gologger.ComponentCommands, provider, nil)
	}
}

// RegisterService registers configure, authenticate and logout commands and
// the session and configuration queries for service, then initializes the
// registry. The adapter takes no further registrations afterwards.
func RegisterService(adapter *RegistryAdapter, service Service, opts ...ServiceOption) (Subscriptions, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: service is required")
	}
	options := serviceOptions{logger: glog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.queue != nil {
		if err := adapter.AddQueueResolver(options.queue); err != nil {
			return nil, err
		}
	}

	var subs Subscriptions
	register := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			subs.Unsubscribe()
			return err
		}
		subs = append(subs, sub)
		return nil
	}
	runnerOpts := options.runnerOpts

	if err := register(RegisterAndSubscribe(adapter, apicommand.NewConfigureCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := register(RegisterAndSubscribe(adapter, apicommand.NewAuthenticateCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := register(RegisterAndSubscribe(adapter, apicommand.NewLogoutCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := register(RegisterAndSubscribeQuery(adapter, apiquery.NewCurrentSessionQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := register(RegisterAndSubscribeQuery(adapter, apiquery.NewConfigurationQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := adapter.Initialize(); err != nil {
		subs.Unsubscribe()
		return nil, err
	}

	queued := 0
	if options.queue != nil {
		queued = len(options.queue.List())
	}
	options.logger.Info("client commands registered", "subscriptions", len(subs), "queued", queued)
	return subs, nil
}

func DispatchConfigure(ctx context.Context, cfg core.Config) error {
	msg := apicommand.ConfigureMessage{Config: cfg}
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

// DispatchAuthenticate dispatches an authenticate command and returns the
// token stored by its handler.
func DispatchAuthenticate(ctx context.Context, login string, parameters map[string]string) (core.Token, error) {
	return dispatchWithResult[apicommand.AuthenticateMessage, core.Token](ctx, apicommand.AuthenticateMessage{
		Login:      login,
		Parameters: parameters,
	})
}

func DispatchLogout(ctx context.Context) (core.LogoutStatus, error) {
	return dispatchWithResult[apicommand.LogoutMessage, core.LogoutStatus](ctx, apicommand.LogoutMessage{})
}

func QueryCurrentSession(ctx context.Context) (core.Session, error) {
	return commanddispatcher.Query[apiquery.CurrentSessionMessage, core.Session](ctx, apiquery.CurrentSessionMessage{})
}

func QueryConfiguration(ctx context.Context) (apiquery.ConfigurationView, error) {
	return commanddispatcher.Query[apiquery.ConfigurationMessage, apiquery.ConfigurationView](ctx, apiquery.ConfigurationMessage{})
}

func dispatchWithResult[T any, R any](ctx context.Context, msg T) (R, error) {
	var zero R
	if err := ValidateMessageContract(msg); err != nil {
		return zero, err
	}
	collector := command.NewResult[R]()
	if err := commanddispatcher.Dispatch(command.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	value, ok := collector.Load()
	if !ok {
		return zero, fmt.Errorf("gocommand: %T produced no result", msg)
	}
	return value, nil
}
