package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-apiclient/core"
)

// MutatingService is satisfied by *core.Manager.
type MutatingService interface {
	Configure(ctx context.Context, cfg core.Config) error
	Authenticate(ctx context.Context, login string, parameters map[string]string) (core.Token, error)
	Logout(ctx context.Context) (core.LogoutStatus, error)
}

type ConfigureCommand struct {
	service MutatingService
}

func NewConfigureCommand(service MutatingService) *ConfigureCommand {
	return &ConfigureCommand{service: service}
}

func (c *ConfigureCommand) Execute(ctx context.Context, msg ConfigureMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: configure service is required")
	}
	return c.service.Configure(ctx, msg.Config)
}

type AuthenticateCommand struct {
	service MutatingService
}

func NewAuthenticateCommand(service MutatingService) *AuthenticateCommand {
	return &AuthenticateCommand{service: service}
}

// Execute stores the token in the go-command result collector on ctx.
func (c *AuthenticateCommand) Execute(ctx context.Context, msg AuthenticateMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authenticate service is required")
	}
	out, err := c.service.Authenticate(ctx, msg.Login, msg.Parameters)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type LogoutCommand struct {
	service MutatingService
}

func NewLogoutCommand(service MutatingService) *LogoutCommand {
	return &LogoutCommand{service: service}
}

func (c *LogoutCommand) Execute(ctx context.Context, _ LogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: logout service is required")
	}
	out, err := c.service.Logout(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
