package command

import (
	"strings"

	"github.com/goliatone/go-apiclient/core"
)

const (
	TypeConfigure    = "apiclient.command.configure"
	TypeAuthenticate = "apiclient.command.authenticate"
	TypeLogout       = "apiclient.command.logout"
)

type ConfigureMessage struct {
	Config core.Config
}

func (ConfigureMessage) Type() string { return TypeConfigure }

func (m ConfigureMessage) Validate() error {
	return commandWrapValidation(m.Config.Validate(), "command: invalid client configuration")
}

type AuthenticateMessage struct {
	Login      string
	Parameters map[string]string
}

func (AuthenticateMessage) Type() string { return TypeAuthenticate }

func (m AuthenticateMessage) Validate() error {
	if strings.TrimSpace(m.Login) == "" {
		return commandValidationError("login", "login is required")
	}
	for key := range m.Parameters {
		if strings.TrimSpace(key) == "" {
			return commandValidationError("parameters", "parameter names must not be blank")
		}
	}
	return nil
}

type LogoutMessage struct{}

func (LogoutMessage) Type() string { return TypeLogout }

func (LogoutMessage) Validate() error { return nil }
