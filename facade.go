package apiclient

import (
	"fmt"

	apicommand "github.com/goliatone/go-apiclient/command"
	apiquery "github.com/goliatone/go-apiclient/query"
)

type CommandQueryService interface {
	apicommand.MutatingService
	apiquery.SessionReader
	apiquery.ConfigurationReader
}

type Commands struct {
	Configure    *apicommand.ConfigureCommand
	Authenticate *apicommand.AuthenticateCommand
	Logout       *apicommand.LogoutCommand
}

type Queries struct {
	CurrentSession *apiquery.CurrentSessionQuery
	Configuration  *apiquery.ConfigurationQuery
}

// Facade exposes the manager as go-command handlers.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("apiclient: command/query service is required")
	}
	return &Facade{
		service: service,
		commands: Commands{
			Configure:    apicommand.NewConfigureCommand(service),
			Authenticate: apicommand.NewAuthenticateCommand(service),
			Logout:       apicommand.NewLogoutCommand(service),
		},
		queries: Queries{
			CurrentSession: apiquery.NewCurrentSessionQuery(service),
			Configuration:  apiquery.NewConfigurationQuery(service),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Manager)(nil)
