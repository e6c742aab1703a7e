package command

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-apiclient/core"
)

var (
	_ gocmd.Commander[ConfigureMessage]    = (*ConfigureCommand)(nil)
	_ gocmd.Commander[AuthenticateMessage] = (*AuthenticateCommand)(nil)
	_ gocmd.Commander[LogoutMessage]       = (*LogoutCommand)(nil)
	_ MutatingService                      = (*core.Manager)(nil)
)
