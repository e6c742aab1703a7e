package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-apiclient/core"
)

var (
	_ gocmd.Querier[CurrentSessionMessage, core.Session]     = (*CurrentSessionQuery)(nil)
	_ gocmd.Querier[ConfigurationMessage, ConfigurationView] = (*ConfigurationQuery)(nil)
	_ SessionReader                                          = (*core.Manager)(nil)
	_ ConfigurationReader                                    = (*core.Manager)(nil)
)
