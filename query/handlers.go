package query

import (
	"context"

	"github.com/goliatone/go-apiclient/core"
)

type SessionReader interface {
	CurrentSession(ctx context.Context) (core.Session, error)
}

type ConfigurationReader interface {
	IsConfigured() bool
	Config() core.Config
}

// ConfigurationView is the answer to ConfigurationMessage.
type ConfigurationView struct {
	Configured bool
	Config     core.Config
}

type CurrentSessionQuery struct {
	reader SessionReader
}

func NewCurrentSessionQuery(reader SessionReader) *CurrentSessionQuery {
	return &CurrentSessionQuery{reader: reader}
}

func (q *CurrentSessionQuery) Query(ctx context.Context, _ CurrentSessionMessage) (core.Session, error) {
	if q == nil || q.reader == nil {
		return core.Session{}, queryDependencyError("query: session reader is required")
	}
	return q.reader.CurrentSession(ctx)
}

type ConfigurationQuery struct {
	reader ConfigurationReader
}

func NewConfigurationQuery(reader ConfigurationReader) *ConfigurationQuery {
	return &ConfigurationQuery{reader: reader}
}

func (q *ConfigurationQuery) Query(_ context.Context, _ ConfigurationMessage) (ConfigurationView, error) {
	if q == nil || q.reader == nil {
		return ConfigurationView{}, queryDependencyError("query: configuration reader is required")
	}
	if !q.reader.IsConfigured() {
		return ConfigurationView{}, nil
	}
	return ConfigurationView{Configured: true, Config: q.reader.Config()}, nil
}
