package query

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/core"
)

type stubSessionReader struct {
	session core.Session
	err     error
}

func (s stubSessionReader) CurrentSession(context.Context) (core.Session, error) {
	return s.session, s.err
}

type stubConfigurationReader struct {
	configured bool
	cfg        core.Config
}

func (s stubConfigurationReader) IsConfigured() bool { return s.configured }

func (s stubConfigurationReader) Config() core.Config { return s.cfg }

func TestCurrentSessionQuery_DelegatesToReader(t *testing.T) {
	reader := stubSessionReader{session: core.Session{ID: "s1", Login: "ada"}}
	session, err := NewCurrentSessionQuery(reader).Query(context.Background(), CurrentSessionMessage{})
	if err != nil {
		t.Fatalf("query current session: %v", err)
	}
	if session.ID != "s1" || session.Login != "ada" {
		t.Fatalf("unexpected session %#v", session)
	}
}

func TestCurrentSessionQuery_PropagatesMissingSession(t *testing.T) {
	reader := stubSessionReader{err: core.ErrSessionNotFound}
	_, err := NewCurrentSessionQuery(reader).Query(context.Background(), CurrentSessionMessage{})
	if !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestConfigurationQuery_ReportsState(t *testing.T) {
	view, err := NewConfigurationQuery(stubConfigurationReader{}).Query(context.Background(), ConfigurationMessage{})
	if err != nil || view.Configured {
		t.Fatalf("expected unconfigured view, got %#v (%v)", view, err)
	}

	cfg := core.DefaultConfig()
	cfg.Remote.Host = "api.example.com"
	view, err = NewConfigurationQuery(stubConfigurationReader{configured: true, cfg: cfg}).
		Query(context.Background(), ConfigurationMessage{})
	if err != nil || !view.Configured || view.Config.Remote.Host != "api.example.com" {
		t.Fatalf("unexpected configured view %#v (%v)", view, err)
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var q *CurrentSessionQuery
	_, err := q.Query(context.Background(), CurrentSessionMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorInternal {
		t.Fatalf("expected internal dependency error, got %v", err)
	}
	if _, err := NewConfigurationQuery(nil).Query(context.Background(), ConfigurationMessage{}); err == nil {
		t.Fatalf("expected configuration reader error")
	}
}
