package gocommand

import (
	"context"
	"errors"
	"testing"

	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"

	apicommand "github.com/goliatone/go-apiclient/command"
	"github.com/goliatone/go-apiclient/core"
	apiquery "github.com/goliatone/go-apiclient/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "apiclient.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "apiclient.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

type stubService struct {
	configured bool
	cfg        core.Config
	session    core.Session
	logins     []string
}

func (s *stubService) Configure(_ context.Context, cfg core.Config) error {
	s.configured = true
	s.cfg = cfg
	return nil
}

func (s *stubService) Authenticate(_ context.Context, login string, _ map[string]string) (core.Token, error) {
	s.logins = append(s.logins, login)
	s.session = core.Session{ID: "s1", Login: login, Token: core.Token{AccessToken: "abc"}}
	return s.session.Token, nil
}

func (s *stubService) Logout(context.Context) (core.LogoutStatus, error) {
	s.session = core.Session{}
	return core.LogoutStatus{Success: true}, nil
}

func (s *stubService) CurrentSession(context.Context) (core.Session, error) {
	if s.session.ID == "" {
		return core.Session{}, core.ErrSessionNotFound
	}
	return s.session, nil
}

func (s *stubService) IsConfigured() bool { return s.configured }

func (s *stubService) Config() core.Config { return s.cfg }

func TestRegisterService_DispatchesCommandsAndQueries(t *testing.T) {
	ctx := context.Background()
	service := &stubService{}
	adapter := NewRegistryAdapter(nil)

	subs, err := RegisterService(adapter, service)
	if err != nil {
		t.Fatalf("register service: %v", err)
	}
	defer subs.Unsubscribe()
	if len(subs) != 5 {
		t.Fatalf("expected 5 subscriptions, got %d", len(subs))
	}

	cfg := core.DefaultConfig()
	cfg.Stub.Enabled = core.Bool(true)
	if err := DispatchConfigure(ctx, cfg); err != nil {
		t.Fatalf("dispatch configure: %v", err)
	}
	if !service.configured {
		t.Fatalf("expected configure to reach the service")
	}

	token, err := DispatchAuthenticate(ctx, "ada", map[string]string{"password": "p"})
	if err != nil {
		t.Fatalf("dispatch authenticate: %v", err)
	}
	if token.AccessToken != "abc" || len(service.logins) != 1 {
		t.Fatalf("unexpected authenticate result %#v (%v)", token, service.logins)
	}

	session, err := QueryCurrentSession(ctx)
	if err != nil || session.Login != "ada" {
		t.Fatalf("expected current session for ada, got %#v (%v)", session, err)
	}

	view, err := QueryConfiguration(ctx)
	if err != nil || !view.Configured || !view.Config.Stub.IsEnabled() {
		t.Fatalf("unexpected configuration view %#v (%v)", view, err)
	}

	status, err := DispatchLogout(ctx)
	if err != nil || !status.Success {
		t.Fatalf("unexpected logout result %#v (%v)", status, err)
	}
}

func TestDispatchAuthenticate_ValidatesBeforeDispatch(t *testing.T) {
	if _, err := DispatchAuthenticate(context.Background(), " ", nil); err == nil {
		t.Fatalf("expected validation error for empty login")
	}
}

func TestRegisterService_RequiresService(t *testing.T) {
	if _, err := RegisterService(NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}

func TestRegisterService_MirrorsCommandsIntoQueueRegistry(t *testing.T) {
	service := &stubService{}
	queueRegistry := jobqueuecommand.NewRegistry()

	subs, err := RegisterService(NewRegistryAdapter(nil), service, WithQueueRegistry(queueRegistry))
	if err != nil {
		t.Fatalf("register service: %v", err)
	}
	defer subs.Unsubscribe()

	if got := len(queueRegistry.List()); got != 3 {
		t.Fatalf("expected the 3 commands in the queue registry, got %d", got)
	}
	for _, messageType := range []string{apicommand.TypeConfigure, apicommand.TypeLogout} {
		if _, ok := queueRegistry.Get(messageType); !ok {
			t.Fatalf("expected queue entry for %s", messageType)
		}
	}
	if _, ok := queueRegistry.Get(apiquery.TypeCurrentSession); ok {
		t.Fatalf("expected queries to stay off the queue registry")
	}

	entry, ok := queueRegistry.Get(apicommand.TypeAuthenticate)
	if !ok {
		t.Fatalf("expected queue entry for %s", apicommand.TypeAuthenticate)
	}
	err = entry.Handler(context.Background(), map[string]any{
		"login":      "ada",
		"parameters": map[string]any{"password": "p"},
	})
	if err != nil {
		t.Fatalf("run queued authenticate: %v", err)
	}
	if len(service.logins) != 1 || service.logins[0] != "ada" {
		t.Fatalf("expected queued authenticate to reach the service, got %v", service.logins)
	}
}

func TestRegisterService_InitializesRegistryOnce(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	subs, err := RegisterService(adapter, &stubService{})
	if err != nil {
		t.Fatalf("register service: %v", err)
	}
	subs.Unsubscribe()

	if err := adapter.AddQueueResolver(jobqueuecommand.NewRegistry()); err == nil {
		t.Fatalf("expected resolver registration after initialize to fail")
	}
	if err := adapter.AddQueueResolver(nil); err == nil {
		t.Fatalf("expected missing queue registry error")
	}
	if _, err := RegisterService(adapter, &stubService{}); err == nil {
		t.Fatalf("expected second registration on an initialized registry to fail")
	}
}

func TestRegisterService_LogsThroughCommandsLogger(t *testing.T) {
	provider := &namingProvider{}
	subs, err := RegisterService(NewRegistryAdapter(nil), &stubService{}, WithLoggerProvider(provider))
	if err != nil {
		t.Fatalf("register service: %v", err)
	}
	defer subs.Unsubscribe()
	if provider.requested != "apiclient.commands" {
		t.Fatalf("expected apiclient.commands logger, got %q", provider.requested)
	}
	if provider.logger.infos != 1 {
		t.Fatalf("expected one registration record, got %d", provider.logger.infos)
	}
}

type namingProvider struct {
	requested string
	logger    countingLogger
}

func (p *namingProvider) GetLogger(name string) glog.Logger {
	p.requested = name
	return &p.logger
}

type countingLogger struct {
	infos int
}

func (l *countingLogger) Trace(string, ...any) {}
func (l *countingLogger) Debug(string, ...any) {}
func (l *countingLogger) Info(string, ...any)  { l.infos++ }
func (l *countingLogger) Warn(string, ...any)  {}
func (l *countingLogger) Error(string, ...any) {}
func (l *countingLogger) Fatal(string, ...any) {}

func (l *countingLogger) WithContext(context.Context) glog.Logger { return l }
