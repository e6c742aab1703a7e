package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Manager is the API facade. It stays unusable until Configure succeeds.
type Manager struct {
	mu         sync.RWMutex
	cfg        Config
	configured bool
	transport  TransportAdapter
	logger     Logger

	baseLogger        Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	transportResolver TransportResolver
	sessionStore      SessionStore
	loginEncoder      LoginEncoder
	clock             func() time.Time
}

type managerSnapshot struct {
	cfg       Config
	transport TransportAdapter
}

func NewManager(opts ...Option) (*Manager, error) {
	builder := defaultManagerBuilder()
	for _, opt := range opts {
		if opt != nil {
			opt(&builder)
		}
	}
	if builder.logger == nil && builder.loggerProvider != nil {
		builder.logger = builder.loggerProvider.GetLogger("apiclient")
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = apiErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.sessionStore == nil {
		builder.sessionStore = NewMemorySessionStore()
	}
	if builder.loginEncoder == nil {
		builder.loginEncoder = JSONLoginEncoder{}
	}
	if builder.clock == nil {
		builder.clock = time.Now
	}

	return &Manager{
		logger:            newLevelLogger(builder.logger, LogLevelInfo),
		baseLogger:        builder.logger,
		loggerProvider:    builder.loggerProvider,
		metricsRecorder:   builder.metricsRecorder,
		errorMapper:       builder.errorMapper,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		transportResolver: builder.transportResolver,
		sessionStore:      builder.sessionStore,
		loginEncoder:      builder.loginEncoder,
		clock:             builder.clock,
	}, nil
}

// Configure resolves cfg over defaults and any loaded config, then swaps
// in the matching transport. It may be called again to reconfigure.
func (m *Manager) Configure(ctx context.Context, cfg Config) (err error) {
	if m == nil {
		return newAPIError("api manager is nil", goerrors.CategoryInternal, ErrorInternal)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		m.observeOperation(ctx, startedAt, "configure", err, fields)
	}()

	defaults := DefaultConfig()
	loaded, err := m.configProvider.Load(ctx, defaults)
	if err != nil {
		return m.mapError(err)
	}
	resolved, err := m.optionsResolver.Resolve(defaults, loaded, cfg)
	if err != nil {
		return m.mapError(err)
	}
	resolved = cloneConfig(resolved)

	kind := TransportKindREST
	if resolved.Stub.IsEnabled() {
		kind = TransportKindStub
	}
	fields["transport"] = kind
	fields["service_name"] = resolved.ServiceName

	if m.transportResolver == nil {
		return newAPIError("transport resolver is required", goerrors.CategoryBadInput, ErrorBadInput)
	}
	adapter, err := m.transportResolver.Build(kind, resolved)
	if err != nil {
		return m.mapError(err)
	}
	if adapter == nil {
		return newAPIError(fmt.Sprintf("transport %q is not available", kind), goerrors.CategoryBadInput, ErrorBadInput)
	}

	m.mu.Lock()
	m.cfg = resolved
	m.transport = adapter
	m.logger = newLevelLogger(m.baseLogger, resolved.Logging.Level)
	m.configured = true
	m.mu.Unlock()
	return nil
}

func (m *Manager) IsConfigured() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configured
}

// Config returns a copy of the active configuration.
func (m *Manager) Config() Config {
	if m == nil {
		return Config{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneConfig(m.cfg)
}

// Authenticate posts the login form and records the issued token as the
// active session.
func (m *Manager) Authenticate(ctx context.Context, login string, parameters map[string]string) (token Token, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{
		"login":      strings.TrimSpace(login),
		"parameters": parameterFields(parameters),
	}
	defer func() {
		m.observeOperation(ctx, startedAt, "authenticate", err, fields)
	}()

	snapshot, err := m.snapshot("authenticate")
	if err != nil {
		return Token{}, err
	}
	fields["transport"] = snapshot.transport.Kind()
	if strings.TrimSpace(login) == "" {
		return Token{}, newAPIError("login is required", goerrors.CategoryBadInput, ErrorBadInput)
	}

	body, err := m.loginEncoder.Encode(login, parameters)
	if err != nil {
		return Token{}, m.mapError(fmt.Errorf("core: login parameters invalid: %w", err))
	}
	response, err := m.send(ctx, snapshot, http.MethodPost, snapshot.cfg.Endpoints.Login, body, map[string]string{
		"Content-Type": m.loginEncoder.ContentType(),
	})
	if err != nil {
		return Token{}, err
	}
	fields["status_code"] = response.StatusCode

	token, err = decodeToken(response.Body, m.clock())
	if err != nil {
		return Token{}, wrapError(err, goerrors.CategoryExternal, ErrorDecodeFailed, "login response could not be decoded")
	}

	session, err := m.sessionStore.Save(ctx, Session{
		Login:  login,
		Token:  token,
		Status: SessionStatusActive,
	})
	if err != nil {
		return Token{}, m.mapError(err)
	}
	fields["session_id"] = session.ID
	return token, nil
}

// Logout revokes the active session remotely and locally. Calling it with
// no active session still hits the remote endpoint unauthenticated.
func (m *Manager) Logout(ctx context.Context) (status LogoutStatus, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		m.observeOperation(ctx, startedAt, "logout", err, fields)
	}()

	snapshot, err := m.snapshot("logout")
	if err != nil {
		return LogoutStatus{}, err
	}
	fields["transport"] = snapshot.transport.Kind()

	session, err := m.sessionStore.GetActive(ctx)
	hasSession := err == nil
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return LogoutStatus{}, m.mapError(err)
	}

	headers := map[string]string{}
	if hasSession {
		fields["session_id"] = session.ID
		fields["login"] = session.Login
		tokenType := session.Token.TokenType
		if tokenType == "" {
			tokenType = "Bearer"
		}
		headers["Authorization"] = tokenType + " " + session.Token.AccessToken
	}

	response, err := m.send(ctx, snapshot, http.MethodPost, snapshot.cfg.Endpoints.Logout, nil, headers)
	if err != nil {
		return LogoutStatus{}, err
	}
	fields["status_code"] = response.StatusCode

	status, err = decodeLogoutStatus(response.Body)
	if err != nil {
		return LogoutStatus{}, wrapError(err, goerrors.CategoryExternal, ErrorDecodeFailed, "logout response could not be decoded")
	}
	if hasSession {
		if err := m.sessionStore.Revoke(ctx, session.ID, m.clock()); err != nil {
			return LogoutStatus{}, m.mapError(err)
		}
	}
	return status, nil
}

// CurrentSession returns the active session, if any.
func (m *Manager) CurrentSession(ctx context.Context) (Session, error) {
	if m == nil {
		return Session{}, notConfiguredError("current_session")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := m.sessionStore.GetActive(ctx)
	if err != nil {
		return Session{}, m.mapError(err)
	}
	return session, nil
}

func (m *Manager) snapshot(operation string) (managerSnapshot, error) {
	if m == nil {
		return managerSnapshot{}, notConfiguredError(operation)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.configured || m.transport == nil {
		return managerSnapshot{}, notConfiguredError(operation)
	}
	return managerSnapshot{cfg: m.cfg, transport: m.transport}, nil
}

func (m *Manager) send(
	ctx context.Context,
	snapshot managerSnapshot,
	method string,
	endpoint string,
	body []byte,
	headers map[string]string,
) (TransportResponse, error) {
	target, err := snapshot.cfg.EndpointURL(endpoint)
	if err != nil {
		return TransportResponse{}, m.mapError(err)
	}
	if snapshot.cfg.Remote.UserAgent != "" {
		if _, ok := headers["User-Agent"]; !ok {
			headers["User-Agent"] = snapshot.cfg.Remote.UserAgent
		}
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	response, err := snapshot.transport.Do(ctx, TransportRequest{
		Method:  method,
		URL:     target,
		Path:    endpoint,
		Headers: headers,
		Body:    body,
		Timeout: snapshot.cfg.Remote.Timeout,
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return TransportResponse{}, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return TransportResponse{}, m.mapError(err)
		}
		return TransportResponse{}, wrapError(err, goerrors.CategoryExternal, ErrorRequestFailed, "transport request failed")
	}
	if response.StatusCode >= http.StatusBadRequest {
		return TransportResponse{}, statusError(response, method, endpoint)
	}
	return response, nil
}

func statusError(response TransportResponse, method string, endpoint string) *goerrors.Error {
	metadata := map[string]any{
		"status_code": response.StatusCode,
		"method":      method,
		"endpoint":    endpoint,
	}
	if len(response.Body) > 0 {
		body := string(response.Body)
		if len(body) > 512 {
			body = body[:512]
		}
		metadata["body"] = body
	}
	message := fmt.Sprintf("%s %s returned status %d", method, endpoint, response.StatusCode)
	switch response.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return newAPIError(message, goerrors.CategoryAuth, ErrorUnauthorized).
			WithCode(response.StatusCode).
			WithMetadata(metadata)
	default:
		return newAPIError(message, goerrors.CategoryExternal, ErrorRequestFailed).
			WithCode(response.StatusCode).
			WithMetadata(metadata)
	}
}

func (m *Manager) mapError(err error) error {
	if err == nil {
		return nil
	}
	if m == nil || m.errorMapper == nil {
		return apiErrorMapper(err)
	}
	if mapped := m.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (m *Manager) currentLogger() Logger {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}
