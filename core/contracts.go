package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

const (
	TransportKindREST = "rest"
	TransportKindStub = "stub"
)

// Token is the credential returned by a successful login.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	ExpiresAt    *time.Time
	Raw          map[string]any
}

func (t Token) Valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt == nil {
		return true
	}
	return now.Before(*t.ExpiresAt)
}

type LogoutStatus struct {
	Success bool
	Message string
	Raw     map[string]any
}

type Session struct {
	ID        string
	Login     string
	Token     Token
	Status    SessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

type TransportRequest struct {
	Method   string
	URL      string
	Path     string
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
	Metadata map[string]any
	Timeout  time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// TransportResolver builds the adapter matching the configured mode.
type TransportResolver interface {
	Build(kind string, cfg Config) (TransportAdapter, error)
}

type LoginEncoder interface {
	ContentType() string
	Encode(login string, parameters map[string]string) ([]byte, error)
}

type SessionStore interface {
	Save(ctx context.Context, session Session) (Session, error)
	GetActive(ctx context.Context) (Session, error)
	Revoke(ctx context.Context, id string, revokedAt time.Time) error
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
