package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-apiclient/core"
)

// sealedKeyID marks a row sealed by a provider that does not expose key ids.
const sealedKeyID = "sealed"

type SessionStoreOption func(*SessionStore)

// WithSecretProvider seals access and refresh tokens before they are written.
func WithSecretProvider(provider core.SecretProvider) SessionStoreOption {
	return func(s *SessionStore) {
		s.secrets = provider
	}
}

// SessionStore persists login sessions in the api_sessions table. At most
// one row is active; saving an active session revokes the previous one in
// the same transaction.
type SessionStore struct {
	db      *bun.DB
	repo    repository.Repository[*sessionRecord]
	secrets core.SecretProvider
	clock   func() time.Time
}

func NewSessionStore(db *bun.DB, opts ...SessionStoreOption) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*sessionRecord](db, sessionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session repository wiring: %w", err)
		}
	}
	store := &SessionStore{
		db:    db,
		repo:  repo,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *SessionStore) Save(ctx context.Context, session core.Session) (core.Session, error) {
	if s == nil || s.repo == nil || s.db == nil {
		return core.Session{}, fmt.Errorf("sqlstore: session store is not configured")
	}
	if strings.TrimSpace(session.Token.AccessToken) == "" {
		return core.Session{}, fmt.Errorf("sqlstore: session access token is required")
	}
	if strings.TrimSpace(session.ID) == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = core.SessionStatusActive
	}
	now := s.clock().UTC()

	record := newSessionRecord(session, now)
	if err := s.seal(ctx, record); err != nil {
		return core.Session{}, err
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if session.Status == core.SessionStatusActive {
			_, updateErr := tx.NewUpdate().
				Model((*sessionRecord)(nil)).
				Set("status = ?", string(core.SessionStatusRevoked)).
				Set("revoked_at = ?", now).
				Set("updated_at = ?", now).
				Where("status = ?", string(core.SessionStatusActive)).
				Where("id <> ?", session.ID).
				Exec(ctx)
			if updateErr != nil {
				return updateErr
			}
		}
		_, createErr := s.repo.CreateTx(ctx, tx, record)
		return createErr
	})
	if err != nil {
		return core.Session{}, err
	}

	session.CreatedAt = record.CreatedAt
	session.UpdatedAt = record.UpdatedAt
	return session, nil
}

func (s *SessionStore) GetActive(ctx context.Context) (core.Session, error) {
	if s == nil || s.repo == nil {
		return core.Session{}, fmt.Errorf("sqlstore: session store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", string(core.SessionStatusActive)),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Session{}, err
	}
	if len(records) == 0 {
		return core.Session{}, core.ErrSessionNotFound
	}
	return s.open(ctx, records[0])
}

func (s *SessionStore) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: session id is required")
	}
	if revokedAt.IsZero() {
		revokedAt = s.clock()
	}
	revokedAt = revokedAt.UTC()

	result, err := s.db.NewUpdate().
		Model((*sessionRecord)(nil)).
		Set("status = ?", string(core.SessionStatusRevoked)).
		Set("revoked_at = ?", revokedAt).
		Set("updated_at = ?", revokedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return fmt.Errorf("sqlstore: revoke session %q: %w", id, core.ErrSessionNotFound)
	}
	return nil
}

func (s *SessionStore) seal(ctx context.Context, record *sessionRecord) error {
	if s.secrets == nil {
		return nil
	}
	access, err := s.secrets.Encrypt(ctx, []byte(record.AccessToken))
	if err != nil {
		return fmt.Errorf("sqlstore: seal access token: %w", err)
	}
	record.AccessToken = string(access)
	if record.RefreshToken != "" {
		refresh, err := s.secrets.Encrypt(ctx, []byte(record.RefreshToken))
		if err != nil {
			return fmt.Errorf("sqlstore: seal refresh token: %w", err)
		}
		record.RefreshToken = string(refresh)
	}
	record.EncryptionKeyID = sealedKeyID
	if keyed, ok := s.secrets.(interface{ KeyID() string }); ok && keyed.KeyID() != "" {
		record.EncryptionKeyID = keyed.KeyID()
	}
	return nil
}

func (s *SessionStore) open(ctx context.Context, record *sessionRecord) (core.Session, error) {
	session := record.toDomain()
	if record.EncryptionKeyID == "" {
		return session, nil
	}
	if s.secrets == nil {
		return core.Session{}, fmt.Errorf("sqlstore: session %q is sealed but no secret provider is configured", record.ID)
	}
	access, err := s.secrets.Decrypt(ctx, []byte(record.AccessToken))
	if err != nil {
		return core.Session{}, fmt.Errorf("sqlstore: open access token: %w", err)
	}
	session.Token.AccessToken = string(access)
	if record.RefreshToken != "" {
		refresh, err := s.secrets.Decrypt(ctx, []byte(record.RefreshToken))
		if err != nil {
			return core.Session{}, fmt.Errorf("sqlstore: open refresh token: %w", err)
		}
		session.Token.RefreshToken = string(refresh)
	}
	return session, nil
}
