package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-apiclient/core"
)

type sessionRecord struct {
	bun.BaseModel `bun:"table:api_sessions,alias:aps"`

	ID              string     `bun:"id,pk"`
	Login           string     `bun:"login,notnull"`
	AccessToken     string     `bun:"access_token,notnull"`
	RefreshToken    string     `bun:"refresh_token,notnull"`
	TokenType       string     `bun:"token_type,notnull"`
	ExpiresIn       int64      `bun:"expires_in,notnull"`
	ExpiresAt       *time.Time `bun:"expires_at,nullzero"`
	EncryptionKeyID string     `bun:"encryption_key_id,notnull"`
	Status          string     `bun:"status,notnull"`
	RevokedAt       *time.Time `bun:"revoked_at,nullzero"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newSessionRecord(session core.Session, now time.Time) *sessionRecord {
	record := &sessionRecord{
		ID:           session.ID,
		Login:        session.Login,
		AccessToken:  session.Token.AccessToken,
		RefreshToken: session.Token.RefreshToken,
		TokenType:    session.Token.TokenType,
		ExpiresIn:    session.Token.ExpiresIn,
		ExpiresAt:    utcPointer(session.Token.ExpiresAt),
		Status:       string(session.Status),
		RevokedAt:    utcPointer(session.RevokedAt),
		CreatedAt:    session.CreatedAt.UTC(),
		UpdatedAt:    now,
	}
	if record.Status == "" {
		record.Status = string(core.SessionStatusActive)
	}
	if record.TokenType == "" {
		record.TokenType = "Bearer"
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	return record
}

// toDomain leaves the token fields as stored; callers open sealed values.
func (r *sessionRecord) toDomain() core.Session {
	if r == nil {
		return core.Session{}
	}
	return core.Session{
		ID:    r.ID,
		Login: r.Login,
		Token: core.Token{
			AccessToken:  r.AccessToken,
			RefreshToken: r.RefreshToken,
			TokenType:    r.TokenType,
			ExpiresIn:    r.ExpiresIn,
			ExpiresAt:    utcPointer(r.ExpiresAt),
		},
		Status:    core.SessionStatus(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		RevokedAt: utcPointer(r.RevokedAt),
	}
}

func utcPointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
