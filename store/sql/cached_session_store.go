package sqlstore

import (
	"context"
	"fmt"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-apiclient/core"
)

// ActiveSessionCacheKey is the single cache entry holding the active session.
const ActiveSessionCacheKey = "go-apiclient::session::v1::active"

// CachedSessionStore serves GetActive from a go-repository-cache service and
// drops the entry on every write.
type CachedSessionStore struct {
	base  core.SessionStore
	cache repositorycache.CacheService
}

func NewCachedSessionStore(base core.SessionStore, cacheService repositorycache.CacheService) (*CachedSessionStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base session store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: session cache service is required")
	}
	return &CachedSessionStore{base: base, cache: cacheService}, nil
}

func (s *CachedSessionStore) Save(ctx context.Context, session core.Session) (core.Session, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Session{}, fmt.Errorf("sqlstore: cached session store is not configured")
	}
	saved, err := s.base.Save(ctx, session)
	if err != nil {
		return core.Session{}, err
	}
	if err := s.cache.Delete(ctx, ActiveSessionCacheKey); err != nil {
		return core.Session{}, err
	}
	return saved, nil
}

func (s *CachedSessionStore) GetActive(ctx context.Context) (core.Session, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Session{}, fmt.Errorf("sqlstore: cached session store is not configured")
	}
	session, err := repositorycache.GetOrFetch(ctx, s.cache, ActiveSessionCacheKey, func(ctx context.Context) (core.Session, error) {
		return s.base.GetActive(ctx)
	})
	if err != nil {
		return core.Session{}, err
	}
	return cloneSession(session), nil
}

func (s *CachedSessionStore) Revoke(ctx context.Context, id string, revokedAt time.Time) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached session store is not configured")
	}
	if err := s.base.Revoke(ctx, id, revokedAt); err != nil {
		return err
	}
	return s.cache.Delete(ctx, ActiveSessionCacheKey)
}

func cloneSession(session core.Session) core.Session {
	cloned := session
	cloned.Token.ExpiresAt = utcPointer(session.Token.ExpiresAt)
	cloned.RevokedAt = utcPointer(session.RevokedAt)
	if session.Token.Raw != nil {
		cloned.Token.Raw = make(map[string]any, len(session.Token.Raw))
		for key, value := range session.Token.Raw {
			cloned.Token.Raw[key] = value
		}
	}
	return cloned
}
