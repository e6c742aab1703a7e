package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/oauth2"

	"github.com/goliatone/go-apiclient/core"
)

// SessionProvider is satisfied by *core.Manager.
type SessionProvider interface {
	CurrentSession(ctx context.Context) (core.Session, error)
}

// ToOAuth2 converts a login token to its oauth2 form.
func ToOAuth2(token core.Token) *oauth2.Token {
	converted := &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if token.ExpiresAt != nil {
		converted.Expiry = token.ExpiresAt.UTC()
	}
	if len(token.Raw) > 0 {
		converted = converted.WithExtra(token.Raw)
	}
	return converted
}

type sessionTokenSource struct {
	ctx      context.Context
	provider SessionProvider
	now      func() time.Time
}

// TokenSource reads the active session on every call so a logout or a
// fresh login is picked up immediately.
func TokenSource(ctx context.Context, provider SessionProvider) oauth2.TokenSource {
	if ctx == nil {
		ctx = context.Background()
	}
	return &sessionTokenSource{ctx: ctx, provider: provider, now: time.Now}
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	if s == nil || s.provider == nil {
		return nil, goerrors.New("auth: session provider is required", goerrors.CategoryBadInput).
			WithTextCode(core.ErrorBadInput)
	}
	session, err := s.provider.CurrentSession(s.ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.Token.AccessToken) == "" || !session.Token.Valid(s.now()) {
		return nil, goerrors.New("auth: active session token is expired", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.ErrorUnauthorized).
			WithMetadata(map[string]any{"session_id": session.ID})
	}
	return ToOAuth2(session.Token), nil
}

// HTTPClient returns a client that authorises requests with the active
// session token.
func HTTPClient(ctx context.Context, provider SessionProvider) *http.Client {
	if ctx == nil {
		ctx = context.Background()
	}
	return oauth2.NewClient(ctx, TokenSource(ctx, provider))
}

var _ SessionProvider = (*core.Manager)(nil)
