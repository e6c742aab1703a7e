package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goliatone/go-apiclient/core"
)

type staticSessionProvider struct {
	session core.Session
	err     error
}

func (p staticSessionProvider) CurrentSession(context.Context) (core.Session, error) {
	return p.session, p.err
}

func TestFormLoginEncoder_EncodesLoginAndParameters(t *testing.T) {
	body, err := FormLoginEncoder{}.Encode("ada@example.com", map[string]string{"password": "p&ss"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if values.Get("login") != "ada@example.com" || values.Get("password") != "p&ss" {
		t.Fatalf("unexpected form values: %v", values)
	}
	if (FormLoginEncoder{}).ContentType() != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type")
	}
}

func TestFormLoginEncoder_RejectsLoginFieldCollision(t *testing.T) {
	_, err := FormLoginEncoder{LoginField: "username"}.Encode("ada", map[string]string{"username": "other"})
	if core.TextCode(err) != core.ErrorBadInput {
		t.Fatalf("expected %s collision error, got %v", core.ErrorBadInput, err)
	}
}

func TestTokenSource_UsesActiveSession(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	provider := staticSessionProvider{session: core.Session{
		ID:    "sess_1",
		Token: core.Token{AccessToken: "abc", TokenType: "Bearer", ExpiresAt: &expiresAt},
	}}

	token, err := TokenSource(context.Background(), provider).Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token.AccessToken != "abc" || !token.Valid() {
		t.Fatalf("unexpected oauth2 token: %+v", token)
	}
}

func TestTokenSource_ExpiredSessionIsUnauthorized(t *testing.T) {
	expiresAt := time.Now().Add(-time.Minute)
	provider := staticSessionProvider{session: core.Session{
		Token: core.Token{AccessToken: "abc", ExpiresAt: &expiresAt},
	}}

	_, err := TokenSource(context.Background(), provider).Token()
	if core.TextCode(err) != core.ErrorUnauthorized {
		t.Fatalf("expected %s, got %v", core.ErrorUnauthorized, err)
	}
}

func TestTokenSource_PropagatesMissingSession(t *testing.T) {
	provider := staticSessionProvider{err: core.ErrSessionNotFound}
	_, err := TokenSource(context.Background(), provider).Token()
	if !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestHTTPClient_AuthorisesRequests(t *testing.T) {
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	provider := staticSessionProvider{session: core.Session{
		Token: core.Token{AccessToken: "abc", TokenType: "Bearer"},
	}}
	res, err := HTTPClient(context.Background(), provider).Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = res.Body.Close()
	if authorization != "Bearer abc" {
		t.Fatalf("expected bearer authorization, got %q", authorization)
	}
}
