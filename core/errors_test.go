package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestAPIErrorMapper_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"not configured", fmt.Errorf("authenticate: %w", ErrNotConfigured), ErrorNotConfigured, http.StatusPreconditionFailed},
		{"no session", ErrSessionNotFound, ErrorSessionNotFound, http.StatusNotFound},
		{"cancelled", context.Canceled, ErrorCancelled, http.StatusRequestTimeout},
		{"deadline", context.DeadlineExceeded, ErrorCancelled, http.StatusRequestTimeout},
		{"bad input", errors.New("login is required"), ErrorBadInput, http.StatusBadRequest},
		{"decode", errors.New("decode token payload"), ErrorDecodeFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := apiErrorMapper(tc.err)
			if mapped.TextCode != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, mapped.TextCode)
			}
			if mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
			if !errors.Is(mapped, tc.err) {
				t.Fatalf("expected mapped error to wrap the source")
			}
		})
	}
}

func TestAPIErrorMapper_KeepsExistingEnvelope(t *testing.T) {
	source := goerrors.New("upstream rejected", goerrors.CategoryAuth).WithTextCode(ErrorUnauthorized)
	mapped := apiErrorMapper(fmt.Errorf("wrapped: %w", source))
	if mapped.TextCode != ErrorUnauthorized || mapped.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected envelope %+v", mapped)
	}
	if apiErrorMapper(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestIsNotConfiguredAndTextCode(t *testing.T) {
	err := notConfiguredError("logout")
	if !IsNotConfigured(err) || TextCode(err) != ErrorNotConfigured {
		t.Fatalf("expected not configured envelope, got %v", err)
	}
	if err.Metadata["operation"] != "logout" {
		t.Fatalf("expected operation metadata, got %+v", err.Metadata)
	}
	if IsNotConfigured(errors.New("other")) || TextCode(errors.New("plain")) != "" {
		t.Fatalf("expected plain errors to carry no code")
	}
}
