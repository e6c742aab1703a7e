package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitDone(t *testing.T, handle *Cancellable) {
	t.Helper()
	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}
}

func TestAuthenticateAsync_InvokesCompletionExactlyOnce(t *testing.T) {
	manager := newConfiguredManager(t, routedTransport(map[string]string{
		DefaultLoginEndpoint: `{"token":"abc"}`,
	}))

	var calls atomic.Int32
	var got Result[Token]
	handle := manager.AuthenticateAsync(context.Background(), "ada", map[string]string{"password": "pw"}, func(result Result[Token]) {
		calls.Add(1)
		got = result
	})
	if handle.IsCancelled() {
		t.Fatalf("expected fresh handle to report not cancelled")
	}
	waitDone(t, handle)

	if calls.Load() != 1 {
		t.Fatalf("expected exactly one completion, got %d", calls.Load())
	}
	if !got.OK() || got.Value.AccessToken != "abc" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAuthenticateAsync_ReportsNotConfiguredThroughCallback(t *testing.T) {
	manager, err := NewManager()
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	var calls atomic.Int32
	var got Result[Token]
	handle := manager.AuthenticateAsync(context.Background(), "ada", nil, func(result Result[Token]) {
		calls.Add(1)
		got = result
	})
	waitDone(t, handle)

	if calls.Load() != 1 {
		t.Fatalf("expected exactly one completion, got %d", calls.Load())
	}
	if !IsNotConfigured(got.Err) {
		t.Fatalf("expected not configured error, got %v", got.Err)
	}
}

func TestAuthenticateAsync_CancelStillCompletesOnce(t *testing.T) {
	started := make(chan struct{})
	transport := &scriptedTransport{
		respond: func(ctx context.Context, _ TransportRequest) (TransportResponse, error) {
			close(started)
			<-ctx.Done()
			return TransportResponse{}, ctx.Err()
		},
	}
	manager := newConfiguredManager(t, transport)

	var calls atomic.Int32
	var got Result[Token]
	handle := manager.AuthenticateAsync(context.Background(), "ada", nil, func(result Result[Token]) {
		calls.Add(1)
		got = result
	})
	<-started
	handle.Cancel()
	handle.Cancel()
	waitDone(t, handle)

	if !handle.IsCancelled() {
		t.Fatalf("expected handle to report cancelled")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one completion, got %d", calls.Load())
	}
	if !errors.Is(got.Err, context.Canceled) {
		t.Fatalf("expected context cancellation cause, got %v", got.Err)
	}
	if TextCode(got.Err) != ErrorCancelled {
		t.Fatalf("expected %s, got %q", ErrorCancelled, TextCode(got.Err))
	}
}

func TestLogoutAsync_InvokesCompletionOffCallerGoroutine(t *testing.T) {
	manager := newConfiguredManager(t, routedTransport(map[string]string{
		DefaultLogoutEndpoint: `{"status":"ok"}`,
	}))

	release := make(chan struct{})
	var calls atomic.Int32
	handle := manager.LogoutAsync(context.Background(), func(result Result[LogoutStatus]) {
		<-release
		calls.Add(1)
		if !result.OK() || !result.Value.Success {
			t.Errorf("unexpected logout result: %+v", result)
		}
	})
	// The callback blocks until released, so returning here proves it runs elsewhere.
	if calls.Load() != 0 {
		t.Fatalf("expected callback to not have run yet")
	}
	close(release)
	waitDone(t, handle)
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one completion, got %d", calls.Load())
	}
}

func TestAsync_NilCallbackIsAllowed(t *testing.T) {
	manager := newConfiguredManager(t, routedTransport(map[string]string{
		DefaultLoginEndpoint: `{"token":"abc"}`,
	}))
	handle := manager.AuthenticateAsync(context.Background(), "ada", nil, nil)
	waitDone(t, handle)
	if _, err := manager.CurrentSession(context.Background()); err != nil {
		t.Fatalf("expected session after nil-callback authenticate: %v", err)
	}
}

func TestAsync_RecoversPanickingTransport(t *testing.T) {
	transport := &scriptedTransport{
		respond: func(context.Context, TransportRequest) (TransportResponse, error) {
			panic("boom")
		},
	}
	manager := newConfiguredManager(t, transport)

	var got Result[Token]
	handle := manager.AuthenticateAsync(context.Background(), "ada", nil, func(result Result[Token]) {
		got = result
	})
	waitDone(t, handle)
	if TextCode(got.Err) != ErrorInternal {
		t.Fatalf("expected %s, got %v", ErrorInternal, got.Err)
	}
}

func TestCancellable_NilHandleIsSafe(t *testing.T) {
	var handle *Cancellable
	handle.Cancel()
	if handle.IsCancelled() {
		t.Fatalf("expected nil handle to report not cancelled")
	}
	select {
	case <-handle.Done():
	default:
		t.Fatalf("expected nil handle to be done")
	}
}
