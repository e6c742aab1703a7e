package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
)

type scriptedTransport struct {
	kind     string
	mu       sync.Mutex
	requests []TransportRequest
	respond  func(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

func (t *scriptedTransport) Kind() string {
	if t.kind == "" {
		return TransportKindStub
	}
	return t.kind
}

func (t *scriptedTransport) Do(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	if t.respond == nil {
		return TransportResponse{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}
	return t.respond(ctx, req)
}

func (t *scriptedTransport) captured() []TransportRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TransportRequest, len(t.requests))
	copy(out, t.requests)
	return out
}

// routedTransport answers by endpoint path.
func routedTransport(routes map[string]string) *scriptedTransport {
	return &scriptedTransport{
		respond: func(_ context.Context, req TransportRequest) (TransportResponse, error) {
			body, ok := routes[req.Path]
			if !ok {
				return TransportResponse{StatusCode: http.StatusNotFound}, nil
			}
			return TransportResponse{
				StatusCode: http.StatusOK,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       []byte(body),
			}, nil
		},
	}
}

type staticTransportResolver struct {
	mu      sync.Mutex
	adapter TransportAdapter
	kinds   []string
	err     error
}

func (r *staticTransportResolver) Build(kind string, _ Config) (TransportAdapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	if r.err != nil {
		return nil, r.err
	}
	if r.adapter == nil {
		return nil, fmt.Errorf("no adapter for %s", kind)
	}
	return r.adapter, nil
}

type stubLoggerProvider struct {
	logger Logger
}

func (p stubLoggerProvider) GetLogger(string) Logger {
	return p.logger
}

func stubConfig() Config {
	cfg := DefaultConfig()
	cfg.Stub.Enabled = Bool(true)
	return cfg
}

func newConfiguredManager(t *testing.T, transport TransportAdapter, opts ...Option) *Manager {
	t.Helper()
	resolver := &staticTransportResolver{adapter: transport}
	manager, err := NewManager(append([]Option{WithTransportResolver(resolver)}, opts...)...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := manager.Configure(context.Background(), stubConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return manager
}
