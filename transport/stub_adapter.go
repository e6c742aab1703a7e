package transport

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/core"
)

const KindStub = core.TransportKindStub

// FixtureResolver is satisfied by *stubs.Locator.
type FixtureResolver interface {
	ResolveExtension(name string, ext string) []byte
}

// StubAdapter answers every request with a fixture body instead of a
// network call. A missing fixture yields a 200 with an empty body.
type StubAdapter struct {
	Resolver  FixtureResolver
	Routes    map[string]string
	Extension string

	mu       sync.Mutex
	requests []core.TransportRequest
}

func NewStubAdapter(resolver FixtureResolver, routes map[string]string, extension string) *StubAdapter {
	normalized := make(map[string]string, len(routes))
	for key, value := range routes {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			continue
		}
		normalized[normalizeRouteKey(key)] = strings.TrimSpace(value)
	}
	return &StubAdapter{
		Resolver:  resolver,
		Routes:    normalized,
		Extension: strings.TrimPrefix(strings.TrimSpace(extension), "."),
	}
}

func (*StubAdapter) Kind() string {
	return KindStub
}

func (a *StubAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Resolver == nil {
		return core.TransportResponse{}, transportError(
			"transport: stub adapter requires a fixture resolver",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindStub},
		)
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryOperation, "transport: stub request cancelled", http.StatusRequestTimeout, map[string]any{"adapter": KindStub})
		}
	}

	a.record(req)
	extension := a.Extension
	if extension == "" {
		extension = core.DefaultStubExtension
	}
	fixture := a.FixtureFor(req)
	body := a.Resolver.ResolveExtension(fixture, extension)

	contentType := mime.TypeByExtension("." + extension)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return core.TransportResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": contentType},
		Body:       body,
		Metadata: map[string]any{
			"kind":    KindStub,
			"fixture": fixture,
		},
	}, nil
}

// FixtureFor maps a request to a fixture name: "METHOD /path" route, then
// "/path" route, then the last path segment.
func (a *StubAdapter) FixtureFor(req core.TransportRequest) string {
	requestPath := requestPath(req)
	if a != nil && len(a.Routes) > 0 {
		method := strings.ToUpper(strings.TrimSpace(req.Method))
		if name, ok := a.Routes[normalizeRouteKey(method+" "+requestPath)]; ok {
			return name
		}
		if name, ok := a.Routes[normalizeRouteKey(requestPath)]; ok {
			return name
		}
	}
	segment := path.Base(requestPath)
	if segment == "/" || segment == "." {
		return ""
	}
	return segment
}

// Requests returns the requests served so far.
func (a *StubAdapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.TransportRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *StubAdapter) record(req core.TransportRequest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
}

func requestPath(req core.TransportRequest) string {
	raw := strings.TrimSpace(req.Path)
	if raw == "" {
		raw = strings.TrimSpace(req.URL)
	}
	if parsed, err := url.Parse(raw); err == nil {
		raw = parsed.Path
	}
	if raw == "" {
		return "/"
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

func normalizeRouteKey(key string) string {
	key = strings.TrimSpace(key)
	method, rest, found := strings.Cut(key, " ")
	if !found {
		return path.Clean("/" + strings.TrimPrefix(key, "/"))
	}
	rest = strings.TrimSpace(rest)
	return strings.ToUpper(method) + " " + path.Clean("/"+strings.TrimPrefix(rest, "/"))
}

var _ core.TransportAdapter = (*StubAdapter)(nil)
