// Package stubs resolves canned response fixtures used in place of live
// API calls.
//
// A Locator probes an ordered list of sources and returns the first match:
// the library bundle, the main bundle, then the on-disk
// "Tests/Resources/Stubbed Responses" and "Tests/Resources/JSON"
// directories. A miss never errors on the Resolve path. It signals the
// miss handler and yields an empty payload so decoding fails downstream.
package stubs

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-apiclient/core"
)

const DefaultExtension = core.DefaultStubExtension

// ErrResourceNotFound is the cause of the envelope returned by Lookup on a miss.
var ErrResourceNotFound = errors.New("stubs: resource not found")

// Reference names a fixture to resolve.
type Reference struct {
	Name      string
	Extension string
}

func (r Reference) String() string {
	return r.Name + "." + r.Extension
}

// MissHandler is signalled when every source misses.
type MissHandler func(ref Reference)

type Locator struct {
	sources []Source
	logger  glog.Logger
	onMiss  MissHandler
}

type Option func(*locatorBuilder)

type locatorBuilder struct {
	bundles     []namedBundle
	directories []string
	baseDir     string
	sources     []Source
	logger      glog.Logger
	onMiss      MissHandler
	strict      bool
}

type namedBundle struct {
	name   string
	bundle fs.FS
}

// WithBundles sets the bundles probed first, in priority order. The first
// is conventionally the library bundle and the second the main bundle.
func WithBundles(bundles ...fs.FS) Option {
	return func(b *locatorBuilder) {
		b.bundles = b.bundles[:0]
		for index, bundle := range bundles {
			if bundle == nil {
				continue
			}
			b.bundles = append(b.bundles, namedBundle{name: bundleName(index), bundle: bundle})
		}
	}
}

func WithDirectories(dirs ...string) Option {
	return func(b *locatorBuilder) {
		b.directories = append([]string(nil), dirs...)
	}
}

func WithBaseDir(dir string) Option {
	return func(b *locatorBuilder) {
		b.baseDir = strings.TrimSpace(dir)
	}
}

// WithSources replaces the whole candidate list.
func WithSources(sources ...Source) Option {
	return func(b *locatorBuilder) {
		b.sources = append([]Source(nil), sources...)
	}
}

func WithLogger(logger glog.Logger) Option {
	return func(b *locatorBuilder) {
		b.logger = logger
	}
}

func WithMissHandler(handler MissHandler) Option {
	return func(b *locatorBuilder) {
		b.onMiss = handler
	}
}

// WithStrict makes the default miss handler panic.
func WithStrict() Option {
	return func(b *locatorBuilder) {
		b.strict = true
	}
}

func NewLocator(opts ...Option) *Locator {
	builder := locatorBuilder{
		directories: []string{core.StubbedResponsesDirPath, core.JSONFixturesDirPath},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&builder)
		}
	}
	_, logger := glog.Resolve("apiclient.stubs", nil, builder.logger)

	sources := builder.sources
	if sources == nil {
		sources = make([]Source, 0, len(builder.bundles)+len(builder.directories))
		for _, bundle := range builder.bundles {
			sources = append(sources, BundleSource(bundle.name, bundle.bundle))
		}
		for _, dir := range builder.directories {
			if strings.TrimSpace(dir) == "" {
				continue
			}
			sources = append(sources, DirSource(dir, builder.baseDir))
		}
	}

	locator := &Locator{sources: sources, logger: logger, onMiss: builder.onMiss}
	if locator.onMiss == nil {
		locator.onMiss = locator.defaultMissHandler(builder.strict)
	}
	return locator
}

// Resolve returns the bytes of the "json" fixture called name.
func (l *Locator) Resolve(name string) []byte {
	return l.ResolveExtension(name, DefaultExtension)
}

// ResolveExtension returns the first matching fixture, or an empty slice
// after signalling the miss handler.
func (l *Locator) ResolveExtension(name string, ext string) []byte {
	ref := NewReference(name, ext)
	if l == nil {
		return []byte{}
	}
	data, source, ok := l.probe(ref)
	if !ok {
		l.onMiss(ref)
		return []byte{}
	}
	l.logger.Trace("stub resolved", "resource", ref.String(), "source", source)
	return data
}

// Lookup is the explicit variant of ResolveExtension. It returns an
// API_RESOURCE_NOT_FOUND envelope on a miss and never signals the handler.
func (l *Locator) Lookup(name string, ext string) ([]byte, error) {
	ref := NewReference(name, ext)
	if l != nil {
		if data, _, ok := l.probe(ref); ok {
			return data, nil
		}
	}
	return nil, goerrors.Wrap(ErrResourceNotFound, goerrors.CategoryNotFound, fmt.Sprintf("stub resource %q not found", ref.String())).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ErrorResourceNotFound).
		WithMetadata(map[string]any{
			"name":      ref.Name,
			"extension": ref.Extension,
		})
}

// Sources returns a copy of the candidate list in probe order.
func (l *Locator) Sources() []Source {
	if l == nil {
		return nil
	}
	return append([]Source(nil), l.sources...)
}

// NewReference applies the extension defaults: empty means "json" and a
// leading dot is dropped.
func NewReference(name string, ext string) Reference {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return Reference{Name: strings.TrimSpace(name), Extension: ext}
}

func (l *Locator) probe(ref Reference) ([]byte, string, bool) {
	if ref.Name == "" {
		return nil, "", false
	}
	file := resourceFile(ref)
	for _, source := range l.sources {
		if source == nil {
			continue
		}
		data, err := source.Read(file)
		if err != nil {
			if !isMiss(err) {
				l.logger.Debug("stub source read failed", "resource", file, "source", source.Name(), "error", err)
			}
			continue
		}
		if data == nil {
			data = []byte{}
		}
		return data, source.Name(), true
	}
	return nil, "", false
}

func (l *Locator) defaultMissHandler(strict bool) MissHandler {
	return func(ref Reference) {
		if strict {
			panic(fmt.Sprintf("stubs: no stubbed response for %s", ref.String()))
		}
		l.logger.Error("no stubbed response found", "resource", ref.String(), "sources", len(l.sources))
	}
}

func bundleName(index int) string {
	switch index {
	case 0:
		return "library"
	case 1:
		return "main"
	default:
		return fmt.Sprintf("bundle-%d", index)
	}
}
