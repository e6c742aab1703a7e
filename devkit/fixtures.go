package devkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-apiclient/core"
)

// FixtureTree is a temporary base dir laid out with the two fixture
// directories the stub locator probes.
type FixtureTree struct {
	t    testing.TB
	Root string
}

func NewFixtureTree(t testing.TB) *FixtureTree {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{core.StubbedResponsesDirPath, core.JSONFixturesDirPath} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755); err != nil {
			t.Fatalf("devkit: create %s: %v", dir, err)
		}
	}
	return &FixtureTree{t: t, Root: root}
}

// StubbedResponse writes name.ext under the stubbed responses directory.
func (f *FixtureTree) StubbedResponse(name string, ext string, body string) string {
	f.t.Helper()
	return WriteFixture(f.t, filepath.Join(f.Root, filepath.FromSlash(core.StubbedResponsesDirPath)), name, ext, body)
}

// JSON writes name.ext under the JSON fixtures directory.
func (f *FixtureTree) JSON(name string, ext string, body string) string {
	f.t.Helper()
	return WriteFixture(f.t, filepath.Join(f.Root, filepath.FromSlash(core.JSONFixturesDirPath)), name, ext, body)
}

// StubConfig returns a stub-mode config rooted at the tree.
func (f *FixtureTree) StubConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Stub.Enabled = core.Bool(true)
	cfg.Stub.BaseDir = f.Root
	return cfg
}

// WriteFixture writes body to dir/name.ext, defaulting ext to json, and
// returns the file path.
func WriteFixture(t testing.TB, dir string, name string, ext string, body string) string {
	t.Helper()
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = core.DefaultStubExtension
	}
	path := filepath.Join(dir, filepath.FromSlash(name)+"."+ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("devkit: create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("devkit: write fixture %s: %v", path, err)
	}
	return path
}
