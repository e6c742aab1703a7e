package stubs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source is one candidate location probed by a Locator.
type Source interface {
	Name() string
	Read(file string) ([]byte, error)
}

type bundleSource struct {
	name   string
	bundle fs.FS
}

// BundleSource looks resources up at the root of bundle.
func BundleSource(name string, bundle fs.FS) Source {
	return bundleSource{name: name, bundle: bundle}
}

func (s bundleSource) Name() string {
	return "bundle:" + s.name
}

func (s bundleSource) Read(file string) ([]byte, error) {
	if s.bundle == nil {
		return nil, fs.ErrNotExist
	}
	if !fs.ValidPath(file) {
		return nil, fs.ErrInvalid
	}
	return fs.ReadFile(s.bundle, file)
}

type dirSource struct {
	dir     string
	baseDir string
}

// DirSource reads {dir}/{file} on disk. Relative dirs resolve against
// baseDir, or the process working directory when baseDir is empty.
func DirSource(dir string, baseDir string) Source {
	return dirSource{dir: dir, baseDir: baseDir}
}

func (s dirSource) Name() string {
	return "dir:" + s.dir
}

func (s dirSource) Read(file string) ([]byte, error) {
	if !fs.ValidPath(file) || strings.Contains(file, `\`) {
		return nil, fs.ErrInvalid
	}
	dir := filepath.FromSlash(s.dir)
	if !filepath.IsAbs(dir) && s.baseDir != "" {
		dir = filepath.Join(s.baseDir, dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(file)))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func isMiss(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) || errors.Is(err, fs.ErrPermission)
}

func resourceFile(ref Reference) string {
	return path.Clean(ref.Name + "." + ref.Extension)
}
