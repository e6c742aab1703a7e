// Package config loads client configuration from a TOML file and APICLIENT_*
// environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/goliatone/go-apiclient/core"
)

const (
	EnvHost        = "APICLIENT_HOST"
	EnvStubEnabled = "APICLIENT_STUB_ENABLED"
	EnvLogLevel    = "APICLIENT_LOG_LEVEL"
	EnvTimeout     = "APICLIENT_TIMEOUT"
)

// TOMLLoader implements core.RawConfigLoader. A missing file yields an empty
// map so environment overrides and defaults still apply.
type TOMLLoader struct {
	Path   string
	Lookup func(key string) (string, bool)
}

func NewTOMLLoader(path string) *TOMLLoader {
	return &TOMLLoader{Path: path, Lookup: os.LookupEnv}
}

func (l *TOMLLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := l.readFile()
	if err != nil {
		return nil, err
	}
	if err := normalizeDurations(raw); err != nil {
		return nil, err
	}
	if err := l.applyEnv(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (l *TOMLLoader) readFile() (map[string]any, error) {
	raw := map[string]any{}
	if l == nil || strings.TrimSpace(l.Path) == "" {
		return raw, nil
	}
	resolved, err := expandPath(l.Path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", resolved, err)
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", resolved, err)
	}
	return raw, nil
}

func (l *TOMLLoader) applyEnv(raw map[string]any) error {
	lookup := os.LookupEnv
	if l != nil && l.Lookup != nil {
		lookup = l.Lookup
	}
	if value, ok := lookup(EnvHost); ok && strings.TrimSpace(value) != "" {
		section(raw, "remote")["host"] = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvTimeout); ok && strings.TrimSpace(value) != "" {
		timeout, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %s is invalid: %w", EnvTimeout, err)
		}
		section(raw, "remote")["timeout"] = timeout
	}
	if value, ok := lookup(EnvStubEnabled); ok && strings.TrimSpace(value) != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %s is invalid: %w", EnvStubEnabled, err)
		}
		section(raw, "stub")["enabled"] = enabled
	}
	if value, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		section(raw, "logging")["level"] = strings.ToLower(strings.TrimSpace(value))
	}
	return nil
}

// normalizeDurations turns remote.timeout into a time.Duration. Strings use
// time.ParseDuration; bare integers are seconds.
func normalizeDurations(raw map[string]any) error {
	remote, ok := raw["remote"].(map[string]any)
	if !ok {
		return nil
	}
	switch typed := remote["timeout"].(type) {
	case nil, time.Duration:
	case string:
		timeout, err := time.ParseDuration(strings.TrimSpace(typed))
		if err != nil {
			return fmt.Errorf("config: remote.timeout is invalid: %w", err)
		}
		remote["timeout"] = timeout
	case int64:
		remote["timeout"] = time.Duration(typed) * time.Second
	case float64:
		remote["timeout"] = time.Duration(typed * float64(time.Second))
	default:
		return fmt.Errorf("config: remote.timeout has unsupported type %T", typed)
	}
	return nil
}

func section(raw map[string]any, name string) map[string]any {
	if existing, ok := raw[name].(map[string]any); ok {
		return existing
	}
	created := map[string]any{}
	raw[name] = created
	return created
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

var _ core.RawConfigLoader = (*TOMLLoader)(nil)
