package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-apiclient/core"
)

const sampleTOML = `
service_name = "billing"

[remote]
host = "api.example.com"
timeout = "5s"

[stub]
enabled = false
directories = ["fixtures/a", "fixtures/b"]

[stub.routes]
"POST /auth/login" = "login"

[logging]
level = "debug"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apiclient.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestTOMLLoader_ReadsFile(t *testing.T) {
	loader := &TOMLLoader{Path: writeConfig(t, sampleTOML), Lookup: noEnv}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	remote := raw["remote"].(map[string]any)
	if remote["host"] != "api.example.com" {
		t.Fatalf("unexpected host %v", remote["host"])
	}
	if remote["timeout"] != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", remote["timeout"])
	}
	if raw["service_name"] != "billing" {
		t.Fatalf("unexpected service name %v", raw["service_name"])
	}
}

func TestTOMLLoader_MissingFileIsEmpty(t *testing.T) {
	loader := &TOMLLoader{Path: filepath.Join(t.TempDir(), "absent.toml"), Lookup: noEnv}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty map, got %v", raw)
	}
}

func TestTOMLLoader_EnvOverridesFile(t *testing.T) {
	env := map[string]string{
		EnvHost:        "override.example.com",
		EnvStubEnabled: "true",
		EnvLogLevel:    "WARN",
		EnvTimeout:     "250ms",
	}
	loader := &TOMLLoader{Path: writeConfig(t, sampleTOML), Lookup: func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if raw["remote"].(map[string]any)["host"] != "override.example.com" {
		t.Fatalf("expected env host override")
	}
	if raw["remote"].(map[string]any)["timeout"] != 250*time.Millisecond {
		t.Fatalf("expected env timeout override")
	}
	if raw["stub"].(map[string]any)["enabled"] != true {
		t.Fatalf("expected env stub override")
	}
	if raw["logging"].(map[string]any)["level"] != "warn" {
		t.Fatalf("expected lowercased env log level")
	}
}

func TestTOMLLoader_RejectsInvalidValues(t *testing.T) {
	bad := &TOMLLoader{Path: writeConfig(t, "[remote]\ntimeout = \"soon\"\n"), Lookup: noEnv}
	if _, err := bad.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected invalid timeout error")
	}
	malformed := &TOMLLoader{Path: writeConfig(t, "service_name = "), Lookup: noEnv}
	if _, err := malformed.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
	badEnv := &TOMLLoader{Lookup: func(key string) (string, bool) {
		if key == EnvStubEnabled {
			return "maybe", true
		}
		return "", false
	}}
	if _, err := badEnv.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected invalid stub flag error")
	}
}

func TestTOMLLoader_IntegerTimeoutIsSeconds(t *testing.T) {
	loader := &TOMLLoader{Path: writeConfig(t, "[remote]\ntimeout = 3\n"), Lookup: noEnv}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if raw["remote"].(map[string]any)["timeout"] != 3*time.Second {
		t.Fatalf("expected 3s, got %v", raw["remote"].(map[string]any)["timeout"])
	}
}

func TestTOMLLoader_FeedsManagerConfiguration(t *testing.T) {
	loader := &TOMLLoader{Path: writeConfig(t, sampleTOML), Lookup: noEnv}
	loaded, err := core.NewCfgxConfigProvider(loader).Load(context.Background(), core.DefaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded.ServiceName != "billing" || loaded.Remote.Host != "api.example.com" {
		t.Fatalf("unexpected loaded config %#v", loaded)
	}
	if loaded.Remote.Timeout != 5*time.Second || loaded.Logging.Level != "debug" {
		t.Fatalf("unexpected remote/logging %#v %#v", loaded.Remote, loaded.Logging)
	}
	if len(loaded.Stub.Directories) != 2 || loaded.Stub.Routes["POST /auth/login"] != "login" {
		t.Fatalf("unexpected stub config %#v", loaded.Stub)
	}
}
