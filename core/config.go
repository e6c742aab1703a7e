package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultLoginEndpoint    = "/auth/login"
	DefaultLogoutEndpoint   = "/auth/logout"
	DefaultStubExtension    = "json"
	DefaultUserAgent        = "go-apiclient/1.0"
	DefaultRequestTimeout   = 30 * time.Second
	StubbedResponsesDirPath = "Tests/Resources/Stubbed Responses"
	JSONFixturesDirPath     = "Tests/Resources/JSON"
)

type RemoteConfig struct {
	Host      string        `koanf:"host" mapstructure:"host"`
	UserAgent string        `koanf:"user_agent" mapstructure:"user_agent"`
	Timeout   time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

// StubConfig.Enabled is tri-state: nil leaves the toggle to lower config
// layers, while an explicit false in the runtime config forces live mode.
type StubConfig struct {
	Enabled     *bool             `koanf:"enabled" mapstructure:"enabled"`
	BaseDir     string            `koanf:"base_dir" mapstructure:"base_dir"`
	Directories []string          `koanf:"directories" mapstructure:"directories"`
	Extension   string            `koanf:"extension" mapstructure:"extension"`
	Routes      map[string]string `koanf:"routes" mapstructure:"routes"`
}

type LoggingConfig struct {
	Level string `koanf:"level" mapstructure:"level"`
}

type EndpointConfig struct {
	Login  string `koanf:"login" mapstructure:"login"`
	Logout string `koanf:"logout" mapstructure:"logout"`
}

// Config is installed into a Manager by Configure before any request runs.
type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Remote      RemoteConfig   `koanf:"remote" mapstructure:"remote"`
	Stub        StubConfig     `koanf:"stub" mapstructure:"stub"`
	Logging     LoggingConfig  `koanf:"logging" mapstructure:"logging"`
	Endpoints   EndpointConfig `koanf:"endpoints" mapstructure:"endpoints"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "apiclient",
		Remote: RemoteConfig{
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultRequestTimeout,
		},
		Stub: StubConfig{
			Directories: []string{StubbedResponsesDirPath, JSONFixturesDirPath},
			Extension:   DefaultStubExtension,
			Routes:      map[string]string{},
		},
		Logging: LoggingConfig{Level: LogLevelInfo},
		Endpoints: EndpointConfig{
			Login:  DefaultLoginEndpoint,
			Logout: DefaultLogoutEndpoint,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if !c.Stub.IsEnabled() {
		host := strings.TrimSpace(c.Remote.Host)
		if host == "" {
			return fmt.Errorf("core: remote host is required when stub mode is disabled")
		}
		if _, err := url.Parse(normalizeHost(host)); err != nil {
			return fmt.Errorf("core: remote host is invalid: %w", err)
		}
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("core: remote timeout must not be negative")
	}
	if _, ok := parseLogLevel(c.Logging.Level); !ok {
		return fmt.Errorf("core: logging level %q is invalid", c.Logging.Level)
	}
	if strings.TrimSpace(c.Endpoints.Login) == "" {
		return fmt.Errorf("core: login endpoint is required")
	}
	if strings.TrimSpace(c.Endpoints.Logout) == "" {
		return fmt.Errorf("core: logout endpoint is required")
	}
	return nil
}

// BaseURL returns the remote host as an absolute URL, defaulting the scheme to https.
func (c Config) BaseURL() (*url.URL, error) {
	host := strings.TrimSpace(c.Remote.Host)
	if host == "" {
		return &url.URL{}, nil
	}
	parsed, err := url.Parse(normalizeHost(host))
	if err != nil {
		return nil, fmt.Errorf("core: parse remote host %q: %w", host, err)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed, nil
}

// EndpointURL joins an endpoint path onto the remote host.
func (c Config) EndpointURL(endpoint string) (string, error) {
	base, err := c.BaseURL()
	if err != nil {
		return "", err
	}
	endpoint = strings.TrimSpace(endpoint)
	if strings.Contains(endpoint, "://") {
		return endpoint, nil
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if base.Host == "" {
		return endpoint, nil
	}
	resolved := *base
	resolved.Path = base.Path + endpoint
	return resolved.String(), nil
}

func normalizeHost(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// IsEnabled reports whether stub mode is on; an unset toggle is off.
func (s StubConfig) IsEnabled() bool {
	return s.Enabled != nil && *s.Enabled
}

// Bool returns a pointer to v, for tri-state config fields.
func Bool(v bool) *bool {
	return &v
}

func cloneConfig(in Config) Config {
	out := in
	if in.Stub.Enabled != nil {
		out.Stub.Enabled = Bool(*in.Stub.Enabled)
	}
	out.Stub.Directories = append([]string(nil), in.Stub.Directories...)
	out.Stub.Routes = make(map[string]string, len(in.Stub.Routes))
	for key, value := range in.Stub.Routes {
		out.Stub.Routes[key] = value
	}
	return out
}
