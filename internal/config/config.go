package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sitebuilder/internal/theme"
)

// Config models sitebuilder.yml.
type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		BasePath    string `yaml:"base_path"`
		JWTSecret   string `yaml:"jwt_secret"`
		TokenTTL    string `yaml:"token_ttl"`
		DevLogin    bool   `yaml:"dev_login"`
		SessionIdle string `yaml:"session_idle"`
	} `yaml:"server"`
	Storage struct {
		Driver    string `yaml:"driver"`
		Workspace string `yaml:"workspace"`
		Mongo     struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`
	Export struct {
		Backend string `yaml:"backend"`
		Remote  struct {
			URL            string `yaml:"url"`
			APIKeyEnv      string `yaml:"api_key_env"`
			Model          string `yaml:"model"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
		} `yaml:"remote"`
	} `yaml:"export"`
	Editor struct {
		HistoryLimit int  `yaml:"history_limit"`
		StrictTypes  bool `yaml:"strict_types"`
	} `yaml:"editor"`
	Themes struct {
		Default string        `yaml:"default"`
		Custom  []theme.Theme `yaml:"custom"`
	} `yaml:"themes"`
	Events struct {
		NATS struct {
			URL     string `yaml:"url"`
			Subject string `yaml:"subject"`
		} `yaml:"nats"`
		Webhooks []WebhookConfig `yaml:"webhooks"`
	} `yaml:"events"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// WebhookConfig is one outbound event subscription.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

const (
	DriverSQLite  = "sqlite"
	DriverMongo   = "mongo"
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Load reads and validates the config of a workspace. A missing file yields
// the defaults.
func Load(workspace string) (*Config, error) {
	cfg, err := LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
		if cfg.Storage.Workspace == "" || cfg.Storage.Workspace == "." {
			cfg.Storage.Workspace = workspace
		}
	}
	return cfg, nil
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverMongo:
		if strings.TrimSpace(c.Storage.Mongo.URI) == "" {
			return fmt.Errorf("storage.mongo.uri is required for driver mongo")
		}
		if strings.TrimSpace(c.Storage.Mongo.Database) == "" {
			return fmt.Errorf("storage.mongo.database is required for driver mongo")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q", DriverSQLite, DriverMongo)
	}
	switch c.Export.Backend {
	case BackendLocal:
	case BackendRemote:
		if strings.TrimSpace(c.Export.Remote.URL) == "" {
			return fmt.Errorf("export.remote.url is required for backend remote")
		}
	default:
		return fmt.Errorf("export.backend must be %q or %q", BackendLocal, BackendRemote)
	}
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative")
	}
	for name, v := range map[string]string{"server.token_ttl": c.Server.TokenTTL, "server.session_idle": c.Server.SessionIdle} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, err := c.Palette(); err != nil {
		return fmt.Errorf("themes: %w", err)
	}
	for i, hook := range c.Events.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("events.webhooks[%d].url is required", i)
		}
	}
	return nil
}

// Palette returns the built-in themes extended by the custom ones.
func (c *Config) Palette() (*theme.Palette, error) {
	return theme.Builtin().With(c.Themes.Default, c.Themes.Custom...)
}

// TokenTTLDuration returns the bearer token lifetime.
func (c *Config) TokenTTLDuration() time.Duration {
	return parseDuration(c.Server.TokenTTL, 24*time.Hour)
}

// SessionIdleDuration returns how long an untouched editor session is kept.
func (c *Config) SessionIdleDuration() time.Duration {
	return parseDuration(c.Server.SessionIdle, 30*time.Minute)
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "sitebuilder.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses config from raw YAML bytes over the defaults and validates it.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v0
  jwt_secret: ""
  token_ttl: 24h
  dev_login: false
  session_idle: 30m

storage:
  driver: sqlite
  workspace: .
  mongo:
    uri: ""
    database: sitebuilder

export:
  backend: local
  remote:
    url: ""
    api_key_env: SITEBUILDER_CODEGEN_KEY
    model: ""
    timeout_seconds: 60

editor:
  history_limit: 100
  strict_types: false

themes:
  default: light
  custom: []

events:
  nats:
    url: ""
    subject: sitebuilder.events
  webhooks: []

metrics:
  enabled: true
`
