package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	StoreLocal  = "local"
	StoreRemote = "remote"
)

// ErrInvalid indicates a configuration value outside its allowed set.
var ErrInvalid = errors.New("invalid configuration")

// Config defines configuration for both binaries.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	View      ViewConfig      `yaml:"view"`
}

// ServerConfig is the backend HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path, when set, sends logs to a size-capped file.
	Path string `yaml:"path"`
}

// TransportConfig selects how the MCP app talks to its client.
type TransportConfig struct {
	Mode string `yaml:"mode"`
	Port int    `yaml:"port"`
}

// StoreConfig selects where todos and accounts live: the local database or
// a backend server at URL.
type StoreConfig struct {
	Mode string `yaml:"mode"`
	URL  string `yaml:"url"`
}

type AuthConfig struct {
	// CredentialsPath is where the access token is kept. Empty means the
	// default under the home directory.
	CredentialsPath string `yaml:"credentials_path"`
}

type ViewConfig struct {
	// URL is the initial location; its filter parameter restores the view.
	URL string `yaml:"url"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "checklist.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: TransportStdio,
			Port: 8081,
		},
		Store: StoreConfig{
			Mode: StoreLocal,
			URL:  "http://localhost:8080",
		},
		View: ViewConfig{
			URL: "/",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CHECKLIST_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	texts := []struct {
		env string
		dst *string
	}{
		{"CHECKLIST_SERVER_HOST", &cfg.Server.Host},
		{"CHECKLIST_DB_PATH", &cfg.DB.Path},
		{"CHECKLIST_LOG_LEVEL", &cfg.Log.Level},
		{"CHECKLIST_LOG_PATH", &cfg.Log.Path},
		{"CHECKLIST_TRANSPORT", &cfg.Transport.Mode},
		{"CHECKLIST_STORE_MODE", &cfg.Store.Mode},
		{"CHECKLIST_STORE_URL", &cfg.Store.URL},
		{"CHECKLIST_CREDENTIALS_PATH", &cfg.Auth.CredentialsPath},
		{"CHECKLIST_URL", &cfg.View.URL},
	}
	for _, s := range texts {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}

	ports := []struct {
		env string
		dst *int
	}{
		{"CHECKLIST_SERVER_PORT", &cfg.Server.Port},
		{"CHECKLIST_TRANSPORT_PORT", &cfg.Transport.Port},
	}
	for _, p := range ports {
		v := os.Getenv(p.env)
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", p.env, err)
		}
		*p.dst = port
	}
	return nil
}

// Validate checks ports, modes and the log level.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalid, c.Server.Port)
	}
	if c.Transport.Port <= 0 || c.Transport.Port > 65535 {
		return fmt.Errorf("%w: transport port %d", ErrInvalid, c.Transport.Port)
	}
	switch c.Transport.Mode {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: transport mode %q", ErrInvalid, c.Transport.Mode)
	}
	switch c.Store.Mode {
	case StoreLocal:
	case StoreRemote:
		if c.Store.URL == "" {
			return fmt.Errorf("%w: remote store needs a url", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: store mode %q", ErrInvalid, c.Store.Mode)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
