// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Store     StoreConfig     `yaml:"store"`
	Spectator SpectatorConfig `yaml:"spectator"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr               string `yaml:"addr" default:":8080"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec" default:"10" validate:"gte=1,lte=120"`
}

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	TokenSecret     string `yaml:"token_secret" validate:"required"`
	TokenTTLHours   int    `yaml:"token_ttl_hours" default:"720" validate:"gte=1"`
	LoginRatePerMin int    `yaml:"login_rate_per_min" default:"10" validate:"gte=1"`
	LoginRateBurst  int    `yaml:"login_rate_burst" default:"5" validate:"gte=1"`
}

// StoreConfig represents the account store configuration.
type StoreConfig struct {
	Path string `yaml:"path" default:"tunecast.db"`
}

// SpectatorConfig represents spectator-facing configuration.
type SpectatorConfig struct {
	BaseURL          string `yaml:"base_url" default:"http://localhost:8080/spectator"`
	DefaultOffsetSec int    `yaml:"default_offset_sec" default:"45" validate:"gte=0"`
	MaxOffsetSec     int    `yaml:"max_offset_sec" default:"3600" validate:"gte=1"`
}

// ProvidersConfig represents catalog provider configuration.
type ProvidersConfig struct {
	TimeoutSec int             `yaml:"timeout_sec" default:"8" validate:"gte=1,lte=60"`
	Catalogs   []CatalogConfig `yaml:"catalogs" validate:"dive"`
}

// CatalogConfig represents a single catalog provider's configuration.
// Credentials live in Settings and are decoded by the catalog factory;
// a catalog listed without credentials is constructed as unconfigured.
type CatalogConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=spotify apple youtube"`
	Settings map[string]any `yaml:"settings"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Output string `yaml:"output" default:"stdout"`
	File   string `yaml:"file"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TUNECAST_TOKEN_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.catalogSettings("spotify")["client_id"] = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.catalogSettings("spotify")["client_secret"] = v
	}
	if v := os.Getenv("APPLE_DEVELOPER_TOKEN"); v != "" {
		c.catalogSettings("apple")["developer_token"] = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.catalogSettings("youtube")["api_key"] = v
	}
}

// catalogSettings returns the settings map for the given catalog type,
// creating the catalog entry when the file did not declare one. This lets
// credentials arrive purely through the environment.
func (c *Config) catalogSettings(typ string) map[string]any {
	for i := range c.Providers.Catalogs {
		if c.Providers.Catalogs[i].Type == typ {
			if c.Providers.Catalogs[i].Settings == nil {
				c.Providers.Catalogs[i].Settings = map[string]any{}
			}
			return c.Providers.Catalogs[i].Settings
		}
	}
	c.Providers.Catalogs = append(c.Providers.Catalogs, CatalogConfig{
		Type:     typ,
		Settings: map[string]any{},
	})
	return c.Providers.Catalogs[len(c.Providers.Catalogs)-1].Settings
}

// Catalog returns the configuration for the given catalog type.
func (c *Config) Catalog(typ string) (CatalogConfig, bool) {
	for _, cc := range c.Providers.Catalogs {
		if cc.Type == typ {
			return cc, true
		}
	}
	return CatalogConfig{}, false
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSec) * time.Second
}

// TokenTTL returns the session token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// ProviderTimeout returns the per-call catalog search timeout as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSec) * time.Second
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
