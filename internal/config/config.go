// Package config loads runtime settings from defaults, an optional YAML file and ROUTINE_* env vars.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/hkdf"
)

// EnvProduction enables secure cookies, JSON logs and the secret requirement.
const EnvProduction = "production"

// Database driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// HKDF info labels. Changing one invalidates everything signed with the derived key.
const (
	csrfKeyInfo  = "routineos csrf v1"
	tokenKeyInfo = "routineos magic-link v1"
)

// Config is the resolved application configuration.
type Config struct {
	Env                string         `mapstructure:"env"`
	Addr               string         `mapstructure:"addr"`
	BaseURL            string         `mapstructure:"base_url"`
	Database           DatabaseConfig `mapstructure:"database"`
	Secret             string         `mapstructure:"secret"`
	Timezone           string         `mapstructure:"timezone"`
	Session            SessionConfig  `mapstructure:"session"`
	MagicLink          MagicLinkCfg   `mapstructure:"magic_link"`
	Email              EmailConfig    `mapstructure:"email"`
	Realtime           RealtimeConfig `mapstructure:"realtime"`
	RateLimitPerSecond int            `mapstructure:"rate_limit_per_second"`
	SlowQueryMs        int            `mapstructure:"slow_query_ms"`
	SlowRequestMs      int            `mapstructure:"slow_request_ms"`
	LogLevel           string         `mapstructure:"log_level"`

	secret   []byte
	location *time.Location
}

// DatabaseConfig selects and locates the database.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

// SessionConfig controls sign-in session lifetime.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MagicLinkCfg controls sign-in link lifetime.
type MagicLinkCfg struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// EmailConfig configures Resend delivery. An empty key means emails are only logged.
type EmailConfig struct {
	ResendKey string `mapstructure:"resend_key"`
	From      string `mapstructure:"from"`
}

// RealtimeConfig selects the change notifier. An empty RedisAddr uses the in-process hub.
type RealtimeConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "routine.db")
	v.SetDefault("database.url", "")
	v.SetDefault("secret", "")
	v.SetDefault("timezone", "")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("magic_link.ttl", 15*time.Minute)
	v.SetDefault("email.resend_key", "")
	v.SetDefault("email.from", "Routine OS <noreply@routineos.app>")
	v.SetDefault("realtime.redis_addr", "")
	v.SetDefault("rate_limit_per_second", 10)
	v.SetDefault("slow_query_ms", 50)
	v.SetDefault("slow_request_ms", 200)
	v.SetDefault("log_level", "info")
}

// Load resolves configuration. configFile may be empty, in which case ./routine.yaml is
// read when present.
// PRE: none
// POST: Returns a validated Config with secret and time zone resolved
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("routine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ROUTINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates fields and fills the derived secret and location.
func (c *Config) resolve() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Session.TTL <= 0 || c.MagicLink.TTL <= 0 {
		return errors.New("session.ttl and magic_link.ttl must be positive")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	c.location = time.Local
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
		c.location = loc
	}

	if c.Secret != "" {
		key, err := hex.DecodeString(c.Secret)
		if err != nil || len(key) != 32 {
			return errors.New("secret must be 64 hex characters (32 bytes)")
		}
		c.secret = key
		return nil
	}
	if c.IsProduction() {
		return errors.New("secret is required in production (set ROUTINE_SECRET)")
	}
	c.secret = make([]byte, 32)
	if _, err := rand.Read(c.secret); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	slog.Warn("config_random_secret", "detail", "sessions and sign-in links won't survive restart; set ROUTINE_SECRET")
	return nil
}

// IsProduction reports whether the app runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location is the time zone that defines "today". Empty timezone means the server's zone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// CSRFKey returns the 32-byte key for gorilla/csrf.
func (c *Config) CSRFKey() []byte {
	return c.deriveKey(csrfKeyInfo)
}

// TokenKey returns the 32-byte HMAC key for magic-link JWTs.
func (c *Config) TokenKey() []byte {
	return c.deriveKey(tokenKeyInfo)
}

func (c *Config) deriveKey(info string) []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, c.secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF-SHA256 can emit up to 8160 bytes; 32 never fails.
		panic(err)
	}
	return key
}

// SlogLevel maps LogLevel onto slog levels; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
