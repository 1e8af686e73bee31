package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig
	Lookup    LookupConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Support   SupportConfig
	Log       LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LookupConfig selects the data source and wizard behavior.
type LookupConfig struct {
	// Source is "static" or "postgres".
	Source string
	Delay  time.Duration
	// ReturnStep is where Check Another leads: "welcome" or "enter_id".
	ReturnStep string `mapstructure:"return_step"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32 `mapstructure:"max_conns"`
}

// RedisConfig enables the lookup cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// SessionConfig controls the signed wizard cookie.
type SessionConfig struct {
	Secret     string
	CookieName string `mapstructure:"cookie_name"`
	TTL        time.Duration
	Secure     bool
}

// RateLimitConfig bounds lookups per client address.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// SupportConfig is the contact information shown in every page footer.
type SupportConfig struct {
	Email string
	Phone string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Source values for LookupConfig.Source.
const (
	SourceStatic   = "static"
	SourcePostgres = "postgres"
)

// Load reads configuration from file and env. Env var overrides use prefix
// STATUSLOOKUP_. An explicit path wins over STATUSLOOKUP_CONFIG, which wins
// over the default search path.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("lookup.source", SourceStatic)
	v.SetDefault("lookup.delay", 1500*time.Millisecond)
	v.SetDefault("lookup.return_step", "welcome")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "statuslookup_wizard")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.secure", false)
	v.SetDefault("rate_limit.rps", 5.0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("support.email", "support@scholarfundtest.org")
	v.SetDefault("support.phone", "(555) 123-4567")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("STATUSLOOKUP_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "statuslookup"))
		v.AddConfigPath(".")
		v.SetConfigName("statuslookup")
	}

	v.SetEnvPrefix("STATUSLOOKUP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing file is only an error when one was asked for
		if _, notFound := err.(viper.ConfigFileNotFoundError); explicit || !notFound {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the rest of the program cannot act on.
func (c Config) Validate() error {
	switch c.Lookup.Source {
	case SourceStatic:
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("config: lookup.source %q requires database.url", c.Lookup.Source)
		}
	default:
		return fmt.Errorf("config: unknown lookup.source %q", c.Lookup.Source)
	}
	switch c.Lookup.ReturnStep {
	case "welcome", "enter_id":
	default:
		return fmt.Errorf("config: unknown lookup.return_step %q", c.Lookup.ReturnStep)
	}
	if c.Lookup.Delay < 0 {
		return fmt.Errorf("config: lookup.delay must not be negative")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}
