// Package config loads application configuration from an optional YAML file and
// BLOGCORE_* environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is the prefix of environment variables read by Load. A double
// underscore separates nesting levels: BLOGCORE_JWT__EXPIRY sets jwt.expiry.
const EnvPrefix = "BLOGCORE_"

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	JWT       JWTConfig       `koanf:"jwt"`
	Password  PasswordConfig  `koanf:"password"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Security  SecurityConfig  `koanf:"security"`
	Bootstrap BootstrapConfig `koanf:"bootstrap"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig contains access token settings. The signing algorithm is fixed.
type JWTConfig struct {
	PrivateKeyPath string        `koanf:"private_key_path"`
	PublicKeyPath  string        `koanf:"public_key_path"`
	Expiry         time.Duration `koanf:"expiry"`
	Issuer         string        `koanf:"issuer"`
}

// PasswordConfig contains password hashing policy.
type PasswordConfig struct {
	MinLength int `koanf:"min_length"`
	Cost      int `koanf:"cost"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig contains login rate limits.
type RateLimitConfig struct {
	// LoginPerMinute caps login requests per client IP. Zero disables it.
	LoginPerMinute int `koanf:"login_per_minute"`
	// LoginPerAccountBurst is how many attempts one email gets before throttling.
	// Zero disables the per-account throttle.
	LoginPerAccountBurst    int           `koanf:"login_per_account_burst"`
	LoginPerAccountInterval time.Duration `koanf:"login_per_account_interval"`
}

// SecurityConfig contains security header settings.
type SecurityConfig struct {
	SSLRedirect bool `koanf:"ssl_redirect"`
}

// BootstrapConfig controls first-run setup.
type BootstrapConfig struct {
	// AdminEmail, when set, is created as an ADMIN with a generated password
	// on startup unless an account with that email already exists.
	AdminEmail string `koanf:"admin_email"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			RequestTimeout:    60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			PrivateKeyPath: "keys/jwt.private.key",
			PublicKeyPath:  "keys/jwt.public.key",
			Expiry:         time.Hour,
		},
		Password: PasswordConfig{
			MinLength: 6,
			Cost:      10,
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute:          10,
			LoginPerAccountBurst:    5,
			LoginPerAccountInterval: time.Minute,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if
// path is not empty), then environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// PathFromEnv returns the config file path from CONFIG_PATH, if set.
func PathFromEnv() string {
	return os.Getenv("CONFIG_PATH")
}

// envKey maps BLOGCORE_JWT__EXPIRY to jwt.expiry. List values are comma separated.
func envKey(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	name = strings.ReplaceAll(name, "__", ".")
	if name == "cors.allowed_origins" {
		return name, splitList(value)
	}
	return name, value
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, errors.New("database.max_open_conns must be positive"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}

	if c.JWT.PrivateKeyPath == "" {
		errs = append(errs, errors.New("jwt.private_key_path is required"))
	}
	if c.JWT.PublicKeyPath == "" {
		errs = append(errs, errors.New("jwt.public_key_path is required"))
	}
	if c.JWT.Expiry <= 0 {
		errs = append(errs, errors.New("jwt.expiry must be positive"))
	}

	if c.Password.MinLength < 1 {
		errs = append(errs, errors.New("password.min_length must be positive"))
	}
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("password.cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.RateLimit.LoginPerMinute < 0 || c.RateLimit.LoginPerAccountBurst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}
	if c.RateLimit.LoginPerAccountBurst > 0 && c.RateLimit.LoginPerAccountInterval <= 0 {
		errs = append(errs, errors.New("rate_limit.login_per_account_interval must be positive"))
	}

	return errors.Join(errs...)
}
