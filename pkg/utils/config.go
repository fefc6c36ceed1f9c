package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"slimelist/pkg/database"
)

const envPrefix = "SLIMELIST_"

type ServerConfig struct {
	HTTPAddr string   `toml:"http_addr"`
	GRPCAddr string   `toml:"grpc_addr"`
	Proxies  []string `toml:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite3 or pgx
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type AuthConfig struct {
	JWTSecret   string        `toml:"jwt_secret"`
	JWTIssuer   string        `toml:"jwt_issuer"`
	JWTTTLHours int           `toml:"jwt_ttl_hours"`
	JWTDuration time.Duration `toml:"-"`
}

// CatalogConfig tunes the upstream client. MaxAttempts 0 retries rate limits
// forever; Backoff is "fixed" or "exponential".
type CatalogConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	Backoff        string `toml:"backoff"`
	BackoffMillis  int    `toml:"backoff_ms"`
	MaxBackoffMS   int    `toml:"max_backoff_ms"`
	MaxConcurrent  int    `toml:"max_concurrent"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Logging  LoggingConfig  `toml:"logging"`
}

func Default() Config {
	db := database.DefaultConfig()
	return Config{
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":9090",
			Proxies:  []string{"127.0.0.1"},
		},
		Database: DatabaseConfig{
			Driver: string(db.Driver),
			Path:   db.Path,
		},
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "slimelist",
			JWTTTLHours: 24,
			JWTDuration: 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			BaseURL:        "https://api.jikan.moe/v4",
			TimeoutSeconds: 15,
			MaxAttempts:    0,
			Backoff:        "fixed",
			BackoffMillis:  1000,
			MaxBackoffMS:   30000,
			MaxConcurrent:  3,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the config from defaults, an optional TOML file, an optional
// .env file next to the working directory, and SLIMELIST_* variables, in that
// order. An empty path looks for slimelist.toml in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "slimelist.toml"
	}
	b, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	cfg.Auth.JWTDuration = time.Duration(cfg.Auth.JWTTTLHours) * time.Hour
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.Server.GRPCAddr, "GRPC_ADDR")
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Path, "DB_PATH")
	setString(&cfg.Database.DSN, "DB_DSN")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "JWT_ISSUER")
	setInt(&cfg.Auth.JWTTTLHours, "JWT_TTL_HOURS")
	setString(&cfg.Catalog.BaseURL, "CATALOG_BASE_URL")
	setInt(&cfg.Catalog.MaxAttempts, "CATALOG_MAX_ATTEMPTS")
	setString(&cfg.Catalog.Backoff, "CATALOG_BACKOFF")
	setInt(&cfg.Catalog.BackoffMillis, "CATALOG_BACKOFF_MS")
	setInt(&cfg.Catalog.MaxConcurrent, "CATALOG_MAX_CONCURRENT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv(envPrefix + "LOG_JSON"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.JSON = b
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		*dst = v
	}
}

// setInt ignores values that do not parse, keeping the previous setting.
func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(envPrefix + key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// Validate rejects settings the services cannot start with.
func (c Config) Validate() error {
	switch database.Dialect(c.Database.Driver) {
	case database.SQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database.path required for sqlite3")
		}
	case database.Postgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn required for pgx")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite3 or pgx, got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret required")
	}
	if c.Auth.JWTTTLHours <= 0 {
		return errors.New("auth.jwt_ttl_hours must be positive")
	}
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		return errors.New("catalog.base_url required")
	}
	if c.Catalog.MaxAttempts < 0 {
		return errors.New("catalog.max_attempts must be >= 0")
	}
	switch c.Catalog.Backoff {
	case "fixed", "exponential":
	default:
		return fmt.Errorf("catalog.backoff must be fixed or exponential, got %q", c.Catalog.Backoff)
	}
	if c.Catalog.BackoffMillis <= 0 {
		return errors.New("catalog.backoff_ms must be positive")
	}
	if c.Catalog.MaxConcurrent <= 0 {
		return errors.New("catalog.max_concurrent must be positive")
	}
	return nil
}

// DB converts the database section into the driver config.
func (c Config) DB() database.Config {
	return database.Config{
		Driver: database.Dialect(c.Database.Driver),
		Path:   c.Database.Path,
		DSN:    c.Database.DSN,
	}
}
