package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavour of an open database.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "pgx"
)

type Config struct {
	Driver Dialect
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// DefaultConfig keeps the data file under the user's home directory.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Driver: SQLite,
		Path:   filepath.Join(home, ".slimelist", "data.db"),
	}
}

// DB pairs a connection pool with the dialect its queries must be written in.
// Queries are written with ? placeholders and passed through Rebind.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Wrap adopts an already open pool, e.g. one built by sqlmock.
func Wrap(db *sql.DB, d Dialect) *DB {
	return &DB{DB: sqlx.NewDb(db, string(d)), Dialect: d}
}

func EnsureDataDir(cfg Config) error {
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

func Open(cfg Config) (*DB, error) {
	switch cfg.Driver {
	case Postgres:
		return openPostgres(cfg)
	case SQLite, "":
		return openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(cfg Config) (*DB, error) {
	if cfg.Path != ":memory:" {
		if err := EnsureDataDir(cfg); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sqlx.Open(string(SQLite), cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if cfg.Path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma journal_mode: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &DB{DB: db, Dialect: SQLite}, nil
}

func openPostgres(cfg Config) (*DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sqlx.Open(string(Postgres), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{DB: db, Dialect: Postgres}, nil
}

// Rebind converts ? placeholders into the bind style of d.
func Rebind(d Dialect, query string) string {
	return sqlx.Rebind(sqlx.BindType(string(d)), query)
}
