// Package app wires the services of one process together.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"slimelist/internal/auth"
	"slimelist/internal/catalog"
	"slimelist/internal/library"
	"slimelist/internal/progress"
	listsync "slimelist/internal/sync"
	"slimelist/internal/tracker"
	"slimelist/pkg/database"
	"slimelist/pkg/utils"
)

// App owns every long-lived dependency. Build it with New and release it with
// Close; nothing in the module keeps package-level state.
type App struct {
	Config *utils.Config
	Logger hclog.Logger

	DB       *database.DB
	Gate     *catalog.Gate
	Catalog  *catalog.Client
	Library  *library.Repo
	Progress *progress.Repo
	Hub      *listsync.Hub
	Tracker  *tracker.Service
	Users    *auth.Repo
	Tokens   auth.TokenService
}

func New(cfg *utils.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	db, err := database.Open(cfg.DB())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	policy, err := RetryPolicy(cfg.Catalog)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	gate := catalog.NewGate(cfg.Catalog.MaxConcurrent, time.Duration(cfg.Catalog.MinIntervalMS)*time.Millisecond)
	client, err := catalog.New(cfg.Catalog.BaseURL,
		catalog.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second}),
		catalog.WithRetryPolicy(policy),
		catalog.WithGate(gate),
		catalog.WithLogger(logger.Named("catalog")),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog client: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Gate:     gate,
		Catalog:  client,
		Library:  library.NewRepo(db),
		Progress: progress.NewRepo(db),
		Hub:      listsync.NewHub(logger.Named("sync")),
		Users:    auth.NewRepo(db),
		Tokens: auth.TokenService{
			Secret:   []byte(cfg.Auth.JWTSecret),
			Issuer:   cfg.Auth.JWTIssuer,
			Duration: cfg.Auth.JWTDuration,
		},
	}
	a.Tracker = tracker.NewService(a.Library, a.Progress, a.Hub, logger.Named("tracker"))

	logger.Info("app initialised", "driver", db.Dialect, "catalog", cfg.Catalog.BaseURL,
		"max_attempts", policy.MaxAttempts, "backoff", string(policy.Backoff))
	return a, nil
}

// RetryPolicy converts the catalog config section into a retry policy.
func RetryPolicy(c utils.CatalogConfig) (catalog.RetryPolicy, error) {
	backoff, err := catalog.ParseBackoff(c.Backoff)
	if err != nil {
		return catalog.RetryPolicy{}, err
	}
	p := catalog.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		Backoff:     backoff,
		Interval:    time.Duration(c.BackoffMillis) * time.Millisecond,
		MaxInterval: time.Duration(c.MaxBackoffMS) * time.Millisecond,
	}
	if err := p.Validate(); err != nil {
		return catalog.RetryPolicy{}, fmt.Errorf("catalog retry policy: %w", err)
	}
	return p, nil
}

// Close releases the catalog client and the database.
func (a *App) Close() error {
	var errs []error
	if a.Catalog != nil {
		a.Catalog.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
