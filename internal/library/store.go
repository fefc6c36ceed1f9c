package library

import (
	"context"
	"errors"
	"fmt"

	"slimelist/pkg/models"
)

// ErrNotFound is returned by UpdateProgress when the entry does not exist.
var ErrNotFound = errors.New("list entry not found")

// StoreError wraps every failure of the persistence backend.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("list store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store persists watch-list entries. Reads of a missing entry return (nil, nil).
// Implementations never retry.
type Store interface {
	ListAll(ctx context.Context, userID string) ([]models.ListEntry, error)
	ListByStatus(ctx context.Context, userID string, status models.Status) ([]models.ListEntry, error)
	Get(ctx context.Context, userID string, animeID int) (*models.ListEntry, error)
	// Upsert inserts the entry or overwrites the existing one for the same
	// (user, anime) pair.
	Upsert(ctx context.Context, entry models.ListEntry) error
	// UpdateProgress changes status and episode count. A nil score leaves the
	// stored score untouched.
	UpdateProgress(ctx context.Context, userID string, animeID int, status models.Status, episodesWatched int, score *int) error
	Remove(ctx context.Context, userID string, animeID int) (bool, error)
	Stats(ctx context.Context, userID string) (*models.ListStats, error)
}
