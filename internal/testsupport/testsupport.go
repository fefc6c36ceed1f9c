// Package testsupport provides fixtures shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"slimelist/pkg/database"
	"slimelist/pkg/models"
)

// OpenDB returns a migrated sqlite database in a temp dir, closed on cleanup.
func OpenDB(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver: database.SQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// Clock is a manually advanced time source.
type Clock struct {
	T time.Time
}

func NewClock() *Clock {
	return &Clock{T: time.Date(2024, 3, 22, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Frieren is a finished 28-episode title.
func Frieren() models.CatalogEntry {
	return models.CatalogEntry{
		ID:           52991,
		Title:        "Sousou no Frieren",
		EpisodeCount: 28,
		Score:        9.31,
		Images:       models.Images{ImageURL: "https://cdn.example/frieren.jpg"},
	}
}

// OnePiece is an ongoing title with an unknown episode count.
func OnePiece() models.CatalogEntry {
	return models.CatalogEntry{
		ID:     21,
		Title:  "One Piece",
		Airing: true,
		Images: models.Images{ImageURL: "https://cdn.example/op.jpg"},
	}
}

// Entry builds a valid list entry for tests.
func Entry(userID string, animeID int, status models.Status, watched, total int) models.ListEntry {
	return models.ListEntry{
		UserID:          userID,
		AnimeID:         animeID,
		Title:           "title",
		Status:          status,
		EpisodesWatched: watched,
		TotalEpisodes:   total,
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
