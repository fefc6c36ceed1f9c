package progress

import (
	"context"
	"fmt"
	"time"

	"slimelist/pkg/database"
	"slimelist/pkg/models"
)

// Repo is the append-only episode history log.
type Repo struct {
	DB *database.DB
}

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

// Record appends one history row. It satisfies tracker.HistoryRecorder.
func (r *Repo) Record(ctx context.Context, h models.EpisodeHistory) error {
	if h.At.IsZero() {
		h.At = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO episode_history (user_id, anime_id, from_ep, to_ep, status, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), h.UserID, h.AnimeID, h.From, h.To, string(h.Status), h.At.UTC())
	if err != nil {
		return fmt.Errorf("insert episode history: %w", err)
	}
	return nil
}

// List returns history rows for one title, newest first, with the total count.
func (r *Repo) List(ctx context.Context, userID string, animeID, limit, offset int) ([]models.EpisodeHistory, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, r.DB.Rebind(`
		SELECT COUNT(*) FROM episode_history
		WHERE user_id = ? AND anime_id = ?
	`), userID, animeID); err != nil {
		return nil, 0, fmt.Errorf("count episode history: %w", err)
	}

	out := make([]models.EpisodeHistory, 0, limit)
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(`
		SELECT user_id, anime_id, from_ep, to_ep, status, at
		FROM episode_history
		WHERE user_id = ? AND anime_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ? OFFSET ?
	`), userID, animeID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list episode history: %w", err)
	}
	for i := range out {
		out[i].At = out[i].At.UTC()
	}

	return out, total, nil
}
