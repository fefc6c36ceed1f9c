package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slimelist/pkg/database"
	"slimelist/pkg/models"
)

const entryColumns = `user_id, anime_id, title, image_url, status, episodes_watched, total_episodes, score, created_at, updated_at`

// Repo is the SQL implementation of Store.
type Repo struct {
	DB *database.DB
	// Now stamps created_at/updated_at. Defaults to UTC wall time.
	Now func() time.Time
}

var _ Store = (*Repo)(nil)

func NewRepo(db *database.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (r *Repo) ListAll(ctx context.Context, userID string) ([]models.ListEntry, error) {
	return r.query(ctx, "list all", `
		SELECT `+entryColumns+`
		FROM anime_list
		WHERE user_id = ?
		ORDER BY updated_at DESC, anime_id
	`, userID)
}

func (r *Repo) ListByStatus(ctx context.Context, userID string, status models.Status) ([]models.ListEntry, error) {
	if !status.Valid() {
		return nil, &models.InvariantViolation{Field: "status", Reason: fmt.Sprintf("%q is not a known status", status)}
	}
	return r.query(ctx, "list by status", `
		SELECT `+entryColumns+`
		FROM anime_list
		WHERE user_id = ? AND status = ?
		ORDER BY updated_at DESC, anime_id
	`, userID, string(status))
}

func (r *Repo) Get(ctx context.Context, userID string, animeID int) (*models.ListEntry, error) {
	row := r.DB.QueryRowContext(ctx, r.DB.Rebind(`
		SELECT `+entryColumns+`
		FROM anime_list
		WHERE user_id = ? AND anime_id = ?
	`), userID, animeID)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &StoreError{Op: "get", Err: err}
	}
	return e, nil
}

// Upsert keeps the original created_at when it overwrites an existing row.
func (r *Repo) Upsert(ctx context.Context, entry models.ListEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	now := r.now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO anime_list (user_id, anime_id, title, image_url, status, episodes_watched, total_episodes, score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, anime_id) DO UPDATE SET
			title = excluded.title,
			image_url = excluded.image_url,
			status = excluded.status,
			episodes_watched = excluded.episodes_watched,
			total_episodes = excluded.total_episodes,
			score = excluded.score,
			updated_at = excluded.updated_at
	`), entry.UserID, entry.AnimeID, entry.Title, entry.ImageURL, string(entry.Status),
		entry.EpisodesWatched, entry.TotalEpisodes, nullScore(entry.Score), now, now)
	if err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}
	return nil
}

func (r *Repo) UpdateProgress(ctx context.Context, userID string, animeID int, status models.Status, episodesWatched int, score *int) error {
	switch {
	case !status.Valid():
		return &models.InvariantViolation{Field: "status", Reason: fmt.Sprintf("%q is not a known status", status)}
	case episodesWatched < 0:
		return &models.InvariantViolation{Field: "episodes_watched", Reason: "must be >= 0"}
	case score != nil && (*score < 1 || *score > 10):
		return &models.InvariantViolation{Field: "score", Reason: "must be within 1-10"}
	}

	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE anime_list
		SET status = ?, episodes_watched = ?, score = COALESCE(?, score), updated_at = ?
		WHERE user_id = ? AND anime_id = ?
	`), string(status), episodesWatched, nullScore(score), r.now(), userID, animeID)
	if err != nil {
		return &StoreError{Op: "update progress", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Op: "update progress", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("update progress %s/%d: %w", userID, animeID, ErrNotFound)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID string, animeID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		DELETE FROM anime_list
		WHERE user_id = ? AND anime_id = ?
	`), userID, animeID)
	if err != nil {
		return false, &StoreError{Op: "remove", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Stats aggregates the user's list per status.
func (r *Repo) Stats(ctx context.Context, userID string) (*models.ListStats, error) {
	rows, err := r.DB.QueryContext(ctx, r.DB.Rebind(`
		SELECT status, COUNT(*), COALESCE(SUM(episodes_watched), 0), COALESCE(SUM(score), 0), COUNT(score)
		FROM anime_list
		WHERE user_id = ?
		GROUP BY status
	`), userID)
	if err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}
	defer rows.Close()

	stats := &models.ListStats{ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, s := range models.Statuses {
		stats.ByStatus[s] = 0
	}
	var scoreSum int64
	for rows.Next() {
		var (
			status          string
			count, episodes int64
			sum, scored     int64
		)
		if err := rows.Scan(&status, &count, &episodes, &sum, &scored); err != nil {
			return nil, &StoreError{Op: "stats", Err: err}
		}
		stats.ByStatus[models.Status(status)] = int(count)
		stats.Total += int(count)
		stats.EpisodesWatched += int(episodes)
		stats.Scored += int(scored)
		scoreSum += sum
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}
	if stats.Scored > 0 {
		stats.MeanScore = float64(scoreSum) / float64(stats.Scored)
	}
	return stats, nil
}

func (r *Repo) query(ctx context.Context, op, query string, args ...any) ([]models.ListEntry, error) {
	rows, err := r.DB.QueryContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	out := make([]models.ListEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, &StoreError{Op: op, Err: err}
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.ListEntry, error) {
	var (
		e      models.ListEntry
		status string
		score  sql.NullInt64
	)
	if err := s.Scan(&e.UserID, &e.AnimeID, &e.Title, &e.ImageURL, &status,
		&e.EpisodesWatched, &e.TotalEpisodes, &score, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = models.Status(status)
	if score.Valid {
		v := int(score.Int64)
		e.Score = &v
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func nullScore(score *int) any {
	if score == nil {
		return nil
	}
	return *score
}
