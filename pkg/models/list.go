package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the watch status of a list entry.
type Status string

const (
	StatusWatching    Status = "watching"
	StatusCompleted   Status = "completed"
	StatusPlanToWatch Status = "plan_to_watch"
	StatusDropped     Status = "dropped"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusWatching, StatusCompleted, StatusPlanToWatch, StatusDropped}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusPlanToWatch, StatusDropped:
		return true
	}
	return false
}

// ParseStatus accepts the canonical names plus a few spellings users type.
// It returns "" for anything it does not recognise.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "watching", "watch":
		return StatusWatching
	case "completed", "complete", "done":
		return StatusCompleted
	case "plan_to_watch", "plan to watch", "plan-to-watch", "plantowatch", "ptw":
		return StatusPlanToWatch
	case "dropped", "drop":
		return StatusDropped
	default:
		return ""
	}
}

// ListEntry is one title on a user's watch list. (UserID, AnimeID) is unique.
type ListEntry struct {
	UserID          string    `json:"user_id"`
	AnimeID         int       `json:"anime_id"`
	Title           string    `json:"title"`
	ImageURL        string    `json:"image_url"`
	Status          Status    `json:"status"`
	EpisodesWatched int       `json:"episodes_watched"`
	TotalEpisodes   int       `json:"total_episodes"` // 0 = unknown
	Score           *int      `json:"score,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// InvariantViolation describes a list entry that must never be persisted.
type InvariantViolation struct {
	Field  string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s %s", e.Field, e.Reason)
}

// Validate checks the persisted-state invariants of a list entry.
func (e ListEntry) Validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return &InvariantViolation{Field: "user_id", Reason: "is required"}
	case e.AnimeID <= 0:
		return &InvariantViolation{Field: "anime_id", Reason: "must be positive"}
	case !e.Status.Valid():
		return &InvariantViolation{Field: "status", Reason: fmt.Sprintf("%q is not a known status", e.Status)}
	case e.EpisodesWatched < 0:
		return &InvariantViolation{Field: "episodes_watched", Reason: "must be >= 0"}
	case e.TotalEpisodes < 0:
		return &InvariantViolation{Field: "total_episodes", Reason: "must be >= 0"}
	case e.TotalEpisodes > 0 && e.EpisodesWatched > e.TotalEpisodes:
		return &InvariantViolation{Field: "episodes_watched", Reason: "exceeds total_episodes"}
	case e.Score != nil && (*e.Score < 1 || *e.Score > 10):
		return &InvariantViolation{Field: "score", Reason: "must be within 1-10"}
	}
	return nil
}

// Clone returns a copy that does not share the score pointer.
func (e ListEntry) Clone() ListEntry {
	if e.Score != nil {
		v := *e.Score
		e.Score = &v
	}
	return e
}

// ListStats aggregates a user's list for profile pages.
type ListStats struct {
	Total           int            `json:"total"`
	ByStatus        map[Status]int `json:"by_status"`
	EpisodesWatched int            `json:"episodes_watched"`
	MeanScore       float64        `json:"mean_score"`
	Scored          int            `json:"scored"`
}
