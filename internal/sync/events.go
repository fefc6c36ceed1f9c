package sync

import (
	"time"

	"slimelist/pkg/models"
)

const (
	EventListUpdate = "list.update"
	EventListRemove = "list.remove"
)

// ListEvent announces a confirmed change to one user's list. Entry is nil for
// removals.
type ListEvent struct {
	Type    string            `json:"type"`
	UserID  string            `json:"user_id"`
	AnimeID int               `json:"anime_id"`
	Entry   *models.ListEntry `json:"entry,omitempty"`
	At      time.Time         `json:"at"`
}
