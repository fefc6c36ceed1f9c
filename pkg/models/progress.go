package models

import "time"

// EpisodeHistory records one confirmed change of a title's episode count.
type EpisodeHistory struct {
	UserID  string    `json:"user_id" db:"user_id"`
	AnimeID int       `json:"anime_id" db:"anime_id"`
	From    int       `json:"from" db:"from_ep"`
	To      int       `json:"to" db:"to_ep"`
	Status  Status    `json:"status" db:"status"`
	At      time.Time `json:"at" db:"at"`
}
