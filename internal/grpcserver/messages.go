package grpcserver

import "slimelist/pkg/models"

type ListEntriesRequest struct {
	Status string `json:"status,omitempty"`
}

type ListEntriesResponse struct {
	Total   int                `json:"total"`
	Entries []models.ListEntry `json:"entries"`
}

type EntryRequest struct {
	AnimeID int `json:"anime_id"`
}

type EntryResponse struct {
	Entry *models.ListEntry `json:"entry"`
}

type AddEntryRequest struct {
	AnimeID         int    `json:"anime_id"`
	Status          string `json:"status"`
	EpisodesWatched *int   `json:"episodes_watched,omitempty"`
	Score           *int   `json:"score,omitempty"`
}

type UpdateEntryRequest struct {
	AnimeID         int    `json:"anime_id"`
	Status          string `json:"status,omitempty"`
	EpisodesWatched *int   `json:"episodes_watched,omitempty"`
	Delta           int    `json:"delta,omitempty"`
	Score           *int   `json:"score,omitempty"`
}

type RemoveEntryResponse struct {
	Removed bool `json:"removed"`
}

type StatsRequest struct{}
