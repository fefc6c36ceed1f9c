package library

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slimelist/pkg/models"
)

func TestCSVRoundTrip(t *testing.T) {
	score := 9
	updated := time.Date(2024, 3, 22, 12, 0, 0, 0, time.UTC)
	in := []models.ListEntry{
		{UserID: "u1", AnimeID: 52991, Title: "Sousou no Frieren", Status: models.StatusCompleted,
			EpisodesWatched: 28, TotalEpisodes: 28, Score: &score, ImageURL: "https://cdn.example/f.jpg", UpdatedAt: updated},
		{UserID: "u1", AnimeID: 21, Title: "One Piece, the series", Status: models.StatusWatching, EpisodesWatched: 1100},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadCSV(&buf, "u2")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "u2", out[0].UserID)
	assert.Equal(t, 52991, out[0].AnimeID)
	assert.Equal(t, 9, *out[0].Score)
	assert.True(t, out[0].UpdatedAt.Equal(updated))
	assert.Equal(t, "One Piece, the series", out[1].Title)
	assert.Nil(t, out[1].Score)
	assert.Equal(t, 0, out[1].TotalEpisodes)
}

func TestReadCSVColumnOrderAndAliases(t *testing.T) {
	data := "\ufeffStatus,Title,Anime_ID\nptw,Vinland Saga,37521\n\n"
	out, err := ReadCSV(strings.NewReader(data), "u1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.StatusPlanToWatch, out[0].Status)
	assert.Equal(t, 37521, out[0].AnimeID)
}

func TestReadCSVRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing column":   "anime_id,title\n1,A\n",
		"unknown status":   "anime_id,title,status\n1,A,paused\n",
		"too many watched": "anime_id,title,status,episodes_watched,total_episodes\n1,A,watching,13,12\n",
		"bad number":       "anime_id,title,status\nx,A,watching\n",
		"score range":      "anime_id,title,status,score\n1,A,watching,11\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(data), "u1")
			assert.Error(t, err)
		})
	}
}
