package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slimelist/pkg/models"
)

func entry(status models.Status, watched, total int) *models.ListEntry {
	return &models.ListEntry{
		UserID:          "u1",
		AnimeID:         52991,
		Title:           "Sousou no Frieren",
		Status:          status,
		EpisodesWatched: watched,
		TotalEpisodes:   total,
	}
}

func intPtr(v int) *int { return &v }

func TestIncrementReachingLastEpisodeCompletes(t *testing.T) {
	next, err := NextState(entry(models.StatusWatching, 27, 28), Increment(1))
	require.NoError(t, err)
	assert.Equal(t, 28, next.EpisodesWatched)
	assert.Equal(t, models.StatusCompleted, next.Status)
}

func TestIncrementWithUnknownTotalNeverCompletes(t *testing.T) {
	next, err := NextState(entry(models.StatusWatching, 0, 0), Increment(1000))
	require.NoError(t, err)
	assert.Equal(t, 1000, next.EpisodesWatched)
	assert.Equal(t, models.StatusWatching, next.Status)
}

func TestIncrementStaysWithinBounds(t *testing.T) {
	deltas := []int{-1000, -29, -28, -5, -1, 0, 1, 2, 13, 27, 28, 29, 1000}
	for _, total := range []int{1, 12, 28} {
		for start := 0; start <= total; start++ {
			for _, delta := range deltas {
				for _, status := range models.Statuses {
					next, err := NextState(entry(status, start, total), Increment(delta))
					require.NoError(t, err)
					assert.GreaterOrEqual(t, next.EpisodesWatched, 0)
					assert.LessOrEqual(t, next.EpisodesWatched, total)
					if next.EpisodesWatched == total {
						assert.Equal(t, models.StatusCompleted, next.Status, "total=%d start=%d delta=%d", total, start, delta)
					} else {
						assert.Equal(t, status, next.Status)
					}
				}
			}
		}
	}
}

func TestDecrementClampsAtZero(t *testing.T) {
	next, err := NextState(entry(models.StatusWatching, 2, 0), Increment(-5))
	require.NoError(t, err)
	assert.Equal(t, 0, next.EpisodesWatched)
}

func TestCompletionOverridesRequestedStatus(t *testing.T) {
	for _, status := range []models.Status{models.StatusWatching, models.StatusDropped, models.StatusPlanToWatch} {
		next, err := NextState(entry(models.StatusWatching, 20, 28), Update(status, intPtr(28), 0, nil))
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, next.Status, "requested %s", status)

		next, err = NextState(entry(models.StatusWatching, 20, 28), Update(status, nil, 8, nil))
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, next.Status, "requested %s via delta", status)
	}
}

func TestUpdateAppliesEverythingAtOnce(t *testing.T) {
	next, err := NextState(entry(models.StatusPlanToWatch, 0, 28), Update(models.StatusWatching, intPtr(5), 0, intPtr(8)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWatching, next.Status)
	assert.Equal(t, 5, next.EpisodesWatched)
	require.NotNil(t, next.Score)
	assert.Equal(t, 8, *next.Score)

	next, err = NextState(entry(models.StatusWatching, 5, 28), Update("", intPtr(99), 0, nil))
	require.NoError(t, err)
	assert.Equal(t, 28, next.EpisodesWatched)
	assert.Equal(t, models.StatusCompleted, next.Status)
}

func TestUpdateDeltaAdjustsAbsoluteEpisodes(t *testing.T) {
	next, err := NextState(entry(models.StatusWatching, 0, 12), Update("", intPtr(5), 2, nil))
	require.NoError(t, err)
	assert.Equal(t, 7, next.EpisodesWatched)
	assert.Equal(t, models.StatusWatching, next.Status)

	next, err = NextState(entry(models.StatusWatching, 0, 12), Update("", intPtr(5), -9, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, next.EpisodesWatched)

	next, err = NextState(entry(models.StatusDropped, 0, 12), Update(models.StatusDropped, intPtr(10), 5, nil))
	require.NoError(t, err)
	assert.Equal(t, 12, next.EpisodesWatched)
	assert.Equal(t, models.StatusCompleted, next.Status)
}

func TestSetStatusKeepsEpisodes(t *testing.T) {
	next, err := NextState(entry(models.StatusCompleted, 28, 28), SetStatus(models.StatusDropped))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDropped, next.Status, "a status change alone does not re-trigger completion")
	assert.Equal(t, 28, next.EpisodesWatched)

	next, err = NextState(entry(models.StatusWatching, 3, 28), SetStatus(models.StatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, 3, next.EpisodesWatched)
}

func TestAdd(t *testing.T) {
	anime := models.CatalogEntry{
		ID:           52991,
		Title:        "Sousou no Frieren",
		EpisodeCount: 28,
		Images:       models.Images{ImageURL: "https://cdn.example/frieren.jpg"},
	}

	next, err := NextState(nil, Add(anime, models.StatusPlanToWatch, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 52991, next.AnimeID)
	assert.Equal(t, "Sousou no Frieren", next.Title)
	assert.Equal(t, "https://cdn.example/frieren.jpg", next.ImageURL)
	assert.Equal(t, models.StatusPlanToWatch, next.Status)
	assert.Equal(t, 0, next.EpisodesWatched)
	assert.Equal(t, 28, next.TotalEpisodes)
	assert.Nil(t, next.Score)

	next, err = NextState(nil, Add(anime, models.StatusWatching, intPtr(40), intPtr(10)))
	require.NoError(t, err)
	assert.Equal(t, 28, next.EpisodesWatched)
	assert.Equal(t, models.StatusCompleted, next.Status)
	assert.Equal(t, 10, *next.Score)

	// re-adding overwrites instead of failing
	current := entry(models.StatusDropped, 12, 28)
	current.Score = intPtr(3)
	next, err = NextState(current, Add(anime, models.StatusWatching, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWatching, next.Status)
	assert.Equal(t, 0, next.EpisodesWatched)
	assert.Nil(t, next.Score)
	assert.Equal(t, "u1", next.UserID)
}

func TestActionsOnMissingEntry(t *testing.T) {
	for _, a := range []Action{SetStatus(models.StatusWatching), Increment(1), Update(models.StatusDropped, nil, 0, nil), Remove()} {
		_, err := NextState(nil, a)
		assert.ErrorIs(t, err, ErrNotInList, "action %s", a.Kind)
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	current := entry(models.StatusWatching, 1, 12)

	_, err := NextState(current, SetStatus("paused"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = NextState(nil, Add(models.CatalogEntry{ID: 1}, "", nil, nil))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = NextState(nil, Add(models.CatalogEntry{}, models.StatusWatching, nil, nil))
	assert.ErrorIs(t, err, ErrInvalidAnime)

	for _, score := range []int{0, 11, -3} {
		_, err = NextState(current, Update("", nil, 0, intPtr(score)))
		assert.ErrorIs(t, err, ErrInvalidScore)
	}

	_, err = NextState(current, Action{Kind: "rewind"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestRemove(t *testing.T) {
	next, err := NextState(entry(models.StatusWatching, 1, 12), Remove())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextStateLeavesCurrentUntouched(t *testing.T) {
	current := entry(models.StatusWatching, 27, 28)
	current.Score = intPtr(7)
	snapshot := current.Clone()

	next, err := NextState(current, Update(models.StatusDropped, nil, 1, intPtr(9)))
	require.NoError(t, err)
	assert.Equal(t, snapshot, *current)
	assert.Equal(t, 9, *next.Score)
	assert.Equal(t, 7, *current.Score)
}
