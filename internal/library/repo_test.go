package library_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slimelist/internal/library"
	"slimelist/internal/testsupport"
	"slimelist/pkg/database"
	"slimelist/pkg/models"
)

func newRepo(t *testing.T) (*library.Repo, *testsupport.Clock) {
	t.Helper()
	clock := testsupport.NewClock()
	repo := library.NewRepo(testsupport.OpenDB(t))
	repo.Now = clock.Now
	return repo, clock
}

func TestUpsertAndGet(t *testing.T) {
	repo, clock := newRepo(t)
	ctx := context.Background()

	entry := testsupport.Entry("u1", 52991, models.StatusWatching, 3, 28)
	entry.Score = testsupport.IntPtr(9)
	require.NoError(t, repo.Upsert(ctx, entry))

	got, err := repo.Get(ctx, "u1", 52991)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusWatching, got.Status)
	assert.Equal(t, 3, got.EpisodesWatched)
	assert.Equal(t, 28, got.TotalEpisodes)
	require.NotNil(t, got.Score)
	assert.Equal(t, 9, *got.Score)
	assert.True(t, got.CreatedAt.Equal(clock.T))
	assert.True(t, got.UpdatedAt.Equal(clock.T))
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo, _ := newRepo(t)
	got, err := repo.Get(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertOverwritesSinglePair(t *testing.T) {
	repo, clock := newRepo(t)
	ctx := context.Background()
	created := clock.T

	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u1", 21, models.StatusPlanToWatch, 0, 0)))
	clock.Advance(time.Hour)
	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u1", 21, models.StatusWatching, 12, 0)))

	all, err := repo.ListAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusWatching, all[0].Status)
	assert.Equal(t, 12, all[0].EpisodesWatched)
	assert.True(t, all[0].CreatedAt.Equal(created))
	assert.True(t, all[0].UpdatedAt.Equal(clock.T))
}

func TestUpsertRejectsInvalidEntry(t *testing.T) {
	repo, _ := newRepo(t)

	err := repo.Upsert(context.Background(), testsupport.Entry("u1", 52991, models.StatusWatching, 29, 28))
	var violation *models.InvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "episodes_watched", violation.Field)
}

func TestUpdateProgress(t *testing.T) {
	repo, clock := newRepo(t)
	ctx := context.Background()

	entry := testsupport.Entry("u1", 52991, models.StatusWatching, 3, 28)
	entry.Score = testsupport.IntPtr(7)
	require.NoError(t, repo.Upsert(ctx, entry))

	clock.Advance(time.Minute)
	require.NoError(t, repo.UpdateProgress(ctx, "u1", 52991, models.StatusWatching, 10, nil))
	got, err := repo.Get(ctx, "u1", 52991)
	require.NoError(t, err)
	assert.Equal(t, 10, got.EpisodesWatched)
	require.NotNil(t, got.Score, "nil score must leave the stored score alone")
	assert.Equal(t, 7, *got.Score)
	assert.True(t, got.UpdatedAt.Equal(clock.T))

	require.NoError(t, repo.UpdateProgress(ctx, "u1", 52991, models.StatusCompleted, 28, testsupport.IntPtr(10)))
	got, err = repo.Get(ctx, "u1", 52991)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 10, *got.Score)
}

func TestUpdateProgressMissingEntry(t *testing.T) {
	repo, _ := newRepo(t)
	err := repo.UpdateProgress(context.Background(), "u1", 99, models.StatusDropped, 0, nil)
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestUpdateProgressRejectsInvalidInput(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	var violation *models.InvariantViolation
	assert.ErrorAs(t, repo.UpdateProgress(ctx, "u1", 1, "paused", 0, nil), &violation)
	assert.ErrorAs(t, repo.UpdateProgress(ctx, "u1", 1, models.StatusWatching, -1, nil), &violation)
	assert.ErrorAs(t, repo.UpdateProgress(ctx, "u1", 1, models.StatusWatching, 0, testsupport.IntPtr(11)), &violation)
}

func TestListByStatusAndOrdering(t *testing.T) {
	repo, clock := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u1", 1, models.StatusWatching, 1, 12)))
	clock.Advance(time.Second)
	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u1", 2, models.StatusWatching, 2, 12)))
	clock.Advance(time.Second)
	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u1", 3, models.StatusDropped, 0, 12)))
	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u2", 1, models.StatusWatching, 5, 12)))

	watching, err := repo.ListByStatus(ctx, "u1", models.StatusWatching)
	require.NoError(t, err)
	require.Len(t, watching, 2)
	assert.Equal(t, 2, watching[0].AnimeID, "most recently updated first")
	assert.Equal(t, 1, watching[1].AnimeID)

	completed, err := repo.ListByStatus(ctx, "u1", models.StatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.Empty(t, completed)

	_, err = repo.ListByStatus(ctx, "u1", "paused")
	assert.Error(t, err)

	all, err := repo.ListAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRemove(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, testsupport.Entry("u1", 21, models.StatusWatching, 0, 0)))

	removed, err := repo.Remove(ctx, "u1", 21)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, "u1", 21)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := repo.Get(ctx, "u1", 21)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStats(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	scored := testsupport.Entry("u1", 1, models.StatusCompleted, 12, 12)
	scored.Score = testsupport.IntPtr(8)
	other := testsupport.Entry("u1", 2, models.StatusWatching, 5, 24)
	other.Score = testsupport.IntPtr(5)
	for _, e := range []models.ListEntry{scored, other, testsupport.Entry("u1", 3, models.StatusWatching, 1, 0)} {
		require.NoError(t, repo.Upsert(ctx, e))
	}

	stats, err := repo.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[models.StatusWatching])
	assert.Equal(t, 1, stats.ByStatus[models.StatusCompleted])
	assert.Equal(t, 0, stats.ByStatus[models.StatusDropped])
	assert.Equal(t, 18, stats.EpisodesWatched)
	assert.Equal(t, 2, stats.Scored)
	assert.InDelta(t, 6.5, stats.MeanScore, 0.0001)

	empty, err := repo.Stats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.MeanScore)
}

func TestBackendFailureIsStoreError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := library.NewRepo(database.Wrap(sqlDB, database.SQLite))

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT .* FROM anime_list").WillReturnError(boom)

	_, err = repo.Get(context.Background(), "u1", 1)
	var storeErr *library.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPlaceholders(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := library.NewRepo(database.Wrap(sqlDB, database.Postgres))

	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, episodes_watched = $2, score = COALESCE($3, score), updated_at = $4")).
		WithArgs("watching", 3, nil, sqlmock.AnyArg(), "u1", 52991).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProgress(context.Background(), "u1", 52991, models.StatusWatching, 3, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
