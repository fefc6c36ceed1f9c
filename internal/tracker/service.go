package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"slimelist/internal/library"
	listsync "slimelist/internal/sync"
	"slimelist/pkg/models"
)

// HistoryRecorder keeps the episode progress log.
type HistoryRecorder interface {
	Record(ctx context.Context, h models.EpisodeHistory) error
}

// Publisher announces confirmed list changes.
type Publisher interface {
	Publish(ev listsync.ListEvent)
}

// Service applies state-machine transitions for authenticated users. Every
// mutation reads the current entry, computes the next one with NextState and
// commits it with exactly one store call. Store failures are returned as-is;
// the previous confirmed entry is what the caller should keep showing.
type Service struct {
	Store   library.Store
	History HistoryRecorder // optional
	Events  Publisher       // optional
	Logger  hclog.Logger
	Now     func() time.Time
}

func NewService(store library.Store, history HistoryRecorder, events Publisher, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{Store: store, History: history, Events: events, Logger: logger}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Apply runs action a against the (userID, animeID) entry and returns the
// confirmed entry, or nil after a removal.
func (s *Service) Apply(ctx context.Context, userID string, animeID int, a Action) (*models.ListEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &models.InvariantViolation{Field: "user_id", Reason: "is required"}
	}
	if animeID <= 0 {
		return nil, fmt.Errorf("%w: id %d", ErrInvalidAnime, animeID)
	}
	if a.Kind == ActionAdd && a.Anime.ID != animeID {
		return nil, fmt.Errorf("%w: catalog entry %d does not match %d", ErrInvalidAnime, a.Anime.ID, animeID)
	}

	current, err := s.Store.Get(ctx, userID, animeID)
	if err != nil {
		return nil, err
	}

	next, err := NextState(current, a)
	if err != nil {
		return nil, err
	}

	if next == nil {
		removed, err := s.Store.Remove(ctx, userID, animeID)
		if err != nil {
			return nil, err
		}
		if !removed {
			return nil, ErrNotInList
		}
		s.Logger.Debug("list entry removed", "user_id", userID, "anime_id", animeID)
		s.publish(listsync.ListEvent{Type: listsync.EventListRemove, UserID: userID, AnimeID: animeID})
		return nil, nil
	}

	next.UserID = userID
	next.AnimeID = animeID
	if err := next.Validate(); err != nil {
		return nil, err
	}

	if a.Kind == ActionAdd {
		err = s.Store.Upsert(ctx, *next)
	} else {
		err = s.Store.UpdateProgress(ctx, userID, animeID, next.Status, next.EpisodesWatched, a.Score)
	}
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotInList, err)
		}
		return nil, err
	}

	// The commit succeeded; a failed read-back falls back to the computed state.
	confirmed, err := s.Store.Get(ctx, userID, animeID)
	if err != nil || confirmed == nil {
		s.Logger.Warn("read back committed entry failed", "user_id", userID, "anime_id", animeID, "error", err)
		confirmed = next
		confirmed.UpdatedAt = s.now()
		if confirmed.CreatedAt.IsZero() {
			confirmed.CreatedAt = confirmed.UpdatedAt
		}
	}

	s.Logger.Debug("list entry committed", "user_id", userID, "anime_id", animeID,
		"action", string(a.Kind), "status", string(confirmed.Status), "episodes", confirmed.EpisodesWatched)
	s.recordHistory(ctx, current, confirmed)
	s.publish(listsync.ListEvent{Type: listsync.EventListUpdate, UserID: userID, AnimeID: animeID, Entry: confirmed})
	return confirmed, nil
}

// recordHistory logs an episode change. The commit has already succeeded, so a
// failure here is logged rather than returned.
func (s *Service) recordHistory(ctx context.Context, before, after *models.ListEntry) {
	if s.History == nil {
		return
	}
	from := 0
	if before != nil {
		from = before.EpisodesWatched
	}
	if from == after.EpisodesWatched {
		return
	}
	h := models.EpisodeHistory{
		UserID:  after.UserID,
		AnimeID: after.AnimeID,
		From:    from,
		To:      after.EpisodesWatched,
		Status:  after.Status,
		At:      s.now(),
	}
	if err := s.History.Record(ctx, h); err != nil {
		s.Logger.Warn("record episode history failed", "user_id", h.UserID, "anime_id", h.AnimeID, "error", err)
	}
}

func (s *Service) publish(ev listsync.ListEvent) {
	if s.Events == nil {
		return
	}
	ev.At = s.now()
	s.Events.Publish(ev)
}

func (s *Service) Add(ctx context.Context, userID string, anime models.CatalogEntry, status models.Status, initial, score *int) (*models.ListEntry, error) {
	return s.Apply(ctx, userID, anime.ID, Add(anime, status, initial, score))
}

func (s *Service) SetStatus(ctx context.Context, userID string, animeID int, status models.Status) (*models.ListEntry, error) {
	return s.Apply(ctx, userID, animeID, SetStatus(status))
}

func (s *Service) IncrementEpisodes(ctx context.Context, userID string, animeID, delta int) (*models.ListEntry, error) {
	return s.Apply(ctx, userID, animeID, Increment(delta))
}

func (s *Service) Remove(ctx context.Context, userID string, animeID int) error {
	_, err := s.Apply(ctx, userID, animeID, Remove())
	return err
}

// List returns the user's entries, filtered by status unless status is "".
func (s *Service) List(ctx context.Context, userID string, status models.Status) ([]models.ListEntry, error) {
	if status == "" {
		return s.Store.ListAll(ctx, userID)
	}
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	return s.Store.ListByStatus(ctx, userID, status)
}

func (s *Service) Get(ctx context.Context, userID string, animeID int) (*models.ListEntry, error) {
	return s.Store.Get(ctx, userID, animeID)
}

func (s *Service) Stats(ctx context.Context, userID string) (*models.ListStats, error) {
	return s.Store.Stats(ctx, userID)
}

// Import adds every entry through the state machine, so imported rows obey the
// same rules as interactive adds. It stops at the first failure and reports how
// many entries were committed before it.
func (s *Service) Import(ctx context.Context, userID string, entries []models.ListEntry) (int, error) {
	for i, e := range entries {
		anime := models.CatalogEntry{
			ID:           e.AnimeID,
			Title:        e.Title,
			EpisodeCount: e.TotalEpisodes,
			Images:       models.Images{ImageURL: e.ImageURL},
		}
		watched := e.EpisodesWatched
		if _, err := s.Apply(ctx, userID, e.AnimeID, Add(anime, e.Status, &watched, e.Score)); err != nil {
			return i, fmt.Errorf("import anime %d: %w", e.AnimeID, err)
		}
	}
	return len(entries), nil
}
