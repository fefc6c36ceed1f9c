// Package tracker holds the watch-list state machine and the service that
// commits its transitions through a library.Store.
package tracker

import (
	"errors"
	"fmt"

	"slimelist/pkg/models"
)

var (
	ErrNotInList     = errors.New("title is not on the list")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidScore  = errors.New("score must be within 1-10")
	ErrInvalidAnime  = errors.New("invalid anime")
	ErrInvalidAction = errors.New("invalid action")
)

type ActionKind string

const (
	ActionAdd       ActionKind = "add"
	ActionSetStatus ActionKind = "set_status"
	ActionIncrement ActionKind = "increment"
	ActionUpdate    ActionKind = "update"
	ActionRemove    ActionKind = "remove"
)

// Action is a user-initiated change to one list entry. Build it with the
// constructors below.
type Action struct {
	Kind ActionKind
	// Anime is the catalog record snapshotted by an add.
	Anime models.CatalogEntry
	// Status is required for add and set_status; for update "" keeps the
	// current status.
	Status models.Status
	// Episodes is the initial count for add and an absolute count for update.
	Episodes *int
	// Delta is applied by increment, and by update on top of Episodes (or of
	// the current count when Episodes is nil).
	Delta int
	// Score replaces the stored score when non-nil.
	Score *int
}

// Add puts a title on the list, overwriting any existing entry for it.
func Add(anime models.CatalogEntry, status models.Status, initial *int, score *int) Action {
	return Action{Kind: ActionAdd, Anime: anime, Status: status, Episodes: initial, Score: score}
}

func SetStatus(status models.Status) Action {
	return Action{Kind: ActionSetStatus, Status: status}
}

func Increment(delta int) Action {
	return Action{Kind: ActionIncrement, Delta: delta}
}

// Update combines a status change, an episode change and a score into one
// transition so that it is committed by a single store call.
func Update(status models.Status, episodes *int, delta int, score *int) Action {
	return Action{Kind: ActionUpdate, Status: status, Episodes: episodes, Delta: delta, Score: score}
}

func Remove() Action {
	return Action{Kind: ActionRemove}
}

// touchesEpisodes reports whether the action sets or moves the episode count,
// which is what arms auto-completion.
func (a Action) touchesEpisodes() bool {
	switch a.Kind {
	case ActionIncrement:
		return true
	case ActionAdd:
		return a.Episodes != nil
	case ActionUpdate:
		return a.Episodes != nil || a.Delta != 0
	}
	return false
}

// NextState computes the entry that results from applying a to current. A nil
// current means the title is not on the list; a nil result means it is removed.
// current is never modified. The result carries no timestamps and, for an add,
// no owner: the caller stamps those when committing.
//
// Whenever the action touches the episode count and the total is known,
// reaching the last episode forces the status to completed, overriding any
// status the action asked for.
func NextState(current *models.ListEntry, a Action) (*models.ListEntry, error) {
	if err := checkScore(a.Score); err != nil {
		return nil, err
	}

	var next models.ListEntry
	switch a.Kind {
	case ActionAdd:
		if a.Anime.ID <= 0 {
			return nil, fmt.Errorf("%w: id %d", ErrInvalidAnime, a.Anime.ID)
		}
		if err := checkStatus(a.Status); err != nil {
			return nil, err
		}
		total := max(a.Anime.EpisodeCount, 0)
		next = models.ListEntry{
			AnimeID:       a.Anime.ID,
			Title:         a.Anime.Title,
			ImageURL:      a.Anime.Images.ImageURL,
			Status:        a.Status,
			TotalEpisodes: total,
			Score:         copyScore(a.Score),
		}
		if current != nil {
			next.UserID = current.UserID
			next.CreatedAt = current.CreatedAt
		}
		if a.Episodes != nil {
			next.EpisodesWatched = clamp(*a.Episodes, total)
		}

	case ActionSetStatus:
		if current == nil {
			return nil, ErrNotInList
		}
		if err := checkStatus(a.Status); err != nil {
			return nil, err
		}
		next = current.Clone()
		next.Status = a.Status

	case ActionIncrement:
		if current == nil {
			return nil, ErrNotInList
		}
		next = current.Clone()
		next.EpisodesWatched = clamp(current.EpisodesWatched+a.Delta, current.TotalEpisodes)

	case ActionUpdate:
		if current == nil {
			return nil, ErrNotInList
		}
		next = current.Clone()
		if a.Status != "" {
			if err := checkStatus(a.Status); err != nil {
				return nil, err
			}
			next.Status = a.Status
		}
		base := current.EpisodesWatched
		if a.Episodes != nil {
			base = *a.Episodes
		}
		next.EpisodesWatched = clamp(base+a.Delta, current.TotalEpisodes)
		if a.Score != nil {
			next.Score = copyScore(a.Score)
		}

	case ActionRemove:
		if current == nil {
			return nil, ErrNotInList
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, a.Kind)
	}

	if a.touchesEpisodes() && next.TotalEpisodes > 0 && next.EpisodesWatched == next.TotalEpisodes {
		next.Status = models.StatusCompleted
	}
	return &next, nil
}

// clamp bounds n to [0, total], or to [0, ∞) when total is unknown.
func clamp(n, total int) int {
	if n < 0 {
		return 0
	}
	if total > 0 && n > total {
		return total
	}
	return n
}

func checkStatus(s models.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return nil
}

func checkScore(score *int) error {
	if score != nil && (*score < 1 || *score > 10) {
		return fmt.Errorf("%w: got %d", ErrInvalidScore, *score)
	}
	return nil
}

func copyScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}
