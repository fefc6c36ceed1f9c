package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"slimelist/pkg/models"
)

var csvHeader = []string{"anime_id", "title", "status", "episodes_watched", "total_episodes", "score", "image_url", "updated_at"}

// WriteCSV exports entries with a header row. Unscored entries have an empty
// score column.
func WriteCSV(w io.Writer, entries []models.ListEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		score := ""
		if e.Score != nil {
			score = strconv.Itoa(*e.Score)
		}
		updated := ""
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			strconv.Itoa(e.AnimeID),
			e.Title,
			string(e.Status),
			strconv.Itoa(e.EpisodesWatched),
			strconv.Itoa(e.TotalEpisodes),
			score,
			e.ImageURL,
			updated,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.AnimeID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses an export back into entries owned by userID. Columns are
// matched by header name; anime_id, title and status are required. Every row
// must satisfy the list entry invariants.
func ReadCSV(r io.Reader, userID string) ([]models.ListEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"anime_id", "title", "status"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	var out []models.ListEntry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		e, err := entryFromRow(header, row, userID)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func entryFromRow(header map[string]int, row []string, userID string) (models.ListEntry, error) {
	e := models.ListEntry{
		UserID:   userID,
		Title:    valueAt(header, row, "title"),
		ImageURL: valueAt(header, row, "image_url"),
		Status:   models.ParseStatus(valueAt(header, row, "status")),
	}
	var err error
	if e.AnimeID, err = parseInt(valueAt(header, row, "anime_id"), "anime_id"); err != nil {
		return e, err
	}
	if e.EpisodesWatched, err = parseInt(valueAt(header, row, "episodes_watched"), "episodes_watched"); err != nil {
		return e, err
	}
	if e.TotalEpisodes, err = parseInt(valueAt(header, row, "total_episodes"), "total_episodes"); err != nil {
		return e, err
	}
	if s := valueAt(header, row, "score"); s != "" {
		n, err := parseInt(s, "score")
		if err != nil {
			return e, err
		}
		e.Score = &n
	}
	if s := valueAt(header, row, "updated_at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return e, fmt.Errorf("parse updated_at: %w", err)
		}
		e.UpdatedAt = t.UTC()
	}
	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(strings.TrimPrefix(name, "\ufeff")))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseInt treats an empty cell as 0.
func parseInt(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return n, nil
}
