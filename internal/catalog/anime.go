package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"slimelist/pkg/models"
)

const (
	defaultListLimit   = 12
	defaultSearchLimit = 20
	maxLimit           = 25 // upstream rejects larger pages
)

// SearchResult is one page of search hits. LastPage is 0 when there are none.
type SearchResult struct {
	Entries  []models.CatalogEntry `json:"entries"`
	LastPage int                   `json:"last_page"`
}

// ListPopular returns the top-ranked titles.
func (c *Client) ListPopular(ctx context.Context, page, limit int) ([]models.CatalogEntry, error) {
	entries, _, err := c.listAnime(ctx, "/top/anime", pageQuery(page, limit, defaultListLimit))
	return entries, err
}

// ListSeasonal returns titles airing in the current season.
func (c *Client) ListSeasonal(ctx context.Context, page, limit int) ([]models.CatalogEntry, error) {
	entries, _, err := c.listAnime(ctx, "/seasons/now", pageQuery(page, limit, defaultListLimit))
	return entries, err
}

// Search runs a free-text query. Surrounding whitespace is trimmed before the
// query is sent; a blank query returns an empty result without contacting the
// catalog.
func (c *Client) Search(ctx context.Context, query string, page, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{Entries: []models.CatalogEntry{}, LastPage: 0}, nil
	}

	q := pageQuery(page, limit, defaultSearchLimit)
	q.Set("q", query)

	entries, pg, err := c.listAnime(ctx, "/anime", q)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Entries: entries}
	if pg != nil {
		res.LastPage = pg.LastVisiblePage
	}
	return res, nil
}

// GetByID fetches the full record of one title.
func (c *Client) GetByID(ctx context.Context, id int) (*models.CatalogEntry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return c.getAnime(ctx, "/anime/"+strconv.Itoa(id)+"/full")
}

// GetRecommendations returns stubs of titles related to id.
func (c *Client) GetRecommendations(ctx context.Context, id int) ([]models.RecommendationStub, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	path := "/anime/" + strconv.Itoa(id) + "/recommendations"
	body, err := c.Fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(path, body)
	if err != nil {
		return nil, err
	}
	var raw []jikanRecommendation
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s data: %w", path, err)
	}
	out := make([]models.RecommendationStub, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toStub())
	}
	return out, nil
}

// Random returns one random title.
func (c *Client) Random(ctx context.Context) (*models.CatalogEntry, error) {
	return c.getAnime(ctx, "/random/anime")
}

func (c *Client) getAnime(ctx context.Context, path string) (*models.CatalogEntry, error) {
	body, err := c.Fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(path, body)
	if err != nil {
		return nil, err
	}
	var raw jikanAnime
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s data: %w", path, err)
	}
	entry := raw.toEntry()
	return &entry, nil
}

func (c *Client) listAnime(ctx context.Context, path string, q url.Values) ([]models.CatalogEntry, *pagination, error) {
	body, err := c.Fetch(ctx, path, q)
	if err != nil {
		return nil, nil, err
	}
	env, err := decodeEnvelope(path, body)
	if err != nil {
		return nil, nil, err
	}
	var raw []jikanAnime
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode %s data: %w", path, err)
	}
	out := make([]models.CatalogEntry, 0, len(raw))
	for _, a := range raw {
		out = append(out, a.toEntry())
	}
	return out, env.Pagination, nil
}

func pageQuery(page, limit, defLimit int) url.Values {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}
