package models

// CatalogEntry is the normalized form of one anime title as returned by the
// upstream catalog. It is read-only and rebuilt on every fetch.
type CatalogEntry struct {
	ID            int        `json:"id"`                       // mal_id, stable across requests
	Title         string     `json:"title"`                    // default title
	TitleEnglish  string     `json:"title_english,omitempty"`  // empty when the catalog has none
	TitleJapanese string     `json:"title_japanese,omitempty"` // empty when the catalog has none
	Type          string     `json:"type,omitempty"`           // TV, Movie, OVA, ...
	Status        string     `json:"status,omitempty"`         // airing status as reported upstream
	Airing        bool       `json:"airing"`
	EpisodeCount  int        `json:"episode_count"` // 0 = unknown / ongoing
	Score         float64    `json:"score"`         // [0,10], 0 = unrated
	Rank          int        `json:"rank,omitempty"`
	Popularity    int        `json:"popularity,omitempty"`
	Members       int        `json:"members,omitempty"`
	Season        string     `json:"season,omitempty"`
	Year          int        `json:"year,omitempty"`
	Images        Images     `json:"images"`
	Genres        []Named    `json:"genres"`
	Studios       []Named    `json:"studios"`
	Aired         AiredRange `json:"aired"`
	Synopsis      string     `json:"synopsis,omitempty"`
}

// Images holds poster URLs in three sizes.
type Images struct {
	ImageURL      string `json:"image_url,omitempty"`
	SmallImageURL string `json:"small_image_url,omitempty"`
	LargeImageURL string `json:"large_image_url,omitempty"`
}

// Named is a catalog reference such as a genre or a studio.
type Named struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AiredRange is the broadcast window. From/To are RFC3339 strings or empty.
type AiredRange struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Label string `json:"label,omitempty"`
}

// RecommendationStub is the lightweight entry returned for related titles.
type RecommendationStub struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Images Images `json:"images"`
	Votes  int    `json:"votes,omitempty"`
}
