package catalog

import (
	"encoding/json"

	"slimelist/pkg/models"
)

// envelope is the shape every Jikan response shares.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination"`
}

type pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type jikanImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type jikanImages struct {
	JPG  jikanImageSet `json:"jpg"`
	WebP jikanImageSet `json:"webp"`
}

type jikanRef struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

// jikanAnime is the subset of the anime resource we read. Jikan sends null
// for unknown counts and scores, hence the pointers.
type jikanAnime struct {
	MalID         int         `json:"mal_id"`
	Title         string      `json:"title"`
	TitleEnglish  *string     `json:"title_english"`
	TitleJapanese *string     `json:"title_japanese"`
	Type          *string     `json:"type"`
	Status        *string     `json:"status"`
	Airing        bool        `json:"airing"`
	Episodes      *int        `json:"episodes"`
	Score         *float64    `json:"score"`
	Rank          *int        `json:"rank"`
	Popularity    *int        `json:"popularity"`
	Members       *int        `json:"members"`
	Season        *string     `json:"season"`
	Year          *int        `json:"year"`
	Synopsis      *string     `json:"synopsis"`
	Images        jikanImages `json:"images"`
	Genres        []jikanRef  `json:"genres"`
	Studios       []jikanRef  `json:"studios"`
	Aired         struct {
		From   *string `json:"from"`
		To     *string `json:"to"`
		String string  `json:"string"`
	} `json:"aired"`
}

type jikanRecommendation struct {
	Entry struct {
		MalID  int         `json:"mal_id"`
		Title  string      `json:"title"`
		Images jikanImages `json:"images"`
	} `json:"entry"`
	Votes int `json:"votes"`
}

func (a jikanAnime) toEntry() models.CatalogEntry {
	episodes := deref(a.Episodes)
	if episodes < 0 {
		episodes = 0
	}
	score := deref(a.Score)
	switch {
	case score < 0:
		score = 0
	case score > 10:
		score = 10
	}
	return models.CatalogEntry{
		ID:            a.MalID,
		Title:         a.Title,
		TitleEnglish:  deref(a.TitleEnglish),
		TitleJapanese: deref(a.TitleJapanese),
		Type:          deref(a.Type),
		Status:        deref(a.Status),
		Airing:        a.Airing,
		EpisodeCount:  episodes,
		Score:         score,
		Rank:          deref(a.Rank),
		Popularity:    deref(a.Popularity),
		Members:       deref(a.Members),
		Season:        deref(a.Season),
		Year:          deref(a.Year),
		Images:        a.Images.toModel(),
		Genres:        refs(a.Genres),
		Studios:       refs(a.Studios),
		Aired: models.AiredRange{
			From:  deref(a.Aired.From),
			To:    deref(a.Aired.To),
			Label: a.Aired.String,
		},
		Synopsis: deref(a.Synopsis),
	}
}

// toModel prefers jpg and falls back to webp per size.
func (i jikanImages) toModel() models.Images {
	pick := func(jpg, webp string) string {
		if jpg != "" {
			return jpg
		}
		return webp
	}
	return models.Images{
		ImageURL:      pick(i.JPG.ImageURL, i.WebP.ImageURL),
		SmallImageURL: pick(i.JPG.SmallImageURL, i.WebP.SmallImageURL),
		LargeImageURL: pick(i.JPG.LargeImageURL, i.WebP.LargeImageURL),
	}
}

func (r jikanRecommendation) toStub() models.RecommendationStub {
	return models.RecommendationStub{
		ID:     r.Entry.MalID,
		Title:  r.Entry.Title,
		Images: r.Entry.Images.toModel(),
		Votes:  r.Votes,
	}
}

func refs(in []jikanRef) []models.Named {
	out := make([]models.Named, 0, len(in))
	for _, r := range in {
		out = append(out, models.Named{ID: r.MalID, Name: r.Name})
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
