package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slimelist/pkg/models"
)

func newAnimeCommand(ctx *commandContext) *cobra.Command {
	animeCmd := &cobra.Command{
		Use:   "anime",
		Short: "Browse the anime catalog",
	}
	animeCmd.AddCommand(newListingCommand(ctx, "top", "Most popular titles", "/anime/top"))
	animeCmd.AddCommand(newListingCommand(ctx, "seasonal", "Titles airing this season", "/anime/seasonal"))
	animeCmd.AddCommand(newSearchCommand(ctx))
	animeCmd.AddCommand(newShowCommand(ctx))
	animeCmd.AddCommand(newRandomCommand(ctx))
	return animeCmd
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func newListingCommand(ctx *commandContext, use, short, path string) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Items []models.CatalogEntry `json:"items"`
			}
			endpoint := ctx.endpoint(path) + "?" + pageQuery(page, limit).Encode()
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
				return err
			}
			return printCatalog(cmd, ctx, resp.Items)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Items per page (server default when 0)")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query is required")
			}
			q := pageQuery(page, limit)
			q.Set("q", query)

			var resp struct {
				Items    []models.CatalogEntry `json:"items"`
				LastPage int                   `json:"last_page"`
			}
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, ctx.endpoint("/anime/search")+"?"+q.Encode(), "", nil, &resp); err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}
			if err := printCatalog(cmd, ctx, resp.Items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d\n", page, max(resp.LastPage, 1))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Items per page (server default when 0)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <anime-id>",
		Short: "Show one title with recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAnimeID(args[0])
			if err != nil {
				return err
			}
			var resp struct {
				Anime           models.CatalogEntry         `json:"anime"`
				Recommendations []models.RecommendationStub `json:"recommendations"`
			}
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, ctx.endpoint("/anime/"+strconv.Itoa(id)), "", nil, &resp); err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}
			writeAnimeDetail(cmd.OutOrStdout(), resp.Anime)
			if len(resp.Recommendations) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nRecommendations:")
				for _, r := range resp.Recommendations {
					fmt.Fprintf(cmd.OutOrStdout(), "  %6d  %s\n", r.ID, r.Title)
				}
			}
			return nil
		},
	}
}

func newRandomCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Pick a random title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entry models.CatalogEntry
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, ctx.endpoint("/anime/random"), "", nil, &entry); err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, entry)
			}
			writeAnimeDetail(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}

func writeAnimeDetail(w io.Writer, a models.CatalogEntry) {
	fmt.Fprintf(w, "%s  [#%d]\n", a.Title, a.ID)
	if a.TitleEnglish != "" && a.TitleEnglish != a.Title {
		fmt.Fprintf(w, "  English:  %s\n", a.TitleEnglish)
	}
	if a.TitleJapanese != "" {
		fmt.Fprintf(w, "  Japanese: %s\n", a.TitleJapanese)
	}
	eps := "unknown"
	if a.EpisodeCount > 0 {
		eps = strconv.Itoa(a.EpisodeCount)
	}
	fmt.Fprintf(w, "  Type: %s  Episodes: %s  Status: %s\n", a.Type, eps, a.Status)
	if a.Score > 0 {
		fmt.Fprintf(w, "  Score: %.2f  Rank: %d\n", a.Score, a.Rank)
	}
	if len(a.Genres) > 0 {
		names := make([]string, 0, len(a.Genres))
		for _, g := range a.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintf(w, "  Genres: %s\n", strings.Join(names, ", "))
	}
	if a.Synopsis != "" {
		fmt.Fprintf(w, "\n%s\n", a.Synopsis)
	}
}

func parseAnimeID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid anime id %q", s)
	}
	return id, nil
}
