package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"slimelist/pkg/models"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Manage your watch list",
	}
	listCmd.AddCommand(newListShowCommand(ctx))
	listCmd.AddCommand(newListAddCommand(ctx))
	listCmd.AddCommand(newListSetCommand(ctx))
	listCmd.AddCommand(newListIncCommand(ctx))
	listCmd.AddCommand(newListRemoveCommand(ctx))
	listCmd.AddCommand(newListStatsCommand(ctx))
	listCmd.AddCommand(newListExportCommand(ctx))
	listCmd.AddCommand(newListImportCommand(ctx))
	return listCmd
}

func entryPath(id int) string {
	return "/users/list/" + strconv.Itoa(id)
}

func parseStatusFlag(s string) (models.Status, error) {
	st := models.ParseStatus(s)
	if st == "" {
		return "", fmt.Errorf("invalid status %q (watching, completed, plan_to_watch, dropped)", s)
	}
	return st, nil
}

func newListShowCommand(ctx *commandContext) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the list, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			endpoint := ctx.endpoint("/users/list")
			if status != "" {
				st, err := parseStatusFlag(status)
				if err != nil {
					return err
				}
				endpoint += "?" + url.Values{"status": {string(st)}}.Encode()
			}
			var resp struct {
				Items []models.ListEntry `json:"items"`
			}
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, endpoint, token, nil, &resp); err != nil {
				return err
			}
			return printEntries(cmd, ctx, resp.Items)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only show entries with this status")
	return cmd
}

func newListAddCommand(ctx *commandContext) *cobra.Command {
	var (
		status   string
		episodes int
		score    int
	)
	cmd := &cobra.Command{
		Use:   "add <anime-id>",
		Short: "Add a title to the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			id, err := parseAnimeID(args[0])
			if err != nil {
				return err
			}
			st, err := parseStatusFlag(status)
			if err != nil {
				return err
			}

			payload := map[string]any{"anime_id": id, "status": st}
			if cmd.Flags().Changed("episodes") {
				payload["episodes_watched"] = episodes
			}
			if cmd.Flags().Changed("score") {
				payload["score"] = score
			}
			var entry models.ListEntry
			if err := doJSON(cmd.Context(), ctx.client, http.MethodPost, ctx.endpoint("/users/list"), token, payload, &entry); err != nil {
				return err
			}
			return printEntries(cmd, ctx, []models.ListEntry{entry})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(models.StatusPlanToWatch), "Initial status")
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0, "Episodes already watched")
	cmd.Flags().IntVar(&score, "score", 0, "Score from 1 to 10")
	return cmd
}

func newListSetCommand(ctx *commandContext) *cobra.Command {
	var (
		status   string
		episodes int
		score    int
	)
	cmd := &cobra.Command{
		Use:   "set <anime-id>",
		Short: "Change status, episode count or score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			id, err := parseAnimeID(args[0])
			if err != nil {
				return err
			}

			payload := map[string]any{}
			if cmd.Flags().Changed("status") {
				st, err := parseStatusFlag(status)
				if err != nil {
					return err
				}
				payload["status"] = st
			}
			if cmd.Flags().Changed("episodes") {
				payload["episodes_watched"] = episodes
			}
			if cmd.Flags().Changed("score") {
				payload["score"] = score
			}
			if len(payload) == 0 {
				return errors.New("nothing to change; pass --status, --episodes or --score")
			}

			var entry models.ListEntry
			if err := doJSON(cmd.Context(), ctx.client, http.MethodPatch, ctx.endpoint(entryPath(id)), token, payload, &entry); err != nil {
				return err
			}
			return printEntries(cmd, ctx, []models.ListEntry{entry})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status")
	cmd.Flags().IntVarP(&episodes, "episodes", "e", 0, "Episodes watched")
	cmd.Flags().IntVar(&score, "score", 0, "Score from 1 to 10")
	return cmd
}

func newListIncCommand(ctx *commandContext) *cobra.Command {
	var by int
	cmd := &cobra.Command{
		Use:   "inc <anime-id>",
		Short: "Mark more episodes as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			id, err := parseAnimeID(args[0])
			if err != nil {
				return err
			}
			var entry models.ListEntry
			payload := map[string]int{"delta": by}
			if err := doJSON(cmd.Context(), ctx.client, http.MethodPost, ctx.endpoint(entryPath(id)+"/episodes"), token, payload, &entry); err != nil {
				return err
			}
			if !ctx.jsonOut && entry.Status == models.StatusCompleted && entry.TotalEpisodes > 0 && entry.EpisodesWatched == entry.TotalEpisodes {
				fmt.Fprintf(cmd.OutOrStdout(), "finished %s\n", entry.Title)
			}
			return printEntries(cmd, ctx, []models.ListEntry{entry})
		},
	}
	cmd.Flags().IntVarP(&by, "by", "n", 1, "Number of episodes (negative to step back)")
	return cmd
}

func newListRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <anime-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a title from the list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			id, err := parseAnimeID(args[0])
			if err != nil {
				return err
			}
			if err := doJSON(cmd.Context(), ctx.client, http.MethodDelete, ctx.endpoint(entryPath(id)), token, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", id)
			return nil
		},
	}
}

func newListStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			var stats models.ListStats
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, ctx.endpoint("/users/list/stats"), token, nil, &stats); err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, stats)
			}
			return writeStats(cmd.OutOrStdout(), stats, shouldColorize(cmd.OutOrStdout()))
		},
	}
}

func writeStats(w io.Writer, stats models.ListStats, colorize bool) error {
	rows := make([][]string, 0, len(models.Statuses)+1)
	for _, st := range models.Statuses {
		rows = append(rows, []string{statusCell(st, colorize), strconv.Itoa(stats.ByStatus[st])})
	}
	// statuses the server knows but this build does not
	var extra []string
	for st := range stats.ByStatus {
		if !st.Valid() {
			extra = append(extra, string(st))
		}
	}
	sort.Strings(extra)
	for _, st := range extra {
		rows = append(rows, []string{st, strconv.Itoa(stats.ByStatus[models.Status(st)])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(stats.Total)})

	if _, err := io.WriteString(w, renderTable([]string{"Status", "Titles"}, rows, []columnAlignment{alignLeft, alignRight})+"\n"); err != nil {
		return err
	}
	mean := "-"
	if stats.Scored > 0 {
		mean = strconv.FormatFloat(stats.MeanScore, 'f', 2, 64)
	}
	_, err := fmt.Fprintf(w, "episodes watched: %d  mean score: %s (%d scored)\n", stats.EpisodesWatched, mean, stats.Scored)
	return err
}

func newListExportCommand(ctx *commandContext) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the list as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := doRaw(cmd.Context(), ctx.client, http.MethodGet, ctx.endpoint("/users/list/export"), token, "", nil, &buf); err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")
	return cmd
}

func newListImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Upload a CSV export into the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var buf bytes.Buffer
			if err := doRaw(cmd.Context(), ctx.client, http.MethodPost, ctx.endpoint("/users/list/import"), token, "text/csv", f, &buf); err != nil {
				return err
			}
			var resp struct {
				Imported int `json:"imported"`
			}
			if err := unmarshalBody(buf.Bytes(), &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", resp.Imported)
			return nil
		},
	}
}
