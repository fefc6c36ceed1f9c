package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	listsync "slimelist/internal/sync"
	"slimelist/pkg/models"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history <anime-id>",
		Short: "Show episode progress history for a title",
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
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp struct {
				Total int                     `json:"total"`
				Items []models.EpisodeHistory `json:"items"`
			}
			endpoint := ctx.endpoint(entryPath(id)+"/history") + "?" + q.Encode()
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, endpoint, token, nil, &resp); err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, resp)
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(resp.Items))
			for _, h := range resp.Items {
				rows = append(rows, []string{
					h.At.Local().Format("2006-01-02 15:04"),
					fmt.Sprintf("%d -> %d", h.From, h.To),
					statusCell(h.Status, colorize),
				})
			}
			out := cmd.OutOrStdout()
			if _, err := io.WriteString(out, renderTable([]string{"When", "Episodes", "Status"}, rows, nil)+"\n"); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%d of %d changes\n", len(resp.Items), resp.Total)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live list changes from other sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			wsURL, err := websocketURL(ctx.baseURL, "/users/ws")
			if err != nil {
				return err
			}
			wsURL += "?" + url.Values{"token": {token}}.Encode()
			return runWebSocket(cmd.Context(), wsURL, cmd.OutOrStdout(), ctx.jsonOut)
		},
	}
}

// runWebSocket prints events until the server closes or ctx ends.
func runWebSocket(ctx context.Context, wsURL string, out io.Writer, raw bool) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return ctx.Err()
			}
			return err
		}
		if raw {
			fmt.Fprintln(out, string(msg))
			continue
		}
		fmt.Fprintln(out, describeEvent(msg))
	}
}

func describeEvent(msg []byte) string {
	var ev listsync.ListEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return string(msg)
	}
	switch ev.Type {
	case listsync.EventListUpdate:
		if ev.Entry == nil {
			return fmt.Sprintf("updated %d", ev.AnimeID)
		}
		return fmt.Sprintf("%s  %s  %s", ev.Entry.Title, ev.Entry.Status, progressCell(ev.Entry.EpisodesWatched, ev.Entry.TotalEpisodes))
	case listsync.EventListRemove:
		return fmt.Sprintf("removed %d", ev.AnimeID)
	case "welcome":
		return "connected; waiting for changes"
	}
	return string(msg)
}
