package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"slimelist/pkg/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusColor(s models.Status) text.Colors {
	switch s {
	case models.StatusWatching:
		return text.Colors{text.FgGreen}
	case models.StatusCompleted:
		return text.Colors{text.FgBlue}
	case models.StatusPlanToWatch:
		return text.Colors{text.FgYellow}
	case models.StatusDropped:
		return text.Colors{text.FgRed}
	}
	return nil
}

func statusCell(s models.Status, colorize bool) string {
	if !colorize {
		return string(s)
	}
	return statusColor(s).Sprint(string(s))
}

// progressCell renders "watched/total", with "?" for an unknown total.
func progressCell(watched, total int) string {
	t := "?"
	if total > 0 {
		t = strconv.Itoa(total)
	}
	return strconv.Itoa(watched) + "/" + t
}

func scoreCell(score *int) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score)
}

func entryRows(entries []models.ListEntry, colorize bool) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.AnimeID),
			e.Title,
			statusCell(e.Status, colorize),
			progressCell(e.EpisodesWatched, e.TotalEpisodes),
			scoreCell(e.Score),
		})
	}
	return rows
}

func catalogRows(entries []models.CatalogEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, a := range entries {
		eps := "?"
		if a.EpisodeCount > 0 {
			eps = strconv.Itoa(a.EpisodeCount)
		}
		score := "-"
		if a.Score > 0 {
			score = strconv.FormatFloat(a.Score, 'f', 2, 64)
		}
		rows = append(rows, []string{strconv.Itoa(a.ID), a.Title, a.Type, eps, score})
	}
	return rows
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(cmd *cobra.Command, ctx *commandContext, entries []models.ListEntry) error {
	if ctx.jsonOut {
		return writeJSON(cmd, entries)
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		_, err := io.WriteString(out, "list is empty\n")
		return err
	}
	_, err := io.WriteString(out, renderTable(
		[]string{"ID", "Title", "Status", "Episodes", "Score"},
		entryRows(entries, shouldColorize(out)),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)+"\n")
	return err
}

func printCatalog(cmd *cobra.Command, ctx *commandContext, entries []models.CatalogEntry) error {
	if ctx.jsonOut {
		return writeJSON(cmd, entries)
	}
	_, err := io.WriteString(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Title", "Type", "Episodes", "Score"},
		catalogRows(entries),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)+"\n")
	return err
}
