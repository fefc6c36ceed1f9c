package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

// commandContext carries the global flags every subcommand reads.
type commandContext struct {
	baseURL   string
	tokenPath string
	jsonOut   bool
	client    *http.Client
}

func (c *commandContext) endpoint(path string) string {
	return strings.TrimRight(c.baseURL, "/") + path
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{client: &http.Client{Timeout: 30 * time.Second}}

	rootCmd := &cobra.Command{
		Use:           "slimelist",
		Short:         "Track anime watch lists from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	baseURL := os.Getenv("SLIMELIST_API")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rootCmd.PersistentFlags().StringVar(&ctx.baseURL, "api", baseURL, "API base URL")
	rootCmd.PersistentFlags().StringVar(&ctx.tokenPath, "token", defaultTokenPath(), "Token file path")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "Print raw JSON instead of tables")

	rootCmd.AddCommand(newAuthCommand(ctx))
	rootCmd.AddCommand(newAnimeCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))

	return rootCmd
}
