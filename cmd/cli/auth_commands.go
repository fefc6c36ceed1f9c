package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

type authResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, log in and out",
	}
	authCmd.AddCommand(newCredentialsCommand(ctx, "register", "Create an account and save its token", "/auth/register"))
	authCmd.AddCommand(newCredentialsCommand(ctx, "login", "Log in and save the token", "/auth/login"))
	authCmd.AddCommand(newLogoutCommand(ctx))
	authCmd.AddCommand(newWhoamiCommand(ctx))
	return authCmd
}

// newCredentialsCommand builds register and login, which differ only in path.
func newCredentialsCommand(ctx *commandContext, use, short, path string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SLIMELIST_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("--username and --password (or SLIMELIST_PASSWORD) are required")
			}

			payload := map[string]string{"username": username, "password": password}
			var resp authResponse
			if err := doJSON(cmd.Context(), ctx.client, http.MethodPost, ctx.endpoint(path), "", payload, &resp); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			if err := saveToken(ctx.tokenPath, resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (token expires %s)\n", resp.User.Username, resp.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved token and delete it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token, err := readToken(ctx.tokenPath); err == nil && token != "" {
				if err := doJSON(cmd.Context(), ctx.client, http.MethodPost, ctx.endpoint("/auth/logout"), token, nil, nil); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
				}
			}
			if err := clearToken(ctx.tokenPath); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(ctx.tokenPath)
			if err != nil {
				return err
			}
			var me struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			}
			if err := doJSON(cmd.Context(), ctx.client, http.MethodGet, ctx.endpoint("/users/me"), token, nil, &me); err != nil {
				return err
			}
			if ctx.jsonOut {
				return writeJSON(cmd, me)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", me.Username, me.ID)
			return nil
		},
	}
}
