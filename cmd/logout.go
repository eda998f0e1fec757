package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Server.Timeout.Duration)
		defer cancel()

		if err := rt.gateway.Logout(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}

		fmt.Println("Logged out.")
		return nil
	},
}
