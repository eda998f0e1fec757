package cmd

import (
	"github.com/spf13/cobra"
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Open the consent screen for an authorization request",
	Long:  "Authorize opens the consent screen directly. A valid session is required; an expired one drops back to the login form.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}

		entry, err := entryURL(rt.cfg, "/auth")
		if err != nil {
			return err
		}
		entry.RawQuery = authorizationQuery().Encode()

		return runFlow(rt, entry, nil)
	},
}

func init() {
	addRequestFlags(authorizeCmd)
}
