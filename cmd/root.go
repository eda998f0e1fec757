package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "1.0.0"

	flagServer string
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:   "unique-auth",
	Short: "unique-auth – terminal client for the UniQUE authorization server",
	Long:  "unique-auth is a terminal client for the UniQUE OAuth2 authorization server.\n\nRun 'unique-auth open' to start the login flow, or 'unique-auth demo' for a self-contained walkthrough against a built-in stub server.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("unique-auth %s\n", Version)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Base URL of the authorization server (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(authorizeCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	cobra.OnInitialize()
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err != nil {
			_, err := fmt.Fprintln(os.Stderr, err)
			if err != nil {
				return err
			}

			if err := cmd.Usage(); err != nil {
				return err
			}
			os.Exit(2)
		}
		return nil
	})
}
