// Package cli assembles the service's commands: start (serve) and migrate
// (apply schema changes).
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	var (
		port       string
		configPath string
	)

	root := &cobra.Command{
		Use:   "pubgame-service",
		Short: "Live multi-format trivia service for director, display, and player clients",
	}
	root.PersistentFlags().StringVar(&port, "port", envOr("PORT", ""), "port to listen on (overrides config)")
	root.PersistentFlags().StringVar(&configPath, "config", envOr("CONFIG_PATH", "config/config.yaml"), "path to YAML config")

	root.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath, port)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), configPath)
		},
	})
	return root.Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
