package main

import "github.com/spf13/cobra"

// buildServeCmd creates the "serve" command that starts the HTTP/SSE
// server. Grounded on cmd/nexus/commands_serve.go's buildServeCmd.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/SSE server",
		Long: `Start the mealplanner HTTP/SSE server.

Loads configuration, wires the classifier, planner, executor, and
their collaborators (inventory service, proposal service, recipe
history), and serves /api/chat, /api/stream, /api/selection, and
/api/save until SIGINT/SIGTERM triggers a graceful shutdown.`,
		Example: `  # Start with default config
  mealplanner serve

  # Start with a custom config and debug logging
  mealplanner serve --config /etc/mealplanner/production.yaml --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), resolveConfigPath(configPath), debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging (verbose output)")
	return cmd
}
