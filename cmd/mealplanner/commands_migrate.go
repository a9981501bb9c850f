package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/mealplanner/internal/config"
	"github.com/haasonsaas/mealplanner/internal/history"
)

// buildMigrateCmd creates the "migrate" command that applies the
// recipe_history schema. Grounded on cmd/nexus/commands_migrate.go's
// migrate command, trimmed to this service's single table (no
// up/down history to track, see internal/history/migrate.go).
func buildMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the recipe_history database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := history.MigrateDSN(cmd.Context(), cfg.History.DSN); err != nil {
				return fmt.Errorf("applying schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "recipe_history schema is up to date")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
