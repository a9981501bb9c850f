package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/lib/pq"

	"github.com/haasonsaas/mealplanner/internal/config"
)

// buildStatusCmd creates the "status" command: a quick health check of
// configuration and database connectivity, grounded on
// cmd/nexus/main.go's buildStatusCmd, trimmed to this service's
// single collaborator database.
func buildStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mealplanner %s (commit %s)\n", version, commit)

			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintf(out, "config: FAIL (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "config: OK (%s)\n", configPath)
			fmt.Fprintf(out, "llm provider: %s\n", cfg.LLM.Provider)

			db, err := sql.Open("postgres", cfg.History.DSN)
			if err != nil {
				fmt.Fprintf(out, "database: FAIL (%v)\n", err)
				return nil
			}
			defer db.Close()
			pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := db.PingContext(pingCtx); err != nil {
				fmt.Fprintf(out, "database: FAIL (%v)\n", err)
				return nil
			}
			fmt.Fprintln(out, "database: OK")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
