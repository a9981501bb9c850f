// Package main is the CLI entry point for mealplanner: the
// conversational meal-planning assistant's request-to-plan-to-
// execution pipeline, served over HTTP/SSE (spec.md §6). Grounded on
// cmd/nexus/main.go's cobra-root-plus-subcommands shape, trimmed to
// the three commands this service needs.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("mealplanner exited with error", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mealplanner",
		Short: "Conversational meal-planning assistant",
		Long: `mealplanner drives a chat-to-plan-to-execution pipeline: a user's
natural-language message is classified, turned into a dependency-aware
task graph by an LLM planner, and executed against the inventory and
recipe-proposal collaborators with live progress streamed over SSE.`,
		Version:      fmt.Sprintf("%s (commit %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd(), buildMigrateCmd(), buildStatusCmd())
	return rootCmd
}

func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("MEALPLANNER_CONFIG"); env != "" {
		return env
	}
	return "mealplanner.yaml"
}
