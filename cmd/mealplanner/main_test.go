package main

import "testing"

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, name := range []string{"serve", "migrate", "status"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := resolveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Errorf("resolveConfigPath(explicit) = %q", got)
	}

	t.Setenv("MEALPLANNER_CONFIG", "/etc/mealplanner/env.yaml")
	if got := resolveConfigPath(""); got != "/etc/mealplanner/env.yaml" {
		t.Errorf("resolveConfigPath(env) = %q", got)
	}

	t.Setenv("MEALPLANNER_CONFIG", "")
	if got := resolveConfigPath(""); got != "mealplanner.yaml" {
		t.Errorf("resolveConfigPath(default) = %q", got)
	}
}
