package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validBase = `
llm:
  provider: anthropic
  anthropic:
    api_key: test-key
    default_model: claude-sonnet-4-20250514
history:
  dsn: postgres://user@localhost:5432/mealplanner?sslmode=disable
inventory_service:
  base_url: http://inventory.internal
proposal_service:
  base_url: http://proposal.internal
`

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, validBase+"\nserver:\n  extra_field: true\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validBase)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Fatalf("provider = %q, want anthropic", cfg.LLM.Provider)
	}
	if cfg.Planner.CandidateSplit.LLM != 2 || cfg.Planner.CandidateSplit.RAG != 3 {
		t.Fatalf("candidate split = %d/%d, want 2/3 default", cfg.Planner.CandidateSplit.LLM, cfg.Planner.CandidateSplit.RAG)
	}
	if cfg.Classifier.Markers == nil {
		t.Fatal("expected default marker table to be populated")
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadValidatesMissingProviderKey(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: anthropic
history:
  dsn: postgres://user@localhost:5432/mealplanner
inventory_service:
  base_url: http://inventory.internal
proposal_service:
  base_url: http://proposal.internal
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected ANTHROPIC_API_KEY error, got %v", err)
	}
}

func TestLoadValidatesUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: made-up
history:
  dsn: postgres://user@localhost:5432/mealplanner
inventory_service:
  base_url: http://inventory.internal
proposal_service:
  base_url: http://proposal.internal
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "llm.provider") {
		t.Fatalf("expected llm.provider error, got %v", err)
	}
}

func TestLoadValidatesMissingCollaboratorURLs(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: anthropic
  anthropic:
    api_key: test-key
    default_model: claude-sonnet-4-20250514
history:
  dsn: postgres://user@localhost:5432/mealplanner
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "inventory_service.base_url") {
		t.Fatalf("expected inventory_service.base_url error, got %v", err)
	}
	if !strings.Contains(err.Error(), "proposal_service.base_url") {
		t.Fatalf("expected proposal_service.base_url error, got %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://override@localhost:5432/mealplanner")
	t.Setenv("JWT_SECRET", "env-secret")

	path := writeConfig(t, `
llm:
  provider: anthropic
  anthropic:
    api_key: file-key
    default_model: claude-sonnet-4-20250514
history:
  dsn: postgres://default@localhost:5432/mealplanner
inventory_service:
  base_url: http://inventory.internal
proposal_service:
  base_url: http://proposal.internal
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Anthropic.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", cfg.LLM.Anthropic.APIKey)
	}
	if cfg.History.DSN != "postgres://override@localhost:5432/mealplanner" {
		t.Fatalf("expected database url override, got %q", cfg.History.DSN)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("expected jwt secret override, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoadCustomCandidateSplit(t *testing.T) {
	path := writeConfig(t, validBase+"\nplanner:\n  candidate_split:\n    llm: 1\n    rag: 4\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Planner.CandidateSplit.LLM != 1 || cfg.Planner.CandidateSplit.RAG != 4 {
		t.Fatalf("candidate split = %d/%d, want 1/4", cfg.Planner.CandidateSplit.LLM, cfg.Planner.CandidateSplit.RAG)
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mealplanner.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}
