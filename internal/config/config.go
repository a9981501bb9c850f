// Package config loads the process configuration: a YAML file
// overlaid with environment variables, matching
// internal/config/config.go's decode-then-validate shape. Every
// field a SPEC_FULL component needs at startup lives on Config; the
// components themselves stay ignorant of YAML/env entirely and are
// constructed from the plain Go values this package produces.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/haasonsaas/mealplanner/internal/classifier"
)

// Config is the top-level configuration structure for mealplanner.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Session       SessionConfig       `yaml:"session"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Planner       PlannerConfig       `yaml:"planner"`
	LLM           LLMConfig           `yaml:"llm"`
	History       HistoryConfig       `yaml:"history"`
	InventorySvc  ServiceClientConfig `yaml:"inventory_service"`
	ProposalSvc   ServiceClientConfig `yaml:"proposal_service"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the inbound HTTP/SSE surface (spec.md §6).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AuthConfig mirrors auth.Config, kept separate so internal/config
// does not need to import internal/auth just to re-export its shape.
type AuthConfig struct {
	JWTSecret   string             `yaml:"jwt_secret"`
	TokenExpiry time.Duration      `yaml:"token_expiry"`
	APIKeys     []APIKeyConfigYAML `yaml:"api_keys"`
}

// APIKeyConfigYAML is the YAML-decodable twin of auth.APIKeyConfig.
type APIKeyConfigYAML struct {
	Key    string `yaml:"key"`
	UserID string `yaml:"user_id"`
	Email  string `yaml:"email"`
	Name   string `yaml:"name"`
}

// SessionConfig controls session lifetime (spec.md §4.2 evict_idle).
type SessionConfig struct {
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	EvictionCron    string        `yaml:"eviction_cron"`
	HeartbeatPeriod time.Duration `yaml:"heartbeat_period"`
}

// ClassifierConfig resolves spec.md §9's first Open Question: the
// additional-proposal trigger tables are data, loaded here, not
// hardcoded.
type ClassifierConfig struct {
	BypassInventoryView bool                   `yaml:"bypass_inventory_view"`
	Markers             *classifier.MarkerTable `yaml:"markers"`
}

// PlannerConfig resolves spec.md §9's second Open Question: the
// LLM/RAG candidate split is a tunable default, not a constant.
type PlannerConfig struct {
	CandidateSplit CandidateSplitConfig `yaml:"candidate_split"`
	MaxRetries     int                  `yaml:"max_retries"`
}

// CandidateSplitConfig is the count of candidates drawn from the LLM
// versus the RAG corpus for one proposal round. Defaults to 2/3.
type CandidateSplitConfig struct {
	LLM int `yaml:"llm"`
	RAG int `yaml:"rag"`
}

// LLMConfig selects and configures the active planner LLM provider.
type LLMConfig struct {
	Provider string         `yaml:"provider"`
	Anthropic AnthropicYAML `yaml:"anthropic"`
	OpenAI    OpenAIYAML    `yaml:"openai"`
	Bedrock   BedrockYAML   `yaml:"bedrock"`
}

type AnthropicYAML struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	DefaultModel string        `yaml:"default_model"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

type OpenAIYAML struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
}

type BedrockYAML struct {
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	SessionToken    string        `yaml:"session_token"`
	DefaultModel    string        `yaml:"default_model"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

// HistoryConfig configures the Postgres-backed recipe-history client.
type HistoryConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// ServiceClientConfig configures one external collaborator's REST
// client (inventorysvc or proposalsvc).
type ServiceClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ObservabilityConfig configures logging, metrics, and tracing.
type ObservabilityConfig struct {
	LogLevel        string `yaml:"log_level"`
	MetricsPort     int    `yaml:"metrics_port"`
	OTELEndpoint    string `yaml:"otel_endpoint"`
	ServiceName     string `yaml:"service_name"`
}

// Load reads a .env file if present (godotenv, silently skipped if
// absent), then loads and decodes the YAML config at path, overlaying
// the ANTHROPIC_API_KEY/OPENAI_API_KEY/DATABASE_URL/JWT_SECRET
// environment variables onto the decoded struct, and finally
// validates the mandatory fields (spec.md §6 "Exit codes /
// environment").
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.History.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.Planner.CandidateSplit.LLM == 0 && cfg.Planner.CandidateSplit.RAG == 0 {
		cfg.Planner.CandidateSplit.LLM = 2
		cfg.Planner.CandidateSplit.RAG = 3
	}
	if cfg.Classifier.Markers == nil {
		table := classifier.DefaultMarkerTable()
		cfg.Classifier.Markers = &table
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}

// Validate checks the mandatory fields named in spec.md §6 "Exit
// codes / environment": provider keys, database DSN, model names.
func (c *Config) Validate() error {
	var missing []string

	switch strings.ToLower(c.LLM.Provider) {
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
		if c.LLM.Anthropic.DefaultModel == "" {
			missing = append(missing, "llm.anthropic.default_model")
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if c.LLM.OpenAI.DefaultModel == "" {
			missing = append(missing, "llm.openai.default_model")
		}
	case "bedrock":
		if c.LLM.Bedrock.Region == "" {
			missing = append(missing, "llm.bedrock.region")
		}
		if c.LLM.Bedrock.DefaultModel == "" {
			missing = append(missing, "llm.bedrock.default_model")
		}
	default:
		missing = append(missing, fmt.Sprintf("llm.provider %q is not one of anthropic|openai|bedrock", c.LLM.Provider))
	}

	if c.History.DSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.InventorySvc.BaseURL == "" {
		missing = append(missing, "inventory_service.base_url")
	}
	if c.ProposalSvc.BaseURL == "" {
		missing = append(missing, "proposal_service.base_url")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
