package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/haasonsaas/mealplanner/internal/ambiguity"
	"github.com/haasonsaas/mealplanner/internal/auth"
	"github.com/haasonsaas/mealplanner/internal/classifier"
	"github.com/haasonsaas/mealplanner/internal/config"
	"github.com/haasonsaas/mealplanner/internal/executor"
	"github.com/haasonsaas/mealplanner/internal/formatter"
	"github.com/haasonsaas/mealplanner/internal/history"
	"github.com/haasonsaas/mealplanner/internal/httpapi"
	"github.com/haasonsaas/mealplanner/internal/inventorysvc"
	"github.com/haasonsaas/mealplanner/internal/llm"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
	"github.com/haasonsaas/mealplanner/internal/observability"
	"github.com/haasonsaas/mealplanner/internal/orchestrator"
	"github.com/haasonsaas/mealplanner/internal/planner"
	"github.com/haasonsaas/mealplanner/internal/progress"
	"github.com/haasonsaas/mealplanner/internal/proposalsvc"
	"github.com/haasonsaas/mealplanner/internal/registry"
	"github.com/haasonsaas/mealplanner/internal/resolver"
	"github.com/haasonsaas/mealplanner/internal/session"
	"github.com/haasonsaas/mealplanner/internal/stage"
)

// runServe wires every component (C1-C13) from cfg and serves the
// HTTP/SSE surface (internal/httpapi) until a shutdown signal arrives.
// Grounded on cmd/nexus/handlers_serve.go's runServe: load config,
// build the long-lived server, run it under signal.NotifyContext, and
// give it 30s to shut down gracefully.
func runServe(ctx context.Context, configPath string, debug bool) error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Observability.LogLevel = logLevel
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:     cfg.Observability.LogLevel,
		Format:    "json",
		AddSource: debug,
	})
	logger.Info(ctx, "starting mealplanner", "version", version, "commit", commit, "config", configPath)

	metrics := observability.NewMetrics()

	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName: cfg.Observability.ServiceName,
		Endpoint:    cfg.Observability.OTELEndpoint,
	})
	defer shutdownTracer(context.Background())

	historyStore, err := history.NewStore(history.Config{
		DSN:             cfg.History.DSN,
		MaxOpenConns:    cfg.History.MaxOpenConns,
		MaxIdleConns:    cfg.History.MaxIdleConns,
		ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		ConnectTimeout:  cfg.History.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to recipe history database: %w", err)
	}
	defer historyStore.Close()
	if err := historyStore.Migrate(ctx); err != nil {
		return fmt.Errorf("applying recipe_history schema: %w", err)
	}

	inventoryClient, err := inventorysvc.NewClient(inventorysvc.Config{
		BaseURL: cfg.InventorySvc.BaseURL,
		Timeout: cfg.InventorySvc.Timeout,
	})
	if err != nil {
		return fmt.Errorf("building inventory service client: %w", err)
	}

	proposalClient, err := proposalsvc.NewClient(proposalsvc.Config{
		BaseURL: cfg.ProposalSvc.BaseURL,
		Timeout: cfg.ProposalSvc.Timeout,
	})
	if err != nil {
		return fmt.Errorf("building proposal service client: %w", err)
	}

	provider, err := buildLLMProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building llm provider: %w", err)
	}

	tools := registry.New()
	if err := wireTools(tools, inventoryClient, proposalClient, historyStore); err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	sessions := session.NewMemoryStore(cfg.Session.IdleTimeout)
	progressChannel := progress.New()
	classify := classifier.New(*cfg.Classifier.Markers)
	stageController := stage.New(historyStore, *cfg.Classifier.Markers)

	plan := planner.New(provider, tools, activeModel(cfg))
	plan.SetMetrics(metrics)
	plan.SetTracer(tracer)

	exec := executor.New(tools, resolver.New(), progressChannel, ambiguity.New(), formatter.New(), executor.DefaultParallelism)
	exec.SetMetrics(metrics)
	exec.SetTracer(tracer)

	orch := orchestrator.New(sessions, classify, plan, exec, formatter.New())
	orch.SetInventoryBypass(inventoryClient, cfg.Classifier.BypassInventoryView)

	authService := auth.NewService(auth.Config{
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenExpiry: cfg.Auth.TokenExpiry,
		APIKeys:     toAPIKeyConfigs(cfg.Auth.APIKeys),
	})

	handler := httpapi.NewHandler(httpapi.Config{
		Orchestrator:  orch,
		Sessions:      sessions,
		Stage:         stageController,
		Progress:      progressChannel,
		AuthService:   authService,
		Logger:        slog.Default(),
		Metrics:       metrics,
		Tracer:        tracer,
		LogMiddleware: logger.LogMiddleware,
		ModelUsed:     activeModel(cfg),
	})

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	evictionStop := startEvictionJob(sessions, progressChannel, cfg.Session, logger)
	defer evictionStop()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "mealplanner listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info(context.Background(), "shutdown signal received, draining connections")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info(context.Background(), "mealplanner stopped gracefully")
	return nil
}

func buildLLMProvider(ctx context.Context, cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAIProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.DefaultModel)
	case "bedrock":
		return llm.NewBedrockProvider(ctx, llm.BedrockConfig{
			Region:          cfg.LLM.Bedrock.Region,
			AccessKeyID:     cfg.LLM.Bedrock.AccessKeyID,
			SecretAccessKey: cfg.LLM.Bedrock.SecretAccessKey,
			SessionToken:    cfg.LLM.Bedrock.SessionToken,
			DefaultModel:    cfg.LLM.Bedrock.DefaultModel,
			MaxRetries:      cfg.LLM.Bedrock.MaxRetries,
			RetryDelay:      cfg.LLM.Bedrock.RetryDelay,
		})
	default:
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:       cfg.LLM.Anthropic.APIKey,
			BaseURL:      cfg.LLM.Anthropic.BaseURL,
			DefaultModel: cfg.LLM.Anthropic.DefaultModel,
			MaxRetries:   cfg.LLM.Anthropic.MaxRetries,
			RetryDelay:   cfg.LLM.Anthropic.RetryDelay,
		})
	}
}

func activeModel(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAI.DefaultModel
	case "bedrock":
		return cfg.LLM.Bedrock.DefaultModel
	default:
		return cfg.LLM.Anthropic.DefaultModel
	}
}

func toAPIKeyConfigs(in []config.APIKeyConfigYAML) []auth.APIKeyConfig {
	out := make([]auth.APIKeyConfig, len(in))
	for i, k := range in {
		out[i] = auth.APIKeyConfig{Key: k.Key, UserID: k.UserID, Email: k.Email, Name: k.Name}
	}
	return out
}

// wireTools registers every spec.md §1 tool against the catalog built
// by registry.StandardDescriptors, binding each descriptor to the
// collaborator client method with the matching name.
func wireTools(tools *registry.Registry, inv *inventorysvc.Client, prop *proposalsvc.Client, hist *history.Store) error {
	handlers := map[string]registry.Handler{
		"inventory_service.get_inventory":          inv.GetInventory,
		"inventory_service.add_inventory":          inv.AddInventory,
		"inventory_service.update_inventory":       inv.UpdateInventory,
		"inventory_service.delete_inventory":       inv.DeleteInventory,
		"proposal_service.generate_menu_plan":      prop.GenerateMenuPlan,
		"proposal_service.search_menu_from_rag":    prop.SearchMenuFromRAG,
		"proposal_service.search_recipes_from_web": prop.SearchRecipesFromWeb,
		"history_service.save_recipe":              historySaveHandler(hist),
	}
	for _, desc := range registry.StandardDescriptors() {
		handler, ok := handlers[desc.Name]
		if !ok {
			return fmt.Errorf("no handler wired for tool %q", desc.Name)
		}
		if err := tools.Register(desc, handler); err != nil {
			return err
		}
	}
	return nil
}

// historySaveHandler adapts history.Store.Save (userID, title,
// *mealmodel.Recipe) to registry.Handler's (params, authToken) shape,
// the same way inventorysvc/proposalsvc's client methods already
// match it natively.
func historySaveHandler(hist *history.Store) registry.Handler {
	return func(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
		userID, _ := params["user_id"].(string)
		title, _ := params["title"].(string)
		source, _ := params["source"].(string)
		recipe := &mealmodel.Recipe{Title: title, Source: mealmodel.RecipeSource(source)}
		id, err := hist.Save(ctx, userID, title, recipe)
		if err != nil {
			return mealmodel.ToolResult{Success: false, Error: err.Error()}, err
		}
		return mealmodel.ToolResult{Success: true, Data: map[string]any{"id": id}}, nil
	}
}

// startEvictionJob runs session.Store.EvictIdle on cfg.EvictionCron,
// closing each evicted session's progress stream. Grounded on
// internal/cron/schedule.go's use of robfig/cron; wired directly here
// rather than through that package, since its Schedule type is built
// around a richer at/every/cron config shape this service doesn't use.
func startEvictionJob(sessions session.Store, progressChannel *progress.Channel, cfg config.SessionConfig, logger *observability.Logger) func() {
	spec := cfg.EvictionCron
	if spec == "" {
		spec = "@every 5m"
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		evicted, err := sessions.EvictIdle(context.Background(), time.Now())
		if err != nil {
			logger.Error(context.Background(), "session eviction failed", "error", err)
			return
		}
		for _, id := range evicted {
			progressChannel.CloseSession(id, "idle timeout")
		}
		if len(evicted) > 0 {
			logger.Info(context.Background(), "evicted idle sessions", "count", len(evicted))
		}
	})
	if err != nil {
		logger.Error(context.Background(), "invalid eviction schedule, eviction disabled", "schedule", spec, "error", err)
		return func() {}
	}
	c.Start()
	return func() { <-c.Stop().Done() }
}
