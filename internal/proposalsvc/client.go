// Package proposalsvc is the typed client for the external recipe-
// proposal collaborators (spec.md §1): the generative planner, the
// RAG recipe corpus, and web recipe search. None of the generation,
// retrieval, or browsing logic lives here; only the request/response
// contract does. Grounded on internal/tools/servicenow/client.go and
// internal/tools/homeassistant/client.go's one-REST-client-per-package
// shape — each method's signature is exactly registry.Handler.
package proposalsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

const defaultTimeout = 15 * time.Second

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the proposal service's REST surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client. baseURL must be non-empty.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("proposalsvc: base_url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// GenerateMenuPlan is a registry.Handler for
// proposal_service.generate_menu_plan: LLM-generated candidates.
func (c *Client) GenerateMenuPlan(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, "/proposals/generate", params, authToken)
}

// SearchMenuFromRAG is a registry.Handler for
// proposal_service.search_menu_from_rag: retrieval over the recipe
// corpus.
func (c *Client) SearchMenuFromRAG(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, "/proposals/rag-search", params, authToken)
}

// SearchRecipesFromWeb is a registry.Handler for
// proposal_service.search_recipes_from_web: enriches a set of titles
// with URL/image metadata from open web search.
func (c *Client) SearchRecipesFromWeb(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, "/proposals/web-search", params, authToken)
}

// call performs one JSON POST against the proposal service and decodes
// its response directly into the uniform tool-call contract (spec.md §6).
func (c *Client) call(ctx context.Context, path string, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindInternal, "proposalsvc: encoding request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindInternal, "proposalsvc: building request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindToolFailed, "proposalsvc: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return mealmodel.ToolResult{}, mealerr.New(mealerr.KindAuthFailed, "proposalsvc: unauthorized")
	}
	if resp.StatusCode >= 500 {
		return mealmodel.ToolResult{}, mealerr.New(mealerr.KindToolFailed, fmt.Sprintf("proposalsvc: server error %d", resp.StatusCode))
	}

	var result mealmodel.ToolResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindInternal, "proposalsvc: decoding response", err)
	}
	return result, nil
}
