// Package inventorysvc is the typed client for the external kitchen-
// inventory collaborator (spec.md §1): CRUD over a user's pantry rows,
// fronted by its own service boundary the core never reaches past.
// Grounded on internal/tools/servicenow/client.go and
// internal/tools/homeassistant/client.go's shape (a bare net/http
// client, config struct, one method per REST operation, JSON decode
// into a typed result) — here each method's signature is exactly
// registry.Handler, so it registers directly without an adapter.
package inventorysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

const defaultTimeout = 10 * time.Second

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the inventory service's REST surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client. baseURL must be non-empty.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("inventorysvc: base_url is required")
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

// GetInventory is a registry.Handler for inventory_service.get_inventory.
func (c *Client) GetInventory(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, http.MethodGet, "/inventory", params, authToken)
}

// AddInventory is a registry.Handler for inventory_service.add_inventory.
func (c *Client) AddInventory(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, http.MethodPost, "/inventory", params, authToken)
}

// UpdateInventory is a registry.Handler for inventory_service.update_inventory.
// It may return the AMBIGUITY_DETECTED marker (spec.md §4.10).
func (c *Client) UpdateInventory(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, http.MethodPatch, "/inventory", params, authToken)
}

// DeleteInventory is a registry.Handler for inventory_service.delete_inventory.
// It may return the AMBIGUITY_DETECTED marker (spec.md §4.10).
func (c *Client) DeleteInventory(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	return c.call(ctx, http.MethodDelete, "/inventory", params, authToken)
}

// call performs one JSON request against the inventory service and
// decodes its response directly into the uniform tool-call contract
// (spec.md §6): the service itself speaks {success, data, error, items}.
func (c *Client) call(ctx context.Context, method, path string, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
	var body io.Reader
	if method != http.MethodGet {
		encoded, err := json.Marshal(params)
		if err != nil {
			return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindInternal, "inventorysvc: encoding request body", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindInternal, "inventorysvc: building request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	if method == http.MethodGet || method == http.MethodDelete {
		attachQuery(req, params)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindToolFailed, "inventorysvc: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return mealmodel.ToolResult{}, mealerr.New(mealerr.KindAuthFailed, "inventorysvc: unauthorized")
	}
	if resp.StatusCode >= 500 {
		return mealmodel.ToolResult{}, mealerr.New(mealerr.KindToolFailed, fmt.Sprintf("inventorysvc: server error %d", resp.StatusCode))
	}

	var result mealmodel.ToolResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return mealmodel.ToolResult{}, mealerr.Wrap(mealerr.KindInternal, "inventorysvc: decoding response", err)
	}
	return result, nil
}

// attachQuery folds a flat string-keyed parameter map onto the
// request's query string for read/delete calls, which carry no body.
func attachQuery(req *http.Request, params map[string]any) {
	q := req.URL.Query()
	for k, v := range params {
		if s, ok := v.(string); ok {
			q.Set(k, s)
			continue
		}
		q.Set(k, fmt.Sprintf("%v", v))
	}
	req.URL.RawQuery = q.Encode()
}
