// Package apiclient is the HTTP client alembic CLI commands use to talk to a
// running API server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/alembic/api"
)

const defaultTimeout = 60 * time.Second

// ErrConfirmationRequired mirrors the server's 428 response.
var ErrConfirmationRequired = errors.New("reset requires confirmation")

// Client calls the alembic HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the API at target (scheme, host and port).
func New(target string) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing api target %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api target %q must include scheme and host", target)
	}

	return &Client{
		baseURL:    strings.TrimRight(target, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Inventory lists discovered concepts matching query.
func (c *Client) Inventory(ctx context.Context, query string) (*api.InventoryResponse, error) {
	path := "/inventory"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}

	var out api.InventoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recipes lists the recipe cache.
func (c *Client) Recipes(ctx context.Context) (*api.RecipesResponse, error) {
	var out api.RecipesResponse
	if err := c.do(ctx, http.MethodGet, "/recipes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Combine combines two discovered concepts by name.
func (c *Client) Combine(ctx context.Context, a, b string) (*api.CombineResponse, error) {
	var out api.CombineResponse
	if err := c.do(ctx, http.MethodPost, "/combine", api.CombineRequest{A: a, B: b}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset restores the seed state. confirm must be true.
func (c *Client) Reset(ctx context.Context, confirm bool) (*api.InventoryResponse, error) {
	var out api.InventoryResponse
	if err := c.do(ctx, http.MethodPost, "/reset", api.ResetRequest{Confirm: confirm}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Notices returns the most recent notices.
func (c *Client) Notices(ctx context.Context, limit int) (*api.NoticesResponse, error) {
	var out api.NoticesResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/notices?limit=%d", limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling alembic API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusPreconditionRequired {
		return ErrConfirmationRequired
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("alembic API error (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("alembic API error (HTTP %d): %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
