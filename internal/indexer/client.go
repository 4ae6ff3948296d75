// Package indexer is an HTTP client for the mbc20 indexing service.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://mbc20.xyz/api"
	requestTimeout = 10 * time.Second
)

// Client calls the mbc20 indexer API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new indexer client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// SyncResult reports the outcome of an index-agent call.
type SyncResult struct {
	Success    bool   `json:"success"`
	Indexed    int    `json:"indexed"`
	TotalPosts int    `json:"totalPosts"`
	Raw        string `json:"-"`
}

// IndexAgent asks the indexer to scan the named agent's posts for
// inscriptions it has not recorded yet.
func (c *Client) IndexAgent(ctx context.Context, name string) (*SyncResult, error) {
	endpoint := fmt.Sprintf("%s/index-agent?name=%s", c.baseURL, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer returned HTTP %d", resp.StatusCode)
	}

	var result SyncResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("malformed indexer response: %w", err)
	}
	result.Raw = string(raw)

	if !result.Success {
		return &result, fmt.Errorf("indexer sync failed: %s", result.Raw)
	}

	return &result, nil
}
