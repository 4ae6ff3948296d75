// Package moltbook is an HTTP client for the Moltbook posting API.
package moltbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.moltbook.com/api/v1"

	registerTimeout = 15 * time.Second
	postTimeout     = 30 * time.Second
)

// Client calls the Moltbook API
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new Moltbook client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: postTimeout},
	}
}

// Registration is the result of registering a new agent.
type Registration struct {
	APIKey           string
	ClaimURL         string
	VerificationCode string
}

// PostRequest is the body of a post submission.
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Submolt string `json:"submolt"`
	IsDraft bool   `json:"is_draft"`
}

// Post is the created post as returned by the API.
type Post struct {
	ID string `json:"id"`
}

// PostResult is a successful post submission response.
type PostResult struct {
	Success bool  `json:"success"`
	Post    *Post `json:"post"`
}

// postResponse is the raw wire shape of a /posts response, success or error.
type postResponse struct {
	Success           bool            `json:"success"`
	Post              *Post           `json:"post"`
	Error             string          `json:"error"`
	Message           string          `json:"message"`
	RetryAfterSeconds int             `json:"retry_after_seconds"`
	RetryAfterMinutes json.RawMessage `json:"retry_after_minutes"`
}

type registerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registerResponse struct {
	Agent struct {
		APIKey           string `json:"api_key"`
		ClaimURL         string `json:"claim_url"`
		VerificationCode string `json:"verification_code"`
	} `json:"agent"`
}

// Ping reports whether the API endpoint is reachable. Any HTTP response,
// including an auth rejection, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("moltbook unreachable: %w", err)
	}
	defer resp.Body.Close()

	return nil
}

// Register registers a new agent and returns its credentials along with the
// claim URL the operator must visit to activate the key.
func (c *Client) Register(ctx context.Context, name, description string) (*Registration, error) {
	body, err := json.Marshal(registerRequest{Name: name, Description: description})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/agents/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewAPIError(ErrorCodeTimeout, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.registerError(resp)
	}

	var parsed registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, NewAPIError(ErrorCodeUnknown, "malformed registration response", err)
	}
	if parsed.Agent.APIKey == "" {
		return nil, NewAPIError(ErrorCodeUnknown, "registration response missing api_key", nil)
	}

	return &Registration{
		APIKey:           parsed.Agent.APIKey,
		ClaimURL:         parsed.Agent.ClaimURL,
		VerificationCode: parsed.Agent.VerificationCode,
	}, nil
}

func (c *Client) registerError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	text := strings.ToLower(string(body))

	code := ErrorCodeUnknown
	switch {
	case strings.Contains(text, "name already taken"):
		code = ErrorCodeNameTaken
	case strings.Contains(text, "rate limit"):
		code = ErrorCodeRateLimit
	case resp.StatusCode == http.StatusUnauthorized:
		code = ErrorCodeAuthentication
	case resp.StatusCode >= 500:
		code = ErrorCodeServerError
	}

	apiErr := NewAPIError(code, fmt.Sprintf("registration failed (HTTP %d): %s", resp.StatusCode, truncate(string(body), 300)), nil)
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

// CreatePost submits a single post on behalf of the agent owning apiKey.
// Rate-limited responses come back as an *APIError carrying any retry-after
// hints the server included in the body.
func (c *Client) CreatePost(ctx context.Context, apiKey string, post PostRequest) (*PostResult, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/posts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewAPIError(ErrorCodeTimeout, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var parsed postResponse
	_ = json.Unmarshal(raw, &parsed)

	ok := resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated
	if ok && (parsed.Success || parsed.Post != nil) {
		return &PostResult{Success: true, Post: parsed.Post}, nil
	}

	return nil, c.postError(resp.StatusCode, raw, &parsed)
}

func (c *Client) postError(status int, raw []byte, parsed *postResponse) *APIError {
	code := ErrorCodeUnknown
	switch status {
	case http.StatusUnauthorized:
		code = ErrorCodeAuthentication
	case http.StatusTooManyRequests:
		code = ErrorCodeRateLimit
	case http.StatusBadRequest:
		code = ErrorCodeInvalidRequest
	default:
		if status >= 500 {
			code = ErrorCodeServerError
		}
	}

	message := parsed.Error
	if message == "" {
		message = parsed.Message
	}
	if message == "" {
		message = truncate(string(raw), 200)
	}

	apiErr := NewAPIError(code, message, nil)
	apiErr.StatusCode = status
	if code == ErrorCodeRateLimit {
		apiErr.RetryAfterSeconds = parsed.RetryAfterSeconds
		apiErr.RetryAfterMinutes = parseMinutesHint(parsed.RetryAfterMinutes)
	}
	return apiErr
}

// parseMinutesHint tolerates both numeric and quoted retry_after_minutes
// values; the API has been seen emitting either.
func parseMinutesHint(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var parsed int
		if _, err := fmt.Sscanf(s, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
