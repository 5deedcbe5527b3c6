// Package ollama is a minimal client for a local Ollama instance. The
// server is treated as untrusted and possibly absent: every call tolerates
// connection refusal, non-2xx statuses, and malformed bodies, reporting them
// as typed errors the caller can branch on.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Client communicates with a local Ollama instance over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given Ollama base URL with the given
// HTTP client. Pass nil to use a default client with a 120s timeout, which
// bounds generation calls instead of letting them hang forever.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GenerateRequest is the JSON body for POST /api/generate.
type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	System  string   `json:"system,omitempty"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

// Options tunes sampling for a generation call.
type Options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

// generateResponse is the JSON returned by POST /api/generate (non-streaming).
type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a non-streaming completion request and returns the
// response text. Failures are typed: *UnreachableError for transport
// problems, *StatusError for non-2xx replies, *MalformedError for bodies
// that don't decode or carry no text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	req.Stream = false

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &MalformedError{Err: err}
	}

	text := strings.TrimSpace(result.Response)
	if text == "" {
		return "", &MalformedError{Err: errEmptyResponse}
	}
	return text, nil
}

// tagsResponse mirrors the JSON returned by GET /api/tags. Depending on the
// Ollama version entries carry "name" or "model".
type tagsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// IsRunning returns true if the Ollama server responds to GET /api/tags with 200.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the names of all models available locally.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &MalformedError{Err: err}
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ModelAvailable reports whether target matches any of the listed model
// names: exact, "target:" tag prefix, or equal to the pre-colon token
// ("llama3" matches "llama3:latest").
func ModelAvailable(target string, models []string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	for _, raw := range models {
		n := strings.ToLower(raw)
		if n == t || strings.HasPrefix(n, t+":") {
			return true
		}
		if before, _, found := strings.Cut(n, ":"); found && before == t {
			return true
		}
	}
	return false
}
