// Package research wraps the web-research provider API (Tavily-style search)
// behind a small client interface. The provider is an external collaborator:
// the pipeline only depends on the request/response contract here.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is one search hit returned by the provider.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// Response is the provider's answer to one query.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Client is the search interface the research agent depends on.
type Client interface {
	Search(ctx context.Context, query string) (*Response, error)
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client against a Tavily-compatible HTTP JSON API.
type HTTPClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	depth   string
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithBaseURL overrides the provider endpoint (tests point this at a local
// server).
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = u
	}
}

// WithSearchDepth sets the provider's search depth ("basic" or "advanced").
func WithSearchDepth(depth string) ClientOption {
	return func(c *HTTPClient) {
		c.depth = depth
	}
}

// NewHTTPClient creates a provider client with the given API key.
func NewHTTPClient(apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: "https://api.tavily.com",
		apiKey:  apiKey,
		depth:   "advanced",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

// Search performs one search call against the provider.
func (c *HTTPClient) Search(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   c.depth,
		IncludeAnswer: true,
		MaxResults:    8,
	})
	if err != nil {
		return nil, fmt.Errorf("research: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("research: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("research: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("research: search %q: HTTP %d: %s", query, resp.StatusCode, string(b))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("research: decode response: %w", err)
	}
	out.Query = query
	return &out, nil
}
