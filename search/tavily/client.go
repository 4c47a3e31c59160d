// Package tavily implements search.WebSearcher over the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/search"
)

// DefaultBaseURL is the Tavily search endpoint.
const DefaultBaseURL = "https://api.tavily.com/search"

// Client is a Tavily API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRateLimit caps requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a client. Requests are limited to 5 per second by default.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ search.WebSearcher = (*Client)(nil)

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	Topic       string `json:"topic,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search returns up to maxResults web results for query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.WebResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(searchRequest{
		Query:       query,
		SearchDepth: "basic",
		Topic:       "general",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ai.NewStatusError(fmt.Sprintf("tavily: status %d: %s", resp.StatusCode, truncate(body, 200)), resp.StatusCode, 0, nil)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]search.WebResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, search.WebResult{URL: r.URL, Content: r.Content})
	}
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
