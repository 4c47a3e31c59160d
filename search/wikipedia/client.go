// Package wikipedia implements search.KnowledgeBase over the MediaWiki API.
// Matching pages are fetched and reduced to their article text.
package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/search"
)

// DefaultBaseURL is English Wikipedia.
const DefaultBaseURL = "https://en.wikipedia.org"

// MaxContentChars caps the bytes of text kept per page.
const MaxContentChars = 4000

// Client looks up Wikipedia pages.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	maxChars  int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another MediaWiki site.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
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

// WithMaxContentChars changes the per-page text cap.
func WithMaxContentChars(n int) Option {
	return func(c *Client) {
		c.maxChars = n
	}
}

// NewClient creates a client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: "scholar/1.0 (research assistant)",
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(10, 10),
		maxChars:  MaxContentChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ search.KnowledgeBase = (*Client)(nil)

// Lookup searches for query and returns up to maxDocs pages.
func (c *Client) Lookup(ctx context.Context, query string, maxDocs int) ([]search.Document, error) {
	titles, err := c.searchTitles(ctx, query, maxDocs)
	if err != nil {
		return nil, err
	}

	docs := make([]search.Document, 0, len(titles))
	for _, title := range titles {
		doc, err := c.fetchPage(ctx, title)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Client) searchTitles(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 2
	}
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprint(limit)},
		"format":   {"json"},
	}
	body, err := c.get(ctx, c.baseURL+"/w/api.php?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("wikipedia: invalid search response")
	}

	var titles []string
	gjson.GetBytes(body, "query.search.#.title").ForEach(func(_, v gjson.Result) bool {
		titles = append(titles, v.String())
		return len(titles) < limit
	})
	return titles, nil
}

func (c *Client) fetchPage(ctx context.Context, title string) (search.Document, error) {
	pageURL := c.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return search.Document{}, err
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return search.Document{}, fmt.Errorf("wikipedia: page url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return search.Document{}, fmt.Errorf("wikipedia: extract %q: %w", title, err)
	}

	content := truncate(strings.TrimSpace(article.TextContent), c.maxChars)
	return search.Document{Source: pageURL, Page: title, Content: content}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ai.NewStatusError(fmt.Sprintf("wikipedia: status %d", resp.StatusCode), resp.StatusCode, 0, nil)
	}
	return body, nil
}
