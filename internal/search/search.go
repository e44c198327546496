// Package search implements the web search tool backing the chat agent.
//
// The client queries an instant-answer style JSON endpoint and shapes the
// related-topic entries into a small ranked result list. It is deliberately
// fail-open: a web search is an enhancement, not a precondition, for chat
// continuation, so any failure (network, HTTP status, malformed JSON)
// degrades to an empty result set instead of an error. Callers cannot
// distinguish "no results" from "backend unreachable" without reading logs.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxResults caps how many entries a response carries.
	MaxResults = 5

	// defaultSummary replaces a description that carries no information.
	defaultSummary = "No description available."
)

// Result is one ranked search hit.
type Result struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

// Response is an ordered result list; insertion order is relevance order
// as returned by the backend.
type Response struct {
	Results []Result `json:"results"`
}

// Config configures the search client.
type Config struct {
	// BaseURL is the instant-answer endpoint (e.g. https://api.duckduckgo.com).
	BaseURL string

	// HTTPClient is the outbound client. Should use security.NewURL().SafeTransport()
	// so SSRF protections and timeouts apply. Required.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client performs keyword searches against the configured backend.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a search client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("search base URL is required")
	}
	if cfg.HTTPClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}, nil
}

// apiTopic is one related-topic entry from the backend.
// Result, when present, is an HTML fragment of the form
// `<a href="...">Title</a> - description`.
type apiTopic struct {
	FirstURL string     `json:"FirstURL"`
	Text     string     `json:"Text"`
	Result   string     `json:"Result"`
	Topics   []apiTopic `json:"Topics"` // nested category groups
}

// apiResponse is the subset of the backend document we consume.
type apiResponse struct {
	RelatedTopics []apiTopic `json:"RelatedTopics"`
}

// Search queries the backend for the given keywords.
//
// Search never fails upward: any transport, status or decode problem is
// logged and absorbed into an empty Response.
func (c *Client) Search(ctx context.Context, query string) *Response {
	empty := &Response{Results: []Result{}}

	query = strings.TrimSpace(query)
	if query == "" {
		return empty
	}

	reqURL := c.baseURL + "/?q=" + url.QueryEscape(query) + "&format=json&no_html=0"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Warn("building search request", "error", err)
		return empty
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("search request failed (returning empty results)",
			"error", err, "query_length", len(query))
		return empty
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("search backend returned non-success status (returning empty results)",
			"status", resp.StatusCode, "query_length", len(query))
		return empty
	}

	var doc apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		c.logger.Warn("decoding search response (returning empty results)", "error", err)
		return empty
	}

	results := shapeResults(flatten(doc.RelatedTopics))
	c.logger.Debug("search completed", "query_length", len(query), "results", len(results))
	return &Response{Results: results}
}

// flatten expands nested category groups into a single ordered list.
func flatten(topics []apiTopic) []apiTopic {
	out := make([]apiTopic, 0, len(topics))
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flatten(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// shapeResults keeps the first MaxResults entries that carry both a link and
// descriptive text, splitting each description into title and summary.
func shapeResults(topics []apiTopic) []Result {
	results := make([]Result, 0, MaxResults)
	for _, t := range topics {
		if t.FirstURL == "" || strings.TrimSpace(t.Text) == "" {
			continue
		}

		title, summary := splitDescription(t.Text)
		if anchorTitle := titleFromAnchor(t.Result); anchorTitle != "" {
			title = anchorTitle
		}

		results = append(results, Result{
			Title:   title,
			Summary: summary,
			Source:  sourceFromURL(t.FirstURL),
		})
		if len(results) == MaxResults {
			break
		}
	}
	return results
}

// splitDescription splits "Title - description" on its hyphen separator.
// The summary falls back to a fixed placeholder when the split yields
// nothing informative.
func splitDescription(text string) (title, summary string) {
	title, summary, found := strings.Cut(text, " - ")
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)
	if !found || summary == "" {
		summary = defaultSummary
	}
	if title == "" {
		title = strings.TrimSpace(text)
	}
	return title, summary
}

// titleFromAnchor extracts the anchor text from an HTML result fragment.
// Returns "" when the fragment is absent or carries no anchor.
func titleFromAnchor(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<a") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("a").First().Text())
}

// sourceFromURL derives the displayed source name from the entry's link host,
// stripped of any leading "www." label.
func sourceFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
