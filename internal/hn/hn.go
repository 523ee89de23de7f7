// Package hn polls the Hacker News Algolia search API for recent stories.
package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSearchBaseURL = "https://hn.algolia.com"
	DefaultPostBaseURL   = "https://news.ycombinator.com"

	searchTimeout = 30 * time.Second
)

// Item is one story returned by the search API.
type Item struct {
	Title     string
	URL       string // external link; empty for Ask/Show HN text posts
	ObjectID  string
	Author    string
	CreatedAt time.Time
	PostURL   string // canonical discussion page
}

// HasExternalURL reports whether the story links to an outside article.
func (i Item) HasExternalURL() bool {
	return strings.TrimSpace(i.URL) != ""
}

// SearchResult is the ordered set of items produced by one poll.
type SearchResult struct {
	Items []Item
	Since time.Time
}

// PostURL derives the discussion page URL for an object ID.
func PostURL(base, objectID string) string {
	return strings.TrimRight(base, "/") + "/item?id=" + url.QueryEscape(objectID)
}

// Poller queries the search API for stories newer than a sliding window.
type Poller struct {
	searchBase string
	postBase   string
	httpClient *http.Client
	now        func() time.Time
}

// NewPoller creates a Poller. Empty base URLs fall back to the public
// Algolia and Hacker News hosts.
func NewPoller(searchBase, postBase string) *Poller {
	if searchBase == "" {
		searchBase = DefaultSearchBaseURL
	}
	if postBase == "" {
		postBase = DefaultPostBaseURL
	}
	return &Poller{
		searchBase: strings.TrimRight(searchBase, "/"),
		postBase:   postBase,
		httpClient: &http.Client{Timeout: searchTimeout},
		now:        time.Now,
	}
}

// Since returns the watermark for a poll happening now.
func (p *Poller) Since(window time.Duration) time.Time {
	return p.now().Add(-window).Truncate(time.Second)
}

// Poll returns stories matching keyword created strictly after now-window,
// in the order the API returned them. Any failure yields an empty result.
func (p *Poller) Poll(ctx context.Context, keyword string, window time.Duration) SearchResult {
	since := p.Since(window)
	result := SearchResult{Since: since}

	hits, err := p.search(ctx, keyword, since)
	if err != nil {
		slog.Error("poller: search failed", "keyword", keyword, "since", since.Unix(), "err", err)
		return result
	}

	for _, h := range hits {
		if h.CreatedAtI <= since.Unix() {
			continue
		}
		if h.ObjectID == "" {
			continue
		}
		result.Items = append(result.Items, Item{
			Title:     h.Title,
			URL:       h.URL,
			ObjectID:  h.ObjectID,
			Author:    h.Author,
			CreatedAt: time.Unix(h.CreatedAtI, 0).UTC(),
			PostURL:   PostURL(p.postBase, h.ObjectID),
		})
	}

	slog.Info("poller: search complete",
		"keyword", keyword,
		"since", since.Unix(),
		"hits", len(hits),
		"items", len(result.Items),
	)
	return result
}

func (p *Poller) search(ctx context.Context, keyword string, since time.Time) ([]searchHit, error) {
	q := url.Values{}
	q.Set("tags", "story")
	q.Set("query", keyword)
	q.Set("numericFilters", "created_at_i>"+strconv.FormatInt(since.Unix(), 10))
	searchURL := p.searchBase + "/api/v1/search_by_date?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("hn search: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hn search: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn search: status %d", resp.StatusCode)
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("hn search: decode: %w", err)
	}
	return raw.Hits, nil
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type searchHit struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	ObjectID   string `json:"objectID"`
	Author     string `json:"author"`
	CreatedAtI int64  `json:"created_at_i"`
}
