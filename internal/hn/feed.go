package hn

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultFeedBaseURL = "https://hnrss.org"

// FeedPoller reads the hnrss.org keyword feed instead of the search API.
// It yields the same Items as Poller, so either can drive a tick.
type FeedPoller struct {
	feedBase   string
	postBase   string
	httpClient *http.Client
	now        func() time.Time
}

func NewFeedPoller(feedBase, postBase string) *FeedPoller {
	if feedBase == "" {
		feedBase = DefaultFeedBaseURL
	}
	if postBase == "" {
		postBase = DefaultPostBaseURL
	}
	return &FeedPoller{
		feedBase:   strings.TrimRight(feedBase, "/"),
		postBase:   postBase,
		httpClient: &http.Client{Timeout: searchTimeout},
		now:        time.Now,
	}
}

type rssRoot struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title    string `xml:"title"`
	Link     string `xml:"link"`
	PubDate  string `xml:"pubDate"`
	Creator  string `xml:"creator"`
	Comments string `xml:"comments"`
	GUID     string `xml:"guid"`
}

// Poll returns feed items published strictly after now-window. Any failure
// yields an empty result.
func (p *FeedPoller) Poll(ctx context.Context, keyword string, window time.Duration) SearchResult {
	since := p.now().Add(-window).Truncate(time.Second)
	result := SearchResult{Since: since}

	items, err := p.fetch(ctx, keyword)
	if err != nil {
		slog.Error("poller: feed failed", "keyword", keyword, "err", err)
		return result
	}

	for _, ri := range items {
		published := parseDate(ri.PubDate)
		if !published.After(since) {
			continue
		}
		id := objectIDFrom(ri.Comments)
		if id == "" {
			id = objectIDFrom(ri.GUID)
		}
		if id == "" {
			continue
		}
		postURL := PostURL(p.postBase, id)
		link := strings.TrimSpace(ri.Link)
		if objectIDFrom(link) == id {
			link = ""
		}
		result.Items = append(result.Items, Item{
			Title:     strings.TrimSpace(ri.Title),
			URL:       link,
			ObjectID:  id,
			Author:    strings.TrimSpace(ri.Creator),
			CreatedAt: published.UTC(),
			PostURL:   postURL,
		})
	}

	slog.Info("poller: feed complete", "keyword", keyword, "since", since.Unix(), "entries", len(items), "items", len(result.Items))
	return result
}

func (p *FeedPoller) fetch(ctx context.Context, keyword string) ([]rssItem, error) {
	feedURL := p.feedBase + "/newest?" + url.Values{"q": {keyword}, "count": {"100"}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("hn feed: create request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hn feed: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hn feed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("hn feed: read body: %w", err)
	}

	var root rssRoot
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("hn feed: decode: %w", err)
	}
	return root.Channel.Items, nil
}

// objectIDFrom extracts the id parameter of a news.ycombinator.com item URL.
func objectIDFrom(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.HasSuffix(u.Path, "/item") {
		return ""
	}
	return u.Query().Get("id")
}

// parseDate accepts the date layouts seen in RSS feeds.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
