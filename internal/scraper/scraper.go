// Package scraper turns story URLs into plain readable text and decides which
// source to read for each story.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// ErrNoContent is returned when a page was fetched but had no readable text.
var ErrNoContent = errors.New("scraper: no readable content")

// Extractor renders a URL to the plain text of its main readable content.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// chromeSelector matches elements that never hold article text.
const chromeSelector = "script, style, noscript, template, svg, nav, header, footer, aside, form, iframe"

// contentSelectors are tried in order; the first with text wins.
var contentSelectors = []string{"article", "main", "[role=main]", "#content", "body"}

// CollyExtractor scrapes pages locally with a Colly collector.
type CollyExtractor struct {
	userAgent string
	delay     time.Duration
	timeout   time.Duration
}

// NewCollyExtractor creates a CollyExtractor with a 1 request/sec per-domain
// rate limit.
func NewCollyExtractor() *CollyExtractor {
	return &CollyExtractor{
		userAgent: "hnbrief/1.0",
		delay:     1 * time.Second,
		timeout:   30 * time.Second,
	}
}

// newCollector creates a fresh Colly collector per page so no state leaks
// between extractions.
func (s *CollyExtractor) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       s.delay,
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	return c
}

// Extract fetches pageURL and returns its readable text.
func (s *CollyExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	c := s.newCollector()

	var (
		text   string
		mu     sync.Mutex
		scrErr error
	)

	c.OnHTML("html", func(e *colly.HTMLElement) {
		t := readableText(e.DOM)
		mu.Lock()
		if text == "" {
			text = t
		}
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		scrErr = fmt.Errorf("scraper: fetch %s: %w", pageURL, err)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Visit(pageURL); err != nil {
			mu.Lock()
			if scrErr == nil {
				scrErr = fmt.Errorf("scraper: visit %s: %w", pageURL, err)
			}
			mu.Unlock()
		}
		c.Wait()
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-done:
	}

	mu.Lock()
	defer mu.Unlock()

	if scrErr != nil {
		return "", scrErr
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoContent, pageURL)
	}

	slog.Debug("scraper: extracted page", "url", pageURL, "text_len", len(text))
	return text, nil
}

// readableText strips page chrome and returns the whitespace-normalized text
// of the most specific content container.
func readableText(doc *goquery.Selection) string {
	doc.Find(chromeSelector).Remove()

	for _, sel := range contentSelectors {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := NormalizeWhitespace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return NormalizeWhitespace(doc.Text())
}
