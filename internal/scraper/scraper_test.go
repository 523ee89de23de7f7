package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/Saul-Punybz/hnbrief/internal/hn"
)

// fakeExtractor answers from a fixed map and records every URL it was asked for.
type fakeExtractor struct {
	pages map[string]string
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	text, ok := f.pages[pageURL]
	if !ok {
		return "", errors.New("unreachable")
	}
	return text, nil
}

func TestAcquireExternalURL(t *testing.T) {
	words := strings.TrimSpace(strings.Repeat("word ", 50))
	ext := &fakeExtractor{pages: map[string]string{"http://a": "  " + strings.ReplaceAll(words, " ", "\n\t ")}}
	a := NewAcquirer(ext, true)

	got := a.Acquire(context.Background(), hn.Item{
		Title:    "X",
		URL:      "http://a",
		ObjectID: "123",
		Author:   "bob",
		PostURL:  hn.PostURL(hn.DefaultPostBaseURL, "123"),
	})

	assert.Equal(t, true, got.OK)
	assert.Equal(t, SourceExternal, got.Source)
	assert.Equal(t, words, got.Text)
	assert.Equal(t, []string{"http://a"}, ext.calls)
}

func TestAcquireWithoutExternalURLUsesPostPage(t *testing.T) {
	post := "https://news.ycombinator.com/item?id=456"
	ext := &fakeExtractor{pages: map[string]string{post: "discussion text"}}
	a := NewAcquirer(ext, false)

	got := a.Acquire(context.Background(), hn.Item{ObjectID: "456", PostURL: post})

	assert.Equal(t, true, got.OK)
	assert.Equal(t, SourcePostPage, got.Source)
	assert.Equal(t, "discussion text", got.Text)
	assert.Equal(t, []string{post}, ext.calls)
}

func TestAcquireFallbackPolicy(t *testing.T) {
	post := "https://news.ycombinator.com/item?id=9"
	item := hn.Item{URL: "http://broken", ObjectID: "9", PostURL: post}

	t.Run("fallback enabled", func(t *testing.T) {
		ext := &fakeExtractor{pages: map[string]string{post: "comments"}}
		got := NewAcquirer(ext, true).Acquire(context.Background(), item)

		assert.Equal(t, true, got.OK)
		assert.Equal(t, SourcePostPage, got.Source)
		assert.Equal(t, []string{"http://broken", post}, ext.calls)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		ext := &fakeExtractor{pages: map[string]string{post: "comments"}}
		got := NewAcquirer(ext, false).Acquire(context.Background(), item)

		assert.Equal(t, false, got.OK)
		assert.Equal(t, "", got.Text)
		assert.Equal(t, []string{"http://broken"}, ext.calls)
	})
}

func TestAcquireAllSourcesFail(t *testing.T) {
	ext := &fakeExtractor{pages: map[string]string{"http://blank": "   \n  "}}
	got := NewAcquirer(ext, true).Acquire(context.Background(), hn.Item{
		URL:     "http://blank",
		PostURL: "https://news.ycombinator.com/item?id=1",
	})

	assert.Equal(t, false, got.OK)
	assert.Equal(t, "", got.Text)
}

func TestCollyExtractorReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<!doctype html>
<html><head><title>t</title><style>body{color:red}</style></head>
<body>
  <nav>Home | About</nav>
  <article>
    <h1>Go 1.30 released</h1>
    <p>The   release adds
    iterators.</p>
    <script>track()</script>
  </article>
  <footer>copyright</footer>
</body></html>`)
	}))
	defer srv.Close()

	ex := NewCollyExtractor()
	ex.delay = 0

	text, err := ex.Extract(context.Background(), srv.URL)

	assert.Equal(t, nil, err)
	assert.Equal(t, "Go 1.30 released The release adds iterators.", text)
}

func TestCollyExtractorHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	ex := NewCollyExtractor()
	ex.delay = 0

	_, err := ex.Extract(context.Background(), srv.URL)
	assert.NotEqual(t, nil, err)
}

func TestCollyExtractorContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ex := NewCollyExtractor()
	ex.delay = 0

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := ex.Extract(ctx, srv.URL)
	assert.Equal(t, true, errors.Is(err, context.DeadlineExceeded))
}

func TestServiceExtractor(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotURL = body["url"]
		io.WriteString(w, "  extracted article text \n")
	}))
	defer srv.Close()

	text, err := NewServiceExtractor(srv.URL+"/api").Extract(context.Background(), "http://a")

	assert.Equal(t, nil, err)
	assert.Equal(t, "http://a", gotURL)
	assert.Equal(t, "extracted article text", text)
}

func TestServiceExtractorEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewServiceExtractor(srv.URL).Extract(context.Background(), "http://a")
	assert.Equal(t, true, errors.Is(err, ErrNoContent))
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("\n a \t\t b\r\n\nc  "))
	assert.Equal(t, "", NormalizeWhitespace(" \n\t "))
	assert.Equal(t, 3, WordCount(" a  b\nc "))
}
