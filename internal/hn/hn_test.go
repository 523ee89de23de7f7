package hn

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func newTestPoller(srvURL string, now time.Time) *Poller {
	p := NewPoller(srvURL, "https://news.ycombinator.com")
	p.now = func() time.Time { return now }
	return p
}

func TestPollQueryAndBoundary(t *testing.T) {
	now := time.Unix(1_700_003_600, 0)
	since := now.Unix() - 3600

	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search_by_date", r.URL.Path)
		query = r.URL.Query()

		payload := map[string]any{
			"hits": []map[string]any{
				{"title": "On the boundary", "url": "http://old", "objectID": "1", "author": "amy", "created_at_i": since},
				{"title": "Fresh story", "url": "http://a", "objectID": "123", "author": "bob", "created_at_i": since + 1},
				{"title": "Ask HN: anything", "url": nil, "objectID": "456", "author": "cy", "created_at_i": since + 60},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	result := newTestPoller(srv.URL, now).Poll(context.Background(), "golang", time.Hour)

	assert.Equal(t, "story", query.Get("tags"))
	assert.Equal(t, "golang", query.Get("query"))
	assert.Equal(t, "created_at_i>1700000000", query.Get("numericFilters"))
	assert.Equal(t, since, result.Since.Unix())

	assert.Equal(t, 2, len(result.Items))

	first := result.Items[0]
	assert.Equal(t, "Fresh story", first.Title)
	assert.Equal(t, "http://a", first.URL)
	assert.Equal(t, "123", first.ObjectID)
	assert.Equal(t, "bob", first.Author)
	assert.Equal(t, true, first.HasExternalURL())
	assert.Equal(t, "https://news.ycombinator.com/item?id=123", first.PostURL)

	second := result.Items[1]
	assert.Equal(t, false, second.HasExternalURL())
	assert.Equal(t, "https://news.ycombinator.com/item?id=456", second.PostURL)
}

func TestPollKeepsResponseOrder(t *testing.T) {
	now := time.Unix(1_700_003_600, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"hits":[
			{"title":"b","objectID":"2","author":"x","created_at_i":1700003000},
			{"title":"a","objectID":"1","author":"x","created_at_i":1700001000}
		]}`)
	}))
	defer srv.Close()

	result := newTestPoller(srv.URL, now).Poll(context.Background(), "x", time.Hour)

	assert.Equal(t, 2, len(result.Items))
	assert.Equal(t, "2", result.Items[0].ObjectID)
	assert.Equal(t, "1", result.Items[1].ObjectID)
}

func TestPollFailuresYieldEmptyResult(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"hits": [`)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			result := newTestPoller(srv.URL, time.Now()).Poll(context.Background(), "x", time.Hour)
			assert.Equal(t, 0, len(result.Items))
		})
	}
}

func TestPollUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srvURL := srv.URL
	srv.Close()

	result := newTestPoller(srvURL, time.Now()).Poll(context.Background(), "x", time.Hour)
	assert.Equal(t, 0, len(result.Items))
}

func TestPostURL(t *testing.T) {
	assert.Equal(t, "https://news.ycombinator.com/item?id=456", PostURL("https://news.ycombinator.com/", "456"))
}
