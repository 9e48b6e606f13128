package devto

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestSource(baseURL string, tags []string) *Source {
	return New(Config{
		BaseURL:        baseURL,
		Tags:           tags,
		PerTag:         5,
		Timeout:        2 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func listing(articles ...Article) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(articles)
	}
}

func TestFetchUpgradesDescriptionToBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			assert.Equal(t, "go", r.URL.Query().Get("tag"))
			assert.Equal(t, "5", r.URL.Query().Get("top"))
			listing(Article{
				ID:          1,
				Title:       "Understanding Go Channels",
				Description: "short description",
				URL:         "https://dev.to/a/1",
				PublishedAt: "2025-03-10T12:00:00Z",
				TagList:     []string{"go", "concurrency"},
			})(w, r)
		case "/1":
			_ = json.NewEncoder(w).Encode(ArticleDetail{BodyMarkdown: "the full markdown body"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	result := newTestSource(srv.URL, []string{"go"}).Fetch(context.Background())

	require.NoError(t, result.Err)
	assert.False(t, result.Fallback)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, "Understanding Go Channels", item.Title)
	assert.Equal(t, "https://dev.to/a/1", item.SourceURL)
	assert.Equal(t, SourceName, item.SourceName)
	assert.Equal(t, "the full markdown body", item.RawContent)
	assert.Equal(t, []string{"go", "concurrency"}, item.Tags)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), item.PublishedAt.UTC())
}

func TestFetchKeepsDescriptionWhenDetailFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		listing(Article{
			ID:          7,
			Title:       "Understanding Go Channels",
			Description: "short description",
			URL:         "https://dev.to/a/7",
			PublishedAt: "2025-03-10T12:00:00Z",
		})(w, r)
	}))
	defer srv.Close()

	result := newTestSource(srv.URL, []string{"go"}).Fetch(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, "short description", result.Items[0].RawContent)
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var listings atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if listings.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		listing(Article{
			ID:          1,
			Title:       "Understanding Go Channels",
			Description: "short description",
			URL:         "https://dev.to/a/1",
			PublishedAt: "2025-03-10T12:00:00Z",
		})(w, r)
	}))
	defer srv.Close()

	result := newTestSource(srv.URL, []string{"go"}).Fetch(context.Background())

	assert.False(t, result.Fallback)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int32(2), listings.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var listings atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		listings.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	result := newTestSource(srv.URL, []string{"go"}).Fetch(context.Background())

	assert.True(t, result.Fallback)
	assert.Error(t, result.Err)
	assert.NotEmpty(t, result.Items, "fallback set should not be empty")
	assert.Equal(t, int32(1), listings.Load(), "4xx responses are terminal")
}

func TestFetchSkipsMalformedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		listing(
			Article{ID: 1, Title: "", Description: "d", URL: "https://dev.to/a/1", PublishedAt: "2025-03-10T12:00:00Z"},
			Article{ID: 2, Title: "Bad Date Article", Description: "d", URL: "https://dev.to/a/2", PublishedAt: "yesterday"},
			Article{ID: 3, Title: "The Good Article", Description: "d", URL: "https://dev.to/a/3", PublishedAt: "2025-03-10T12:00:00Z"},
		)(w, r)
	}))
	defer srv.Close()

	result := newTestSource(srv.URL, []string{"go"}).Fetch(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, "The Good Article", result.Items[0].Title)
}

func TestFetchIsolatesFailingTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("tag") == "broken" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		listing(Article{
			ID:          1,
			Title:       "Understanding Go Channels",
			Description: "short description",
			URL:         "https://dev.to/a/1",
			PublishedAt: "2025-03-10T12:00:00Z",
		})(w, r)
	}))
	defer srv.Close()

	result := newTestSource(srv.URL, []string{"broken", "go"}).Fetch(context.Background())

	assert.False(t, result.Fallback, "partial success should not degrade to fallback")
	require.Len(t, result.Items, 1)
}

func TestFallbackItemsAreStable(t *testing.T) {
	first := fallbackItems()
	second := fallbackItems()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].SourceURL, second[i].SourceURL, "fallback URLs must be stable")
		assert.GreaterOrEqual(t, len(first[i].Title), 15)
		assert.GreaterOrEqual(t, len(first[i].RawContent), 30)
	}
}
