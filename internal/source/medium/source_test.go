package medium

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
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

func newTestSource(feeds map[string]string) *Source {
	return New(Config{
		Feeds:           feeds,
		PerFeed:         5,
		MinContentWords: 5,
		Timeout:         2 * time.Second,
		MaxAttempts:     3,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
	}, testLogger())
}

func feedXML(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>` + strings.Join(items, "") + `</channel></rss>`
}

func feedItem(title, link, description, pubDate string) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><description>%s</description><pubDate>%s</pubDate></item>`,
		title, link, description, pubDate,
	)
}

const pubDate = "Mon, 10 Mar 2025 12:00:00 GMT"

func TestFetchExtractsPageContent(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed/golang":
			fmt.Fprint(w, feedXML(
				feedItem("Understanding Go Channels", srv.URL+"/article/1", "rss summary", pubDate),
			))
		case "/article/1":
			fmt.Fprint(w, `<html><body><p>one two three</p><p>four five six seven</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := newTestSource(map[string]string{"golang": srv.URL + "/feed/golang"})
	result := src.Fetch(context.Background())

	require.NoError(t, result.Err)
	assert.False(t, result.Fallback)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, "Understanding Go Channels", item.Title)
	assert.Equal(t, srv.URL+"/article/1", item.SourceURL)
	assert.Equal(t, SourceName, item.SourceName)
	assert.Equal(t, "one two three four five six seven", item.RawContent)
	assert.Equal(t, []string{"golang"}, item.Tags)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), item.PublishedAt.UTC())
}

func TestFetchFallsBackToFeedSummaryOnThinPage(t *testing.T) {
	var pageHits atomic.Int32

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed/golang":
			fmt.Fprint(w, feedXML(
				feedItem("Understanding Go Channels", srv.URL+"/article/1", "the rss summary", pubDate),
			))
		case "/article/1":
			pageHits.Add(1)
			fmt.Fprint(w, `<html><body><p>too thin</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := newTestSource(map[string]string{"golang": srv.URL + "/feed/golang"})
	result := src.Fetch(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, "the rss summary", result.Items[0].RawContent)
	assert.Equal(t, int32(2), pageHits.Load(), "thin extraction should be retried once")
}

func TestFetchCapsEntriesPerFeed(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/feed/golang" {
			var items []string
			for i := 0; i < 8; i++ {
				items = append(items, feedItem(
					fmt.Sprintf("Article Number %d", i),
					fmt.Sprintf("%s/article/%d", srv.URL, i),
					"summary text here",
					pubDate,
				))
			}
			fmt.Fprint(w, feedXML(items...))
			return
		}
		fmt.Fprint(w, `<html><body><p>one two three four five six</p></body></html>`)
	}))
	defer srv.Close()

	src := newTestSource(map[string]string{"golang": srv.URL + "/feed/golang"})
	result := src.Fetch(context.Background())

	assert.Len(t, result.Items, 5)
}

func TestFetchSkipsEntriesWithoutDate(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/feed/golang" {
			fmt.Fprint(w, feedXML(
				`<item><title>No Date Entry</title><link>`+srv.URL+`/article/1</link><description>d</description></item>`,
				feedItem("Dated Entry Title", srv.URL+"/article/2", "summary", pubDate),
			))
			return
		}
		fmt.Fprint(w, `<html><body><p>one two three four five six</p></body></html>`)
	}))
	defer srv.Close()

	src := newTestSource(map[string]string{"golang": srv.URL + "/feed/golang"})
	result := src.Fetch(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Dated Entry Title", result.Items[0].Title)
}

func TestFetchIsolatesFailingFeeds(t *testing.T) {
	var brokenHits atomic.Int32

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed/broken":
			brokenHits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case "/feed/golang":
			fmt.Fprint(w, feedXML(
				feedItem("Understanding Go Channels", srv.URL+"/article/1", "summary", pubDate),
			))
		default:
			fmt.Fprint(w, `<html><body><p>one two three four five six</p></body></html>`)
		}
	}))
	defer srv.Close()

	src := newTestSource(map[string]string{
		"broken": srv.URL + "/feed/broken",
		"golang": srv.URL + "/feed/golang",
	})
	result := src.Fetch(context.Background())

	assert.False(t, result.Fallback)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int32(3), brokenHits.Load(), "5xx responses are retried to exhaustion")
}

func TestFetchServesFallbackOnTotalOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := newTestSource(map[string]string{"golang": srv.URL + "/feed/golang"})
	result := src.Fetch(context.Background())

	assert.True(t, result.Fallback)
	assert.Error(t, result.Err)
	assert.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.GreaterOrEqual(t, len(item.Title), 15)
		assert.GreaterOrEqual(t, len(item.RawContent), 30)
	}
}
