// Package medium pulls tagged articles from Medium RSS feeds and
// scrapes the article pages for full text.
package medium

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"feedup_ingest/internal/domain"
	"feedup_ingest/internal/retry"
)

const (
	SourceID   = "medium"
	SourceName = "Medium"

	userAgent = "FeedupIngest/1.0"

	// extractAttempts bounds the page scrapes per entry; the second
	// attempt runs with a doubled timeout before giving up on the page.
	extractAttempts = 2
)

// Config holds Medium source configuration.
type Config struct {
	Feeds           map[string]string // tag -> RSS feed URL
	PerFeed         int
	MinContentWords int
	Timeout         time.Duration
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
}

// Source implements service.Source for Medium tag feeds.
type Source struct {
	httpClient      *http.Client
	parser          *gofeed.Parser
	feeds           map[string]string
	perFeed         int
	minContentWords int
	timeout         time.Duration
	maxAttempts     int
	initialBackoff  time.Duration
	maxBackoff      time.Duration
	logger          *slog.Logger
}

// New creates a new Medium source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient:      &http.Client{},
		parser:          gofeed.NewParser(),
		feeds:           cfg.Feeds,
		perFeed:         cfg.PerFeed,
		minContentWords: cfg.MinContentWords,
		timeout:         cfg.Timeout,
		maxAttempts:     cfg.MaxAttempts,
		initialBackoff:  cfg.InitialBackoff,
		maxBackoff:      cfg.MaxBackoff,
		logger:          logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns the human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// Fetch walks the configured feeds in tag order. A failing feed never
// aborts the others; when every feed fails and nothing was collected,
// the fixed fallback set is served instead.
func (s *Source) Fetch(ctx context.Context) domain.FetchResult {
	tags := make([]string, 0, len(s.feeds))
	for tag := range s.feeds {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var items []domain.RawItem
	var lastErr error

	for _, tag := range tags {
		feedItems, err := s.fetchFeed(ctx, tag, s.feeds[tag])
		if err != nil {
			lastErr = fmt.Errorf("fetch feed %q: %w", tag, err)
			s.logger.Warn("feed fetch failed", "tag", tag, "error", err)
			continue
		}

		items = append(items, feedItems...)

		s.logger.Debug("fetched feed",
			"tag", tag,
			"entries", len(feedItems),
			"total", len(items),
		)
	}

	if len(items) == 0 && lastErr != nil {
		s.logger.Error("all feeds failed, serving fallback articles", "error", lastErr)
		return domain.FetchResult{
			Source:   SourceID,
			Items:    fallbackItems(),
			Fallback: true,
			Err:      lastErr,
		}
	}

	return domain.FetchResult{Source: SourceID, Items: items}
}

func (s *Source) fetchFeed(ctx context.Context, tag, feedURL string) ([]domain.RawItem, error) {
	body, err := s.fetchFeedBody(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := feed.Items
	if len(entries) > s.perFeed {
		entries = entries[:s.perFeed]
	}

	items := make([]domain.RawItem, 0, len(entries))
	for _, entry := range entries {
		if entry.Title == "" || entry.Link == "" {
			s.logger.Warn("skipping entry without title or link", "tag", tag)
			continue
		}
		if entry.PublishedParsed == nil {
			s.logger.Warn("skipping entry without publish date", "tag", tag, "link", entry.Link)
			continue
		}

		content, err := s.extractContent(ctx, entry.Link)
		if err != nil {
			s.logger.Debug("page extraction failed, keeping feed summary",
				"link", entry.Link,
				"error", err,
			)
			content = feedSummary(entry)
		}

		items = append(items, domain.RawItem{
			Title:       entry.Title,
			SourceURL:   entry.Link,
			SourceName:  SourceName,
			PublishedAt: *entry.PublishedParsed,
			RawContent:  content,
			Tags:        []string{tag},
		})
	}

	return items, nil
}

func (s *Source) fetchFeedBody(ctx context.Context, feedURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var body []byte
		body, lastErr = s.doRequest(ctx, feedURL, s.timeout)
		if lastErr == nil {
			return body, nil
		}

		if attempt == s.maxAttempts || !retry.Retriable(lastErr) {
			break
		}

		backoff := retry.Backoff(attempt, s.initialBackoff, s.maxBackoff)
		s.logger.Warn("feed request failed, retrying",
			"url", feedURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}

// extractContent scrapes the article page and joins its paragraph
// text. Thin extractions are treated as failures so the caller can
// fall back to the feed summary.
func (s *Source) extractContent(ctx context.Context, pageURL string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= extractAttempts; attempt++ {
		text, err := s.fetchParagraphs(ctx, pageURL, retry.AttemptTimeout(s.timeout, attempt))
		if err != nil {
			lastErr = err
			continue
		}

		if words := wordCount(text); words < s.minContentWords {
			lastErr = fmt.Errorf("extracted %d words, need %d", words, s.minContentWords)
			continue
		}

		return text, nil
	}

	return "", lastErr
}

func (s *Source) fetchParagraphs(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.StatusError{Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, " "), nil
}

func (s *Source) doRequest(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

// feedSummary prefers the embedded content over the short description.
func feedSummary(entry *gofeed.Item) string {
	if entry.Content != "" {
		return entry.Content
	}

	return entry.Description
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// fallbackItems is served when every feed is unreachable. URLs are
// stable, which keeps repeated fallback ingestion idempotent in staging.
func fallbackItems() []domain.RawItem {
	now := time.Now().UTC()

	return []domain.RawItem{
		{
			Title:       "Why Your Flutter App Feels Slow (and How to Measure It)",
			SourceURL:   "https://medium.com/feedup/why-your-flutter-app-feels-slow",
			SourceName:  SourceName,
			PublishedAt: now.AddDate(0, 0, -1),
			RawContent: "Perceived performance is rarely about raw frame rate. This article " +
				"walks through the Flutter DevTools timeline, explains jank in terms of " +
				"build and raster phases, and shows three real fixes: memoizing expensive " +
				"widgets, deferring image decoding and trimming overdraw.",
			Tags: []string{"flutter"},
		},
		{
			Title:       "Prompt Engineering Is Just Interface Design",
			SourceURL:   "https://medium.com/feedup/prompt-engineering-is-interface-design",
			SourceName:  SourceName,
			PublishedAt: now.AddDate(0, 0, -2),
			RawContent: "Treating prompts as magic incantations misses the point. A prompt " +
				"is an interface contract between your code and a language model, and the " +
				"same rules apply: small surface area, explicit inputs, testable outputs. " +
				"We refactor a sprawling prompt into a versioned template with examples.",
			Tags: []string{"ai"},
		},
		{
			Title:       "The Case for Boring Technology in Side Projects",
			SourceURL:   "https://medium.com/feedup/boring-technology-side-projects",
			SourceName:  SourceName,
			PublishedAt: now.AddDate(0, 0, -3),
			RawContent: "Every side project that died on my hard drive died of novelty " +
				"overload. Picking one new thing per project, and letting Postgres, cron " +
				"and plain HTTP carry the rest, is the only approach that ever shipped. " +
				"This post inventories what that stack looks like in practice.",
			Tags: []string{"programming"},
		},
	}
}
