// Package scholar pulls computer science papers from the Semantic
// Scholar Graph API and normalizes them into feed items.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"feedup_ingest/internal/domain"
	"feedup_ingest/internal/retry"
)

const (
	SourceID   = "scholar"
	SourceName = "Scholar Feed"

	userAgent = "FeedupIngest/1.0"

	searchFields = "title,abstract,url,venue,year,publicationDate,authors,openAccessPdf"

	minTitleLen    = 15
	minAbstractLen = 30
	maxAbstractLen = 800
	maxAuthors     = 4
	recentYears    = 5
)

var spamIndicators = []string{"buy", "cheap", "free download", "click here"}

// Config holds scholar source configuration.
type Config struct {
	BaseURL        string
	MaxPapers      int
	MaxTerms       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source implements service.Source for the paper search API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	maxPapers      int
	maxTerms       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	planner        *Planner
	logger         *slog.Logger
}

// New creates a new scholar source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		maxPapers:      cfg.MaxPapers,
		maxTerms:       cfg.MaxTerms,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		planner:        NewPlanner(),
		logger:         logger.With("source", SourceID),
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

// Fetch runs the planned searches for this cycle. Papers failing the
// paper gate are dropped during normalization; when nothing at all was
// collected the fixed fallback set is served instead.
func (s *Source) Fetch(ctx context.Context) domain.FetchResult {
	terms := append(s.planner.Next(s.maxTerms), s.planner.TimeBased()...)

	perTerm := s.maxPapers / len(terms)
	if perTerm < 1 {
		perTerm = 1
	}

	var items []domain.RawItem
	var lastErr error

	for _, term := range terms {
		if len(items) >= s.maxPapers {
			break
		}

		resp, err := s.search(ctx, term.Query, perTerm)
		if err != nil {
			lastErr = fmt.Errorf("search %q: %w", term.Query, err)
			s.logger.Warn("search failed", "term", term.Query, "error", err)
			continue
		}

		for _, paper := range resp.Data {
			if len(items) >= s.maxPapers {
				break
			}

			item, ok := s.normalize(paper, term.Category)
			if !ok {
				continue
			}

			items = append(items, item)
		}

		s.logger.Debug("searched term",
			"term", term.Query,
			"papers", len(resp.Data),
			"total", len(items),
		)
	}

	if len(items) == 0 {
		s.logger.Error("no papers collected, serving fallback set", "error", lastErr)
		return domain.FetchResult{
			Source:   SourceID,
			Items:    fallbackPapers(s.maxPapers),
			Fallback: true,
			Err:      lastErr,
		}
	}

	return domain.FetchResult{Source: SourceID, Items: items}
}

func (s *Source) search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	searchURL := fmt.Sprintf("%s/paper/search?query=%s&limit=%d&fields=%s",
		s.baseURL, url.QueryEscape(query), limit, searchFields)

	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var resp SearchResponse
		lastErr = s.doRequest(ctx, searchURL, &resp)
		if lastErr == nil {
			return &resp, nil
		}

		if attempt == s.maxAttempts || !retry.Retriable(lastErr) {
			break
		}

		backoff := retry.Backoff(attempt, s.initialBackoff, s.maxBackoff)
		s.logger.Warn("search request failed, retrying",
			"query", query,
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

func (s *Source) doRequest(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &retry.StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// normalize turns an API paper into a feed item, or reports false when
// the paper fails the gate.
func (s *Source) normalize(paper Paper, suggestedCategory string) (domain.RawItem, bool) {
	title := strings.TrimSpace(paper.Title)
	abstract := abstractFor(paper, title)

	if reason := gateReason(title, abstract); reason != "" {
		s.logger.Debug("dropping paper", "title", title, "reason", reason)
		return domain.RawItem{}, false
	}

	authors := formatAuthors(paper.Authors)

	return domain.RawItem{
		Title:       title,
		SourceURL:   bestURL(paper, title),
		SourceName:  SourceName,
		PublishedAt: publicationDate(paper),
		RawContent:  abstract,
		Tags: []string{
			categoryFor(title, abstract, suggestedCategory),
			institutionFor(authors, paper.Venue),
		},
		Authors: authors,
	}, true
}

func gateReason(title, abstract string) string {
	if len(title) < minTitleLen {
		return "title too short"
	}
	if len(abstract) < minAbstractLen {
		return "abstract too short"
	}

	text := strings.ToLower(title + " " + abstract)
	for _, indicator := range spamIndicators {
		if strings.Contains(text, indicator) {
			return "spam indicator: " + indicator
		}
	}

	return ""
}

// abstractFor returns the paper abstract, synthesizing one from title
// and venue when it is missing or too thin to publish.
func abstractFor(paper Paper, title string) string {
	abstract := strings.TrimSpace(paper.Abstract)

	if len(abstract) < 50 {
		if title == "" {
			return "Abstract not available"
		}

		abstract = "Research paper on " + strings.ToLower(title)
		if paper.Venue != "" {
			abstract += ", published in " + paper.Venue
		}
		abstract += ". Full abstract not available."
	}

	abstract = strings.Join(strings.Fields(abstract), " ")

	if runes := []rune(abstract); len(runes) > maxAbstractLen {
		abstract = string(runes[:maxAbstractLen-3]) + "..."
	}

	return abstract
}

// publicationDate bounds papers to the recent window: anything older
// than five years, future-dated or unknown counts as today. Year-only
// records land mid-year.
func publicationDate(paper Paper) time.Time {
	now := time.Now().UTC()
	currentYear := now.Year()

	if paper.Year == 0 || paper.Year > currentYear || paper.Year < currentYear-recentYears {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if len(paper.PublicationDate) >= 10 {
		if d, err := time.Parse("2006-01-02", paper.PublicationDate[:10]); err == nil {
			return d
		}
	}

	return time.Date(paper.Year, time.June, 15, 0, 0, 0, 0, time.UTC)
}

func formatAuthors(authors []Author) string {
	names := make([]string, 0, maxAuthors)
	for _, a := range authors {
		if len(names) == maxAuthors {
			break
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return "Unknown"
	}

	result := strings.Join(names, ", ")
	if len(authors) > len(names) {
		result += " et al."
	}

	return result
}

func bestURL(paper Paper, title string) string {
	if strings.HasPrefix(paper.URL, "http") {
		return paper.URL
	}
	if paper.OpenAccessPdf != nil && strings.HasPrefix(paper.OpenAccessPdf.URL, "http") {
		return paper.OpenAccessPdf.URL
	}
	if title != "" {
		return "https://scholar.google.com/scholar?q=" + strings.ReplaceAll(title, " ", "+")
	}

	return "https://scholar.google.com"
}

type categoryPattern struct {
	name     string
	keywords []string
}

var categoryPatterns = []categoryPattern{
	{"Machine Learning", []string{"machine learning", "ml", "neural network", "deep learning", "ai", "artificial intelligence", "classification", "regression", "clustering"}},
	{"Computer Vision", []string{"computer vision", "image", "visual", "opencv", "cnn", "convolutional", "object detection", "segmentation"}},
	{"Natural Language Processing", []string{"nlp", "natural language", "text mining", "language model", "bert", "gpt", "transformer", "sentiment"}},
	{"Cybersecurity", []string{"security", "cybersecurity", "encryption", "privacy", "vulnerability", "attack", "cryptography", "authentication"}},
	{"Software Engineering", []string{"software", "programming", "development", "code", "testing", "debugging", "devops", "agile"}},
	{"Distributed Systems", []string{"distributed", "cloud", "microservices", "scalability", "cluster", "parallel", "concurrent"}},
	{"Human-Computer Interaction", []string{"hci", "user interface", "usability", "user experience", "interaction", "ui", "ux"}},
	{"Data Science", []string{"data science", "big data", "analytics", "data mining", "statistics", "visualization"}},
	{"Algorithms", []string{"algorithm", "complexity", "optimization", "graph", "sorting", "computational"}},
}

// categoryFor scores keyword hits over title+abstract. Ties keep the
// earlier pattern; zero hits fall back to the search category unless it
// was a time-based one.
func categoryFor(title, abstract, suggested string) string {
	text := strings.ToLower(title + " " + abstract)

	best := ""
	bestScore := 0
	for _, pattern := range categoryPatterns {
		score := 0
		for _, keyword := range pattern.keywords {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = pattern.name
			bestScore = score
		}
	}

	if bestScore > 0 {
		return best
	}
	if suggested != "" && !strings.Contains(suggested, "Recent") && !strings.Contains(suggested, "Current") {
		return suggested
	}

	return "Computer Science"
}

var institutionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\w+\s+university)`),
	regexp.MustCompile(`(university\s+of\s+[\w\s]+)`),
	regexp.MustCompile(`(\w+\s+institute\s+of\s+technology)`),
	regexp.MustCompile(`(\w+\s+college)`),
	regexp.MustCompile(`(stanford|mit|harvard|berkeley|cmu|carnegie mellon|georgia tech|caltech)`),
	regexp.MustCompile(`(google|microsoft|facebook|meta|apple|amazon|ibm|nvidia|openai)`),
	regexp.MustCompile(`(\w+\s+research\s+lab)`),
	regexp.MustCompile(`(\w+\s+research\s+center)`),
}

func institutionFor(authors, venue string) string {
	text := strings.ToLower(authors + " " + venue)

	for _, pattern := range institutionPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		found := match[1]
		switch {
		case strings.Contains(found, "mit"):
			return "MIT"
		case strings.Contains(found, "cmu"), strings.Contains(found, "carnegie mellon"):
			return "Carnegie Mellon University"
		case strings.Contains(found, "berkeley"):
			return "UC Berkeley"
		}

		return capitalizeWords(found)
	}

	return "Various Institutions"
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
