// Package dedup filters a fetched batch down to unique, publishable
// items before anything touches staging.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"feedup_ingest/internal/domain"
)

// Config holds the quality thresholds applied after deduplication.
type Config struct {
	MinTitleLen   int
	MinContentLen int
	SpamTokens    []string
}

// Report counts what Run dropped from a batch.
type Report struct {
	Duplicates int
	LowQuality int
}

// Filter removes in-batch duplicates and low-quality items. It is
// stateless across batches; persistent dedup is the staging store's
// source_url uniqueness.
type Filter struct {
	cfg    Config
	logger *slog.Logger
}

func NewFilter(cfg Config, logger *slog.Logger) *Filter {
	return &Filter{
		cfg:    cfg,
		logger: logger.With("component", "dedup"),
	}
}

// Run returns the surviving items in input order. Pass one drops
// repeated fingerprints and repeated normalized titles (first
// occurrence wins); pass two drops items failing the quality gate.
func (f *Filter) Run(items []domain.RawItem) ([]domain.RawItem, Report) {
	var report Report

	seenHashes := make(map[string]struct{}, len(items))
	seenTitles := make(map[string]struct{}, len(items))

	unique := make([]domain.RawItem, 0, len(items))
	for _, item := range items {
		hash := Fingerprint(item)
		title := NormalizeTitle(item.Title)

		if _, ok := seenHashes[hash]; ok {
			report.Duplicates++
			f.logger.Debug("dropping duplicate", "title", item.Title, "source_url", item.SourceURL)
			continue
		}
		if _, ok := seenTitles[title]; ok {
			report.Duplicates++
			f.logger.Debug("dropping duplicate title", "title", item.Title, "source_url", item.SourceURL)
			continue
		}

		seenHashes[hash] = struct{}{}
		seenTitles[title] = struct{}{}
		unique = append(unique, item)
	}

	kept := make([]domain.RawItem, 0, len(unique))
	for _, item := range unique {
		if reason := f.qualityReason(item); reason != "" {
			report.LowQuality++
			f.logger.Debug("dropping low-quality item",
				"title", item.Title,
				"source_url", item.SourceURL,
				"reason", reason,
			)
			continue
		}

		kept = append(kept, item)
	}

	return kept, report
}

func (f *Filter) qualityReason(item domain.RawItem) string {
	if len(item.Title) < f.cfg.MinTitleLen {
		return "title too short"
	}
	if len(item.RawContent) < f.cfg.MinContentLen {
		return "content too short"
	}

	haystack := strings.ToLower(item.Title + " " + item.RawContent)
	for _, token := range f.cfg.SpamTokens {
		if strings.Contains(haystack, strings.ToLower(token)) {
			return "spam token: " + token
		}
	}

	return ""
}

// Fingerprint derives a stable identity for an item: papers hash on
// title+authors+date, everything else on title+source+date, so the
// same story syndicated under different URLs still collapses.
func Fingerprint(item domain.RawItem) string {
	day := item.PublishedAt.Format("2006-01-02")

	var projection string
	if item.Authors != "" {
		projection = fmt.Sprintf("%s|%s|%s", NormalizeTitle(item.Title), item.Authors, day)
	} else {
		projection = fmt.Sprintf("%s|%s|%s", NormalizeTitle(item.Title), item.SourceName, day)
	}

	sum := sha256.Sum256([]byte(projection))

	return hex.EncodeToString(sum[:])
}

// NormalizeTitle lower-cases, strips punctuation and collapses runs of
// whitespace so near-identical titles compare equal.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
