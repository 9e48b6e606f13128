package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSummary string
		wantPrompt  string
	}{
		{
			name:        "paragraph followed by try line",
			text:        "Go's scheduler multiplexes goroutines onto OS threads.\nTry writing a worker pool with a buffered channel.",
			wantSummary: "Go's scheduler multiplexes goroutines onto OS threads.",
			wantPrompt:  "Try writing a worker pool with a buffered channel.",
		},
		{
			name:        "list markers stripped",
			text:        "- First point\n* Second point\n- Prompt: build a cache from scratch",
			wantSummary: "First point\nSecond point",
			wantPrompt:  "Prompt: build a cache from scratch",
		},
		{
			name:        "summary capped at three lines",
			text:        "one\ntwo\nthree\nfour\nfive",
			wantSummary: "one\ntwo\nthree",
			wantPrompt:  "four",
		},
		{
			name:        "marker match is case insensitive",
			text:        "Summary line.\nTRY a REPL session.",
			wantSummary: "Summary line.",
			wantPrompt:  "TRY a REPL session.",
		},
		{
			name:        "blank lines between summary points skipped",
			text:        "First point.\n\nSecond point.\n\nTry it out.",
			wantSummary: "First point.\nSecond point.",
			wantPrompt:  "Try it out.",
		},
		{
			name:        "missing prompt falls back to default",
			text:        "A single summary line.",
			wantSummary: "A single summary line.",
			wantPrompt:  "Explore this concept further.",
		},
		{
			name:        "blank line after full summary keeps default prompt",
			text:        "one\ntwo\nthree\n\nlate prompt",
			wantSummary: "one\ntwo\nthree",
			wantPrompt:  "Explore this concept further.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotation, err := parseAnnotation(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSummary, annotation.Summary)
			assert.Equal(t, []string{tt.wantPrompt}, annotation.Prompts)
		})
	}
}

func TestParseAnnotation_NoSummary(t *testing.T) {
	for _, text := range []string{"", "\n\n", "- \n* "} {
		_, err := parseAnnotation(text)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no summary")
	}
}

func TestParseAnnotation_PromptWithoutSummary(t *testing.T) {
	_, err := parseAnnotation("Try implementing this yourself.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no summary")
}
