package enrich

import (
	"errors"
	"strings"

	"feedup_ingest/internal/domain"
)

const (
	maxSummaryLines = 3
	defaultPrompt   = "Explore this concept further."
)

// parseAnnotation splits a model reply into summary lines and one
// follow-up prompt. List markers are stripped from each line. A line
// opening with "try" or mentioning "prompt" ends the summary and
// becomes the prompt, as does whatever line follows a full summary.
func parseAnnotation(text string) (domain.Annotation, error) {
	var summaryLines []string
	var promptLine string

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.Trim(line, "- *\n")
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "try") || strings.Contains(lower, "prompt") || len(summaryLines) >= maxSummaryLines {
			promptLine = line
			break
		}
		if line != "" {
			summaryLines = append(summaryLines, line)
		}
	}

	if len(summaryLines) == 0 {
		return domain.Annotation{}, errors.New("no summary returned")
	}
	if promptLine == "" {
		promptLine = defaultPrompt
	}

	return domain.Annotation{
		Summary: strings.Join(summaryLines, "\n"),
		Prompts: []string{promptLine},
	}, nil
}
