// Package summarizer asks an external text-generation service for a summary.
package summarizer

import (
	"context"
	"errors"
)

const (
	// MaxPromptChars is how much extracted text goes into a prompt.
	MaxPromptChars = 2000
	promptPrefix   = "Summarize this document: "
)

// ErrAnalysisFailed covers transport errors, timeouts and non-2xx replies.
var ErrAnalysisFailed = errors.New("analysis failed")

// Summarizer makes a single attempt per call. Callers bound it with ctx; the
// client also applies its own timeout.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt truncates text to the first MaxPromptChars characters and adds
// the fixed instruction prefix.
func BuildPrompt(text string) string {
	return promptPrefix + truncate(text, MaxPromptChars)
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
