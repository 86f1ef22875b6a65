package ai

import (
	"context"
	"fmt"
	"strings"
)

// summarizeChunkWords is the window size, in words, for folding long
// transcripts into a running summary.
const summarizeChunkWords = 7500

// Summarize folds a long text into a summary, processing it in fixed-size
// word windows so each model call stays within context. The primer sets the
// summarization instructions for every window.
func Summarize(ctx context.Context, client Client, text, primer string) (string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", nil
	}

	summary := ""
	for start := 0; start < len(words); start += summarizeChunkWords {
		end := start + summarizeChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")

		prompt := chunk
		if summary != "" {
			prompt = fmt.Sprintf("Summary so far:\n%s\n\nContinue with:\n%s", summary, chunk)
		}
		folded, err := client.GenerateText(ctx, prompt, primer)
		if err != nil {
			return "", fmt.Errorf("summarize window at word %d: %w", start, err)
		}
		summary = strings.TrimSpace(folded)
	}
	return summary, nil
}
