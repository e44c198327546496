package chat

import (
	"context"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// Title generation constants.
const (
	titleGenerationTimeout = 5 * time.Second
	titleInputMaxRunes     = 500
	titleMaxRunes          = 100
)

const titlePrompt = `Generate a concise title (max 100 characters) for a chat conversation based on this first message.
The title should capture the main topic or intent.
Return ONLY the title text, no quotes, no explanations, no punctuation at the end.

Message: %s

Title:`

// GenerateTitle generates a concise conversation title from the user's first
// message. Best-effort: returns "" on any failure so the caller can fall back
// to truncation.
func (o *Orchestrator) GenerateTitle(ctx context.Context, userMessage string) string {
	ctx, cancel := context.WithTimeout(ctx, titleGenerationTimeout)
	defer cancel()

	inputRunes := []rune(userMessage)
	if len(inputRunes) > titleInputMaxRunes {
		userMessage = string(inputRunes[:titleInputMaxRunes]) + "..."
	}

	resp, err := o.generator.Generate(ctx,
		ai.WithModelName(o.defaultModel),
		ai.WithPrompt(titlePrompt, userMessage),
	)
	if err != nil {
		o.logger.Debug("title generation failed", "error", err)
		return ""
	}

	title := strings.TrimSpace(resp.Text())
	if title == "" {
		return ""
	}

	titleRunes := []rune(title)
	if len(titleRunes) > titleMaxRunes {
		title = string(titleRunes[:titleMaxRunes-3]) + "..."
	}
	return title
}

// TruncateTitle derives a title from raw text when generation is unavailable.
func TruncateTitle(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes-3]) + "..."
}
