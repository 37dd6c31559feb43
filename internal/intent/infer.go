package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiInferrer calls the Gemini API as the inference collaborator.
// The API key comes from the environment (GEMINI_API_KEY).
type GeminiInferrer struct {
	model string
}

// NewGeminiInferrer creates an inferrer for the given model name.
func NewGeminiInferrer(model string) *GeminiInferrer {
	return &GeminiInferrer{model: model}
}

// Infer sends the user text with the closed command schema as a hard
// constraint and returns the raw JSON candidate. The caller validates
// it; nothing here is trusted.
func (g *GeminiInferrer) Infer(ctx context.Context, text, schema string) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	prompt := "You are a command interpreter for a double-entry accounting ledger.\n" +
		"Today is " + time.Now().Format("2006-01-02") + ".\n" +
		"Map the user's request to exactly one command.\n\n" +
		schema + "\n\n" +
		"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n" +
		"Do NOT use ```json or any Markdown.\n\n" +
		"User request: " + text

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	return []byte(cleanModelJSON(raw)), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON object if junk remains.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
