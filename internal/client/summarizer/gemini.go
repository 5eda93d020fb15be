package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSummarizer asks a Gemini model for the summary.
type GeminiSummarizer struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

var _ Summarizer = (*GeminiSummarizer)(nil)

// NewGeminiSummarizer creates a client for the Gemini API. With an empty
// apiKey the SDK falls back to its environment variables.
func NewGeminiSummarizer(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiSummarizer, error) {
	var cfg *genai.ClientConfig
	if apiKey != "" {
		cfg = &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiSummarizer{models: client.Models, model: model, timeout: timeout}, nil
}

func prompt(text string, sentences int) string {
	return fmt.Sprintf(
		"Summarize the following blog post in at most %d sentences. Reply with the summary only.\n\n%s",
		sentences, text)
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, text string, sentences int) (string, error) {
	text, sentences, err := normalize(text, sentences)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt(text, sentences)), nil)
	if err != nil {
		return "", wrapErr("gemini API request failed", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
