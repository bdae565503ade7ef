package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GroqGenerator produces free-text answers using Groq's OpenAI-compatible
// API. It implements the TextGenerator interface and serves as the fallback
// when Gemini is exhausted.
type GroqGenerator struct {
	client  openai.Client
	model   string
	enabled bool
}

// NewGroqGenerator creates a new Groq-based text generator.
// Returns nil if apiKey is empty (fallback disabled).
func NewGroqGenerator(apiKey, model string) *GroqGenerator {
	if apiKey == "" {
		return nil
	}

	if model == "" {
		model = DefaultGroqModel
	}

	client := openai.NewClient(
		option.WithBaseURL(ProviderEndpoint[ProviderGroq]),
		option.WithAPIKey(apiKey),
	)

	return &GroqGenerator{client: client, model: model, enabled: true}
}

// Generate produces an answer for the prompt under the given system
// instruction.
func (g *GroqGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || !g.enabled {
		return "", errors.New("groq generator not configured")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    messages,
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(1024),
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "answer generation API call failed",
			"provider", "groq",
			"model", g.model,
			"prompt_length", len(prompt),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", WrapError(fmt.Errorf("chat completion failed: %w", err), ProviderGroq, 0)
	}

	// An empty completion is a valid outcome; the caller decides what to
	// answer when there is no text.
	var text string
	if resp != nil && len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	if resp != nil && resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "answer generation completed",
			"provider", "groq",
			"model", g.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"duration_ms", duration.Milliseconds())
	}

	return text, nil
}

// Provider returns the provider type for this generator.
func (g *GroqGenerator) Provider() Provider {
	return ProviderGroq
}

// IsEnabled returns true if the generator is usable.
func (g *GroqGenerator) IsEnabled() bool {
	return g != nil && g.enabled
}

// Close releases resources held by the generator. Safe on nil receiver.
func (g *GroqGenerator) Close() error {
	return nil
}
