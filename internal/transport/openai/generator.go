package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/altglass/semqa/internal/domain"
	"github.com/altglass/semqa/internal/metrics"
)

const systemPrompt = "You are a helpful assistant. Answer the user's question " +
	"using the provided context. If the context already answers the question, " +
	"restate that answer clearly and concisely."

// Generator rewrites retrieved answers via a chat-completion model.
type Generator struct {
	client          *openai.Client
	model           string
	provider        string
	temperature     float32
	maxOutputTokens int
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Provider        string
	Temperature     float32
	MaxOutputTokens int
}

// NewGenerator creates an OpenAI-compatible chat-completion generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:          openai.NewClientWithConfig(clientCfg),
		model:           cfg.Model,
		provider:        cfg.Provider,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
}

// Generate implements domain.Generator. promptContext carries the retrieved
// question/answer pair, query is the user's original question.
func (g *Generator) Generate(ctx context.Context, promptContext, query string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s",
					promptContext, query),
			},
		},
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", parseGenerationError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationProvider)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	return resp.Choices[0].Message.Content, nil
}

func parseGenerationError(err error) error {
	wrap := domain.ErrGenerationProvider

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}
