package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGenerator talks to the chat completions API or any compatible server.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

var _ ports.TextGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(apiKey string, settings Settings, logger *zap.Logger) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if settings.BaseURL != "" {
		config.BaseURL = settings.BaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(config),
		model:       settings.Model,
		maxTokens:   settings.MaxTokens,
		temperature: float32(settings.Temperature),
		logger:      logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, agent domain.AgentID, prompt string, gen ports.GenerationContext) (string, error) {
	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(agent, gen)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion: no choices")
	}

	g.logger.Debug("openai completion",
		zap.String("agent", string(agent)),
		zap.String("model", g.model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("took", time.Since(started)),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
