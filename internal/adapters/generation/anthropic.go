package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

type AnthropicGenerator struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

var _ ports.TextGenerator = (*AnthropicGenerator)(nil)

func NewAnthropicGenerator(apiKey string, settings Settings, logger *zap.Logger) *AnthropicGenerator {
	var opts []anthropic.ClientOption
	if settings.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(settings.BaseURL))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnthropicGenerator{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       settings.Model,
		maxTokens:   settings.MaxTokens,
		temperature: float32(settings.Temperature),
		logger:      logger,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, agent domain.AgentID, prompt string, gen ports.GenerationContext) (string, error) {
	started := time.Now()
	temperature := g.temperature
	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(g.model),
		System: systemPrompt(agent, gen),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(prompt)},
			},
		},
		MaxTokens:   g.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var parts []string
	for _, content := range resp.Content {
		if content.Text != nil {
			parts = append(parts, *content.Text)
		}
	}

	g.logger.Debug("anthropic completion",
		zap.String("agent", string(agent)),
		zap.String("model", g.model),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("took", time.Since(started)),
	)

	return strings.TrimSpace(strings.Join(parts, "")), nil
}
