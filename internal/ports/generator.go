package ports

import (
	"context"

	"github.com/bnema/persona-cast/internal/domain"
)

// GenerationContext carries the structured extras a backend may use alongside the prompt.
type GenerationContext struct {
	Channel domain.ChannelID
	Memory  *domain.MemoryEvent
	Flavor  string
	Theme   string
	Role    domain.Role
}

// TextGenerator produces an agent's text. An empty result means "no reply".
type TextGenerator interface {
	Generate(ctx context.Context, agent domain.AgentID, prompt string, gen GenerationContext) (string, error)
}
