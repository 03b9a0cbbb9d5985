package ports

import "github.com/bnema/persona-cast/internal/domain"

// FlavorSource supplies short persona-specific references to sprinkle into prompts.
type FlavorSource interface {
	Pick(agent domain.AgentID, rng Random) (string, bool)
}
