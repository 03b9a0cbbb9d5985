package ports

import (
	"context"

	"github.com/bnema/persona-cast/internal/domain"
)

type ChatChannel interface {
	ID() domain.ChannelID
	Send(ctx context.Context, text string) error
	// Typing starts a typing indication; the returned stop ends it.
	Typing(ctx context.Context) (stop func(), err error)
}

// ChannelRouter resolves a channel as seen by one agent, so transports can
// post under that agent's identity.
type ChannelRouter interface {
	Channel(agent domain.AgentID, id domain.ChannelID) (ChatChannel, error)
}
