package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const (
	TransportConsole = "console"
	TransportLog     = "log"

	timeLayout = "15:04"
)

var namePalette = []lipgloss.Color{"39", "208", "170", "42", "220", "75", "203"}

// Router maps every configured channel onto a local transport: the console
// writer or the structured log.
type Router struct {
	out        io.Writer
	writeMu    sync.Mutex
	clock      ports.Clock
	logger     *zap.Logger
	transports map[domain.ChannelID]string
	names      map[domain.AgentID]string
	nameStyles map[domain.AgentID]lipgloss.Style
	dim        lipgloss.Style
}

var _ ports.ChannelRouter = (*Router)(nil)

func NewRouter(cast domain.Cast, out io.Writer, clock ports.Clock, logger *zap.Logger) (*Router, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer := lipgloss.NewRenderer(out)
	r := &Router{
		out:        out,
		clock:      clock,
		logger:     logger,
		transports: make(map[domain.ChannelID]string, len(cast.Channels)),
		names:      make(map[domain.AgentID]string, len(cast.Agents)),
		nameStyles: make(map[domain.AgentID]lipgloss.Style, len(cast.Agents)),
		dim:        renderer.NewStyle().Faint(true),
	}

	for id, transport := range cast.Channels {
		transport = strings.ToLower(strings.TrimSpace(transport))
		switch transport {
		case TransportConsole, TransportLog:
			r.transports[id] = transport
		default:
			return nil, fmt.Errorf("channel %s: unsupported transport %q", id, transport)
		}
	}

	for i, agent := range cast.Agents {
		r.names[agent.ID] = agent.DisplayName()
		r.nameStyles[agent.ID] = renderer.NewStyle().Bold(true).Foreground(namePalette[i%len(namePalette)])
	}

	return r, nil
}

// Channels lists the routed channel ids in name order.
func (r *Router) Channels() []domain.ChannelID {
	ids := make([]domain.ChannelID, 0, len(r.transports))
	for id := range r.transports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Router) Channel(agent domain.AgentID, id domain.ChannelID) (ports.ChatChannel, error) {
	transport, ok := r.transports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownChannel, id)
	}

	return &channel{router: r, agent: agent, id: id, transport: transport}, nil
}

type channel struct {
	router    *Router
	agent     domain.AgentID
	id        domain.ChannelID
	transport string
}

func (c *channel) ID() domain.ChannelID {
	return c.id
}

func (c *channel) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.transport == TransportLog {
		c.router.logger.Info("message",
			zap.String("agent", string(c.agent)),
			zap.String("channel", string(c.id)),
			zap.String("text", text),
		)
		return nil
	}

	return c.router.write(c.agent, c.id, text)
}

func (c *channel) Typing(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.router.logger.Debug("typing", zap.String("agent", string(c.agent)), zap.String("channel", string(c.id)))
	return func() {}, nil
}

func (r *Router) write(agent domain.AgentID, id domain.ChannelID, text string) error {
	name, ok := r.names[agent]
	if !ok {
		name = string(agent)
	}
	style, ok := r.nameStyles[agent]
	if !ok {
		style = lipgloss.NewStyle()
	}

	line := fmt.Sprintf("%s %s %s %s\n",
		r.dim.Render(r.clock.Now().Format(timeLayout)),
		r.dim.Render("#"+string(id)),
		style.Render("<"+name+">"),
		text,
	)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := io.WriteString(r.out, line); err != nil {
		return fmt.Errorf("write console message: %w", err)
	}

	return nil
}
