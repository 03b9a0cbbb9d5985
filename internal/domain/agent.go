package domain

import (
	"fmt"
	"strings"
	"time"
)

type AgentID string
type ChannelID string

// HourRange is an inclusive range of hours in [0,23]. Hi < Lo wraps past midnight.
type HourRange struct {
	Lo int
	Hi int
}

func (r HourRange) Validate() error {
	if r.Lo < 0 || r.Lo > 23 || r.Hi < 0 || r.Hi > 23 {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidHourRange, r.Lo, r.Hi)
	}

	return nil
}

func (r HourRange) Wraps() bool {
	return r.Hi < r.Lo
}

type Probabilities struct {
	Spontaneous float64
	Reply       float64
	Memory      float64
	Flavor      float64
}

type Intervals struct {
	ChatterMin      time.Duration
	ChatterMax      time.Duration
	GlobalCooldown  time.Duration
	ChannelCooldown time.Duration
}

type PromptTemplates struct {
	Spontaneous string
	Reply       string
	Signoff     string
}

type AgentProfile struct {
	ID          AgentID
	Name        string
	Aliases     []string
	Wake        HourRange
	Sleep       HourRange
	StyleTags   []string
	Tone        string
	HomeChannel ChannelID
	Chance      Probabilities
	Intervals   Intervals
	Prompts     PromptTemplates
}

func (p AgentProfile) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if err := p.Wake.Validate(); err != nil {
		return fmt.Errorf("agent %s wake: %w", p.ID, err)
	}
	if err := p.Sleep.Validate(); err != nil {
		return fmt.Errorf("agent %s sleep: %w", p.ID, err)
	}
	for name, value := range map[string]float64{
		"spontaneous": p.Chance.Spontaneous,
		"reply":       p.Chance.Reply,
		"memory":      p.Chance.Memory,
		"flavor":      p.Chance.Flavor,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("agent %s %s probability %.2f out of [0,1]", p.ID, name, value)
		}
	}
	if p.Intervals.ChatterMax < p.Intervals.ChatterMin {
		return fmt.Errorf("agent %s chatter interval max %s below min %s", p.ID, p.Intervals.ChatterMax, p.Intervals.ChatterMin)
	}

	return nil
}

func (p AgentProfile) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}

	return string(p.ID)
}

// Mentioned reports whether text names the agent by id, name or alias, ignoring case.
func (p AgentProfile) Mentioned(text string) bool {
	lowered := strings.ToLower(text)
	candidates := append([]string{string(p.ID), p.Name}, p.Aliases...)
	for _, candidate := range candidates {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if containsWord(lowered, candidate) {
			return true
		}
	}

	return false
}

func containsWord(text, word string) bool {
	for offset := 0; offset <= len(text)-len(word); {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if isBoundary(text, start-1) && isBoundary(text, end) {
			return true
		}
		offset = start + 1
	}

	return false
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c >= 0x80)
}

// Cast is the static, read-only configuration of every agent plus routing.
type Cast struct {
	Agents   []AgentProfile
	Order    []AgentID
	Themes   []string
	Channels map[ChannelID]string
}

func (c Cast) Validate() error {
	if len(c.Agents) == 0 {
		return ErrEmptyCast
	}

	seen := make(map[AgentID]struct{}, len(c.Agents))
	for _, agent := range c.Agents {
		if err := agent.Validate(); err != nil {
			return err
		}
		if _, ok := seen[agent.ID]; ok {
			return fmt.Errorf("duplicate agent id %q", agent.ID)
		}
		seen[agent.ID] = struct{}{}
	}

	for _, id := range c.Order {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("rotation order: %w: %s", ErrAgentNotFound, id)
		}
	}

	return nil
}

func (c Cast) Agent(id AgentID) (AgentProfile, error) {
	for _, agent := range c.Agents {
		if agent.ID == id {
			return agent, nil
		}
	}

	return AgentProfile{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
}

// RotationOrder returns the configured order, falling back to declaration order.
func (c Cast) RotationOrder() []AgentID {
	if len(c.Order) > 0 {
		return append([]AgentID(nil), c.Order...)
	}

	order := make([]AgentID, 0, len(c.Agents))
	for _, agent := range c.Agents {
		order = append(order, agent.ID)
	}
	return order
}
