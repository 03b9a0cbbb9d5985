package application

import (
	"context"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

// ScheduleAssigner draws each agent's daily online window once per calendar date.
type ScheduleAssigner struct {
	state  *StateStore
	rng    ports.Random
	logger *zap.Logger
}

func NewScheduleAssigner(state *StateStore, rng ports.Random, logger *zap.Logger) *ScheduleAssigner {
	if rng == nil {
		rng = ports.SystemRandom{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ScheduleAssigner{state: state, rng: rng, logger: logger}
}

// Assign returns the cached window for today or draws and caches a new one. The returned
// flag reports whether a new window was drawn.
func (a *ScheduleAssigner) Assign(agent domain.AgentProfile, today string) (domain.ScheduleWindow, bool) {
	var (
		window domain.ScheduleWindow
		drawn  bool
	)

	a.state.Update(func(state *domain.ProcessState) {
		if cached, ok := state.Schedules[agent.ID]; ok && cached.AssignedOn(today) {
			window = cached
			return
		}

		window = domain.ScheduleWindow{
			Wake:  drawHour(agent.Wake, a.rng),
			Sleep: drawHour(agent.Sleep, a.rng),
			Date:  today,
		}
		state.Schedules[agent.ID] = window
		drawn = true
	})

	if drawn {
		a.logger.Debug("schedule assigned",
			zap.String("agent", string(agent.ID)),
			zap.Int("wake", window.Wake),
			zap.Int("sleep", window.Sleep),
			zap.String("date", today))
	}

	return window, drawn
}

// drawHour picks uniformly over the hours of r. A wrapped range is treated as the two
// segments [Lo,23] and [0,Hi], chosen in proportion to their length.
func drawHour(r domain.HourRange, rng ports.Random) int {
	if !r.Wraps() {
		return r.Lo + rng.IntN(r.Hi-r.Lo+1)
	}

	late := 24 - r.Lo
	early := r.Hi + 1
	if rng.Float64() < float64(late)/float64(late+early) {
		return r.Lo + rng.IntN(late)
	}
	return rng.IntN(early)
}

// PresenceClock answers "is this agent online now" using today's window.
type PresenceClock struct {
	schedules *ScheduleAssigner
	state     *StateStore
	clock     ports.Clock
}

func NewPresenceClock(schedules *ScheduleAssigner, state *StateStore, clock ports.Clock) *PresenceClock {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &PresenceClock{schedules: schedules, state: state, clock: clock}
}

func (p *PresenceClock) Window(ctx context.Context, agent domain.AgentProfile) domain.ScheduleWindow {
	window, drawn := p.schedules.Assign(agent, domain.DateKey(p.clock.Now()))
	if drawn {
		p.state.Persist(ctx)
	}
	return window
}

func (p *PresenceClock) IsOnline(ctx context.Context, agent domain.AgentProfile) bool {
	window := p.Window(ctx, agent)
	return window.Online(p.clock.Now().Hour())
}
