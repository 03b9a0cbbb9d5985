package application

import (
	"context"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

type RotationAssigner struct {
	order  []domain.AgentID
	themes []string
	state  *StateStore
	clock  ports.Clock
	logger *zap.Logger
}

func NewRotationAssigner(cast domain.Cast, state *StateStore, clock ports.Clock, logger *zap.Logger) *RotationAssigner {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RotationAssigner{
		order:  cast.RotationOrder(),
		themes: append([]string(nil), cast.Themes...),
		state:  state,
		clock:  clock,
		logger: logger,
	}
}

func (r *RotationAssigner) Current() domain.RotationAssignment {
	snapshot := r.state.Snapshot()
	return domain.AssignRotation(r.order, snapshot.RotationIndex, domain.DateKey(r.clock.Now()))
}

// Theme returns the daily theme, or "" when none are configured.
func (r *RotationAssigner) Theme() string {
	if len(r.themes) == 0 {
		return ""
	}

	snapshot := r.state.Snapshot()
	return r.themes[mod(snapshot.ThemeIndex, len(r.themes))]
}

// Advance moves both the rotation and the theme one step and persists the result.
func (r *RotationAssigner) Advance(ctx context.Context) (domain.RotationAssignment, error) {
	var index int
	r.state.Update(func(state *domain.ProcessState) {
		state.RotationIndex++
		state.ThemeIndex++
		index = state.RotationIndex
	})

	assignment := domain.AssignRotation(r.order, index, domain.DateKey(r.clock.Now()))
	r.logger.Info("rotation advanced",
		zap.Int("index", index),
		zap.String("lead", string(assignment.Lead)),
		zap.String("rest", string(assignment.Rest)))

	if err := r.state.Save(ctx); err != nil {
		return assignment, err
	}

	return assignment, nil
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
