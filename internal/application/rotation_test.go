package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationAssignerAdvanceMovesLeadAndTheme(t *testing.T) {
	t.Parallel()

	repo := &inMemoryStateRepo{}
	store := NewStateStore(repo, nil)
	cast := domain.Cast{
		Agents: []domain.AgentProfile{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Themes: []string{"music", "films"},
	}
	rotation := NewRotationAssigner(cast, store, fixedClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}, nil)

	current := rotation.Current()
	assert.Equal(t, domain.AgentID("a"), current.Lead)
	assert.Equal(t, domain.AgentID("b"), current.Rest)
	assert.Equal(t, []domain.AgentID{"c"}, current.Supports)
	assert.Equal(t, "2026-10-19", current.Date)
	assert.Equal(t, "music", rotation.Theme())

	next, err := rotation.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.AgentID("b"), next.Lead)
	assert.Equal(t, domain.AgentID("c"), next.Rest)
	assert.Equal(t, "films", rotation.Theme())
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, 1, store.Snapshot().RotationIndex)
}

func TestRotationAssignerHonoursConfiguredOrder(t *testing.T) {
	t.Parallel()

	store := NewStateStore(&inMemoryStateRepo{}, nil)
	store.Update(func(state *domain.ProcessState) { state.RotationIndex = 5 })
	cast := domain.Cast{
		Agents: []domain.AgentProfile{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Order:  []domain.AgentID{"c", "a", "b"},
	}
	rotation := NewRotationAssigner(cast, store, nil, nil)

	current := rotation.Current()
	assert.Equal(t, domain.AgentID("b"), current.Lead)
	assert.Equal(t, domain.AgentID("c"), current.Rest)
	assert.Equal(t, "", rotation.Theme())
}

func TestRotationAssignerAdvanceReportsSaveFailure(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("no space left")
	store := NewStateStore(&inMemoryStateRepo{saveErr: saveErr}, nil)
	rotation := NewRotationAssigner(domain.Cast{Agents: []domain.AgentProfile{{ID: "a"}, {ID: "b"}}}, store, nil, nil)

	assignment, err := rotation.Advance(context.Background())
	require.ErrorIs(t, err, saveErr)
	assert.Equal(t, domain.AgentID("b"), assignment.Lead)
	assert.Equal(t, 1, store.Snapshot().RotationIndex)
}
