package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	repo := &inMemoryStateRepo{document: map[string]any{
		"rotation_index": 3,
		"schedules": map[string]any{
			"ava": map[string]any{"wake": 8, "sleep": 22, "date": "2026-10-19"},
		},
		"rituals": map[string]any{"last_run": "2026-10-18"},
	}}
	store := NewStateStore(repo, nil)

	require.NoError(t, store.Load(context.Background()))

	snapshot := store.Snapshot()
	assert.Equal(t, 3, snapshot.RotationIndex)
	assert.Equal(t, 0, snapshot.ThemeIndex)
	assert.Equal(t, domain.ScheduleWindow{Wake: 8, Sleep: 22, Date: "2026-10-19"}, snapshot.Schedules["ava"])
	assert.Empty(t, snapshot.Cooldowns)
	assert.Equal(t, map[string]any{"last_run": "2026-10-18"}, snapshot.Extra["rituals"])
}

func TestStateStoreSaveWritesEveryTemplateKey(t *testing.T) {
	t.Parallel()

	repo := &inMemoryStateRepo{document: map[string]any{"rituals": map[string]any{"count": 2}}}
	store := NewStateStore(repo, nil)
	require.NoError(t, store.Load(context.Background()))

	store.Update(func(state *domain.ProcessState) {
		state.Cooldowns["ava"] = map[domain.ChannelID]float64{domain.GlobalScope: 100}
	})
	require.NoError(t, store.Save(context.Background()))

	for _, key := range []string{
		domain.StateKeyRotationIndex,
		domain.StateKeyThemeIndex,
		domain.StateKeySchedules,
		domain.StateKeyCooldowns,
		domain.StateKeyRelationships,
		domain.StateKeyLastMaintenance,
		"rituals",
	} {
		assert.Contains(t, repo.document, key)
	}
	assert.Equal(t, map[string]any{"ava": map[string]any{"*": 100.0}}, repo.document[domain.StateKeyCooldowns])
}

func TestStateStoreLoadFailureFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("disk gone")
	repo := &inMemoryStateRepo{loadErr: loadErr}
	store := NewStateStore(repo, nil)
	store.Update(func(state *domain.ProcessState) { state.RotationIndex = 9 })

	err := store.Load(context.Background())
	require.ErrorIs(t, err, loadErr)
	assert.Equal(t, 0, store.Snapshot().RotationIndex)
}

func TestStateStoreResetPersistsDefaultsAndKeepsStartedFlags(t *testing.T) {
	t.Parallel()

	repo := &inMemoryStateRepo{}
	store := NewStateStore(repo, nil)
	store.Update(func(state *domain.ProcessState) {
		state.RotationIndex = 4
		state.ChatterStarted["ava"] = true
	})

	require.NoError(t, store.Reset(context.Background()))

	snapshot := store.Snapshot()
	assert.Equal(t, 0, snapshot.RotationIndex)
	assert.True(t, snapshot.ChatterStarted["ava"])
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, 0, repo.document[domain.StateKeyRotationIndex])
}

func TestStateStorePersistSwallowsSaveErrors(t *testing.T) {
	t.Parallel()

	repo := &inMemoryStateRepo{saveErr: errors.New("read-only")}
	store := NewStateStore(repo, nil)
	store.Update(func(state *domain.ProcessState) { state.ThemeIndex = 2 })

	store.Persist(context.Background())

	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, 2, store.Snapshot().ThemeIndex)
}

func TestStateStoreSnapshotIsDetached(t *testing.T) {
	t.Parallel()

	store := NewStateStore(&inMemoryStateRepo{}, nil)
	snapshot := store.Snapshot()
	snapshot.Schedules["ava"] = domain.ScheduleWindow{Wake: 1, Sleep: 2, Date: "x"}

	assert.Empty(t, store.Snapshot().Schedules)
}
