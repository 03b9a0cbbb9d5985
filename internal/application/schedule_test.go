package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleAssignIsIdempotentPerDate(t *testing.T) {
	t.Parallel()

	store := NewStateStore(&inMemoryStateRepo{}, nil)
	rng := &scriptedRandom{ints: []int{2, 5, 0, 0}}
	assigner := NewScheduleAssigner(store, rng, nil)
	agent := domain.AgentProfile{ID: "ava", Wake: domain.HourRange{Lo: 7, Hi: 10}, Sleep: domain.HourRange{Lo: 20, Hi: 23}}

	first, drawn := assigner.Assign(agent, "2026-10-19")
	require.True(t, drawn)
	assert.Equal(t, domain.ScheduleWindow{Wake: 9, Sleep: 21, Date: "2026-10-19"}, first)

	second, drawn := assigner.Assign(agent, "2026-10-19")
	assert.False(t, drawn)
	assert.Equal(t, first, second)

	third, drawn := assigner.Assign(agent, "2026-10-20")
	assert.True(t, drawn)
	assert.Equal(t, domain.ScheduleWindow{Wake: 7, Sleep: 20, Date: "2026-10-20"}, third)
}

func TestDrawHourWrappedRangeUsesSegmentWeights(t *testing.T) {
	t.Parallel()

	wrapped := domain.HourRange{Lo: 22, Hi: 2}

	late := drawHour(wrapped, &scriptedRandom{floats: []float64{0.39}, ints: []int{1}})
	assert.Equal(t, 23, late)

	early := drawHour(wrapped, &scriptedRandom{floats: []float64{0.4}, ints: []int{2}})
	assert.Equal(t, 2, early)
}

func TestDrawHourStaysInsideRange(t *testing.T) {
	t.Parallel()

	ranges := []domain.HourRange{{Lo: 6, Hi: 9}, {Lo: 22, Hi: 2}, {Lo: 23, Hi: 0}, {Lo: 5, Hi: 5}}
	for _, r := range ranges {
		for draw := 0; draw < 24; draw++ {
			for _, coin := range []float64{0, 0.5, 0.99} {
				hour := drawHour(r, &scriptedRandom{floats: []float64{coin}, ints: []int{draw}})
				if r.Wraps() {
					assert.True(t, hour >= r.Lo || hour <= r.Hi, "range %+v drew %d", r, hour)
				} else {
					assert.True(t, hour >= r.Lo && hour <= r.Hi, "range %+v drew %d", r, hour)
				}
			}
		}
	}
}

func TestPresenceClockUsesTodaysWindow(t *testing.T) {
	t.Parallel()

	repo := &inMemoryStateRepo{}
	store := NewStateStore(repo, nil)
	assigner := NewScheduleAssigner(store, &scriptedRandom{}, nil)
	agent := domain.AgentProfile{ID: "ava", Wake: domain.HourRange{Lo: 8, Hi: 8}, Sleep: domain.HourRange{Lo: 22, Hi: 22}}

	clock := &manualClock{now: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}
	presence := NewPresenceClock(assigner, store, clock)

	assert.True(t, presence.IsOnline(context.Background(), agent))
	assert.Equal(t, 1, repo.saves)

	clock.Set(time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC))
	assert.False(t, presence.IsOnline(context.Background(), agent))
	assert.Equal(t, 1, repo.saves)

	clock.Set(time.Date(2026, 10, 20, 7, 0, 0, 0, time.UTC))
	assert.False(t, presence.IsOnline(context.Background(), agent))
	assert.Equal(t, "2026-10-20", presence.Window(context.Background(), agent).Date)
	assert.Equal(t, 2, repo.saves)
}
