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

var chatterNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func testProfile(id domain.AgentID, name string) domain.AgentProfile {
	return domain.AgentProfile{
		ID:          id,
		Name:        name,
		Aliases:     []string{string(id) + "y"},
		Wake:        domain.HourRange{Lo: 8, Hi: 8},
		Sleep:       domain.HourRange{Lo: 22, Hi: 22},
		StyleTags:   []string{"music"},
		Tone:        "playful",
		HomeChannel: "general",
		Chance:      domain.Probabilities{Spontaneous: 0.5, Reply: 0.3},
		Intervals: domain.Intervals{
			ChatterMin:      time.Minute,
			ChatterMax:      5 * time.Minute,
			GlobalCooldown:  30 * time.Second,
			ChannelCooldown: 2 * time.Minute,
		},
	}
}

type chatterHarness struct {
	agent     *Agent
	state     *StateStore
	memory    *SharedMemoryStore
	cooldowns *CooldownGate
	tasks     *TaskTable
	gen       *fakeGenerator
	router    *fakeRouter
	clock     *manualClock
	rng       *scriptedRandom
	loop      *recordingSleeper
}

func newChatterHarness(t *testing.T, profile domain.AgentProfile, rng *scriptedRandom) *chatterHarness {
	t.Helper()

	if rng == nil {
		rng = &scriptedRandom{}
	}
	clock := &manualClock{now: chatterNow}
	state := NewStateStore(&inMemoryStateRepo{}, nil)
	memory := NewSharedMemoryStore(&inMemoryMemoryRepo{}, clock, rng, nil)
	cast := domain.Cast{Agents: []domain.AgentProfile{profile, testProfile("ben", "Ben")}}

	h := &chatterHarness{
		state:     state,
		memory:    memory,
		cooldowns: NewCooldownGate(state),
		tasks:     NewTaskTable(clock, &recordingSleeper{}, nil),
		gen:       &fakeGenerator{text: "Hello there."},
		router:    newFakeRouter("general", "music"),
		clock:     clock,
		rng:       rng,
		loop:      newInstantSleeper(),
	}

	agent, err := NewAgent(profile, AgentServices{
		State:     state,
		Presence:  NewPresenceClock(NewScheduleAssigner(state, rng, nil), state, clock),
		Rotation:  NewRotationAssigner(cast, state, clock, nil),
		Cooldowns: h.cooldowns,
		Memory:    memory,
		Pacer:     NewMessagePacer(DefaultPacingConfig(), rng, newInstantSleeper(), nil),
		Tasks:     h.tasks,
		Generator: h.gen,
		Router:    h.router,
		Clock:     clock,
		Random:    rng,
		Sleeper:   h.loop,
	})
	require.NoError(t, err)
	h.agent = agent
	return h
}

func (h *chatterHarness) sent(channel domain.ChannelID) []string {
	return h.router.channels[channel].Sent()
}

func TestAgentEvaluateSkipsWhenOffline(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)
	h.clock.Set(time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC))

	outcome := h.agent.Evaluate(context.Background())
	assert.Equal(t, SkipOffline, outcome.Skip)
	assert.False(t, outcome.Acted)
	assert.Empty(t, h.gen.Calls())
}

func TestAgentEvaluateSkipsOnChance(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), &scriptedRandom{floats: []float64{0.5}})

	outcome := h.agent.Evaluate(context.Background())
	assert.Equal(t, SkipChance, outcome.Skip)
	assert.Empty(t, h.gen.Calls())
}

func TestAgentEvaluateSpeaksAndRemembers(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), &scriptedRandom{floats: []float64{0.1}})

	outcome := h.agent.Evaluate(context.Background())
	require.True(t, outcome.Acted, "skip=%s err=%v", outcome.Skip, outcome.Err)
	assert.Equal(t, TriggerSpontaneous, outcome.Trigger)
	assert.Equal(t, []string{"Hello there."}, h.sent("general"))

	calls := h.gen.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "You are Ava")
	assert.Contains(t, calls[0].Prompt, "lead of the group")
	assert.Equal(t, domain.RoleLead, calls[0].Gen.Role)

	events := h.memory.List()
	require.Len(t, events, 1)
	assert.Equal(t, domain.AgentID("ava"), events[0].Who)
	assert.Equal(t, "Ava said in #general: Hello there.", events[0].Summary)
	assert.ElementsMatch(t, []string{"music", "spontaneous", "general"}, events[0].Tags)
}

func TestAgentEvaluateFailureBranches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		genErr  error
		sendErr error
		want    SkipReason
	}{
		{name: "blank generation", text: "   ", want: SkipEmptyGeneration},
		{name: "generation error", genErr: errors.New("upstream 500"), want: SkipGenerationFailed},
		{name: "send error", text: "hi", sendErr: errors.New("socket closed"), want: SkipDeliveryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newChatterHarness(t, testProfile("ava", "Ava"), &scriptedRandom{floats: []float64{0.1}})
			h.gen.text = tt.text
			h.gen.err = tt.genErr
			h.router.channels["general"].sendErr = tt.sendErr

			outcome := h.agent.Evaluate(context.Background())
			assert.Equal(t, tt.want, outcome.Skip)
			assert.False(t, outcome.Acted)
			assert.Empty(t, h.memory.List())
			if tt.genErr != nil {
				require.ErrorIs(t, outcome.Err, tt.genErr)
			}
		})
	}
}

func TestAgentReactIgnoresOwnMessages(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)

	outcome := h.agent.React(context.Background(), InboundMessage{Channel: "general", Author: "ava", Text: "hi ava"})
	assert.Equal(t, SkipSelf, outcome.Skip)

	outcome = h.agent.React(context.Background(), InboundMessage{Channel: "general", Author: "AVA", Text: "hi"})
	assert.Equal(t, SkipSelf, outcome.Skip)
}

func TestAgentReactChanceSkipLeavesCooldownUntouched(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), &scriptedRandom{floats: []float64{0.3}})

	outcome := h.agent.React(context.Background(), InboundMessage{Channel: "general", Author: "ben", Text: "anyone around?"})
	assert.Equal(t, SkipChance, outcome.Skip)

	_, recorded := h.cooldowns.Last("ava", domain.GlobalScope)
	assert.False(t, recorded)
}

func TestAgentReactMentionForcesReply(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), &scriptedRandom{floats: []float64{0.99}})

	outcome := h.agent.React(context.Background(), InboundMessage{Channel: "music", Author: "ben", Text: "what do you think, Ava?"})
	require.True(t, outcome.Acted, "skip=%s err=%v", outcome.Skip, outcome.Err)
	assert.Equal(t, domain.ChannelID("music"), outcome.Channel)
	assert.Equal(t, []string{"Hello there."}, h.sent("music"))
	assert.Contains(t, h.gen.Calls()[0].Prompt, `ben just wrote in #music: "what do you think, Ava?"`)

	_, global := h.cooldowns.Last("ava", domain.GlobalScope)
	_, channel := h.cooldowns.Last("ava", "music")
	assert.True(t, global)
	assert.True(t, channel)

	snapshot := h.state.Snapshot()
	assert.InDelta(t, 1.0, snapshot.Relationships["ava"]["ben"], 1e-9)

	events := h.memory.List()
	require.Len(t, events, 1)
	assert.Equal(t, "Ava replied to ben in #music: Hello there.", events[0].Summary)
}

func TestAgentReactRespectsCooldownEvenWhenMentioned(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)
	msg := InboundMessage{Channel: "general", Author: "ben", Text: "avay, you up?"}

	first := h.agent.React(context.Background(), msg)
	require.True(t, first.Acted)

	h.clock.Set(chatterNow.Add(time.Minute))
	second := h.agent.React(context.Background(), msg)
	assert.Equal(t, SkipCooldown, second.Skip)

	h.clock.Set(chatterNow.Add(2 * time.Minute))
	third := h.agent.React(context.Background(), msg)
	assert.True(t, third.Acted)
	assert.Len(t, h.gen.Calls(), 2)
}

func TestAgentReactFailedGenerationStillConsumesCooldown(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)
	h.gen.err = errors.New("timeout")
	msg := InboundMessage{Channel: "general", Author: "ben", Text: "ava?"}

	outcome := h.agent.React(context.Background(), msg)
	assert.Equal(t, SkipGenerationFailed, outcome.Skip)

	h.gen.err = nil
	outcome = h.agent.React(context.Background(), msg)
	assert.Equal(t, SkipCooldown, outcome.Skip)
}

func TestAgentReactInjectsMemoryAndFlavor(t *testing.T) {
	t.Parallel()

	profile := testProfile("ava", "Ava")
	profile.Chance.Memory = 1
	profile.Chance.Flavor = 1
	h := newChatterHarness(t, profile, nil)
	h.agent.svc.Flavor = fakeFlavor{line: "the lighthouse trip"}

	_, err := h.memory.Record(context.Background(), MemoryInput{Who: "ben", Summary: "Ben fixed the boat", Tags: []string{"music"}})
	require.NoError(t, err)

	outcome := h.agent.React(context.Background(), InboundMessage{Channel: "general", Author: "ben", Text: "hey ava"})
	require.True(t, outcome.Acted)
	require.NotNil(t, outcome.Memory)
	assert.Equal(t, "Ben fixed the boat", outcome.Memory.Summary)

	call := h.gen.Calls()[0]
	assert.Contains(t, call.Prompt, "Ben fixed the boat")
	assert.Contains(t, call.Prompt, "the lighthouse trip")
	assert.Equal(t, "the lighthouse trip", call.Gen.Flavor)
	require.NotNil(t, call.Gen.Memory)
}

func TestAgentReactUnknownChannel(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)

	outcome := h.agent.React(context.Background(), InboundMessage{Channel: "random", Author: "ben", Text: "ava"})
	assert.Equal(t, SkipUnknownChannel, outcome.Skip)
	require.ErrorIs(t, outcome.Err, domain.ErrUnknownChannel)
	assert.Empty(t, h.gen.Calls())
}

func TestAgentSignoffSpeaksOnHomeChannel(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)
	h.gen.text = "Good night all."

	outcome := h.agent.Signoff(context.Background())
	require.True(t, outcome.Acted)
	assert.Equal(t, TriggerSignoff, outcome.Trigger)
	assert.Equal(t, []string{"Good night all."}, h.sent("general"))
	assert.Contains(t, h.gen.Calls()[0].Prompt, "heading offline")
}

func TestAgentNextWaitWithinInterval(t *testing.T) {
	t.Parallel()

	profile := testProfile("ava", "Ava")
	agent, err := NewAgent(profile, AgentServices{Random: constRandom(0.5)})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, agent.NextWait())

	profile.Intervals.ChatterMax = profile.Intervals.ChatterMin
	agent, err = NewAgent(profile, AgentServices{Random: constRandom(0.5)})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, agent.NextWait())
}

func TestAgentRejectsBrokenPromptTemplate(t *testing.T) {
	t.Parallel()

	profile := testProfile("ava", "Ava")
	profile.Prompts.Reply = "{{.Agent"

	_, err := NewAgent(profile, AgentServices{})
	require.Error(t, err)
}

func TestAgentRunLoopsUntilCancelled(t *testing.T) {
	t.Parallel()

	h := newChatterHarness(t, testProfile("ava", "Ava"), nil)
	h.loop.budget = 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.agent.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(h.loop.Durations()) == 3
	}, time.Second, 5*time.Millisecond)

	assert.Len(t, h.gen.Calls(), 2)
	assert.Equal(t, []TaskKey{{Agent: "ava", Date: "2026-10-19"}}, h.tasks.Pending())
	assert.Equal(t, time.Minute, h.loop.Durations()[0])

	cancel()
	require.NoError(t, <-done)
	h.tasks.CancelAll()
	h.tasks.Wait()
}
