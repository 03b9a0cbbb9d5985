package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

type Trigger string

const (
	TriggerSpontaneous Trigger = "spontaneous"
	TriggerReply       Trigger = "reply"
	TriggerSignoff     Trigger = "signoff"
)

type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipOffline          SkipReason = "offline"
	SkipChance           SkipReason = "chance"
	SkipCooldown         SkipReason = "cooldown"
	SkipSelf             SkipReason = "self"
	SkipUnknownChannel   SkipReason = "unknown-channel"
	SkipEmptyGeneration  SkipReason = "empty-generation"
	SkipGenerationFailed SkipReason = "generation-failed"
	SkipDeliveryFailed   SkipReason = "delivery-failed"
)

const summaryExcerptLen = 120

// Outcome describes what one evaluation did. Err is set for the failure skips only.
type Outcome struct {
	Agent   domain.AgentID
	Trigger Trigger
	Channel domain.ChannelID
	Acted   bool
	Skip    SkipReason
	Text    string
	Chunks  int
	Memory  *domain.MemoryEvent
	Err     error
}

// InboundMessage is a chat line that may trigger reactive replies.
type InboundMessage struct {
	Channel domain.ChannelID
	Author  string
	Text    string
}

// AgentServices are the collaborators shared by every agent in a process.
type AgentServices struct {
	State     *StateStore
	Presence  *PresenceClock
	Rotation  *RotationAssigner
	Cooldowns *CooldownGate
	Memory    *SharedMemoryStore
	Pacer     *MessagePacer
	Tasks     *TaskTable
	Generator ports.TextGenerator
	Router    ports.ChannelRouter
	Flavor    ports.FlavorSource
	Clock     ports.Clock
	Random    ports.Random
	Sleeper   ports.Sleeper
	Logger    *zap.Logger

	GenerationTimeout time.Duration
}

// Agent runs one persona: the unattended chatter loop, reactive replies and the sign-off.
type Agent struct {
	profile domain.AgentProfile
	prompts *PromptSet
	svc     AgentServices
	logger  *zap.Logger
}

func NewAgent(profile domain.AgentProfile, svc AgentServices) (*Agent, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	prompts, err := NewPromptSet(profile.ID, profile.Prompts)
	if err != nil {
		return nil, err
	}

	if svc.Clock == nil {
		svc.Clock = ports.SystemClock{}
	}
	if svc.Random == nil {
		svc.Random = ports.SystemRandom{}
	}
	if svc.Sleeper == nil {
		svc.Sleeper = ports.SystemSleeper{}
	}
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}

	return &Agent{
		profile: profile,
		prompts: prompts,
		svc:     svc,
		logger:  svc.Logger.With(zap.String("agent", string(profile.ID))),
	}, nil
}

func (a *Agent) Profile() domain.AgentProfile {
	return a.profile
}

// NextWait draws the pause before the next evaluation from [ChatterMin, ChatterMax].
func (a *Agent) NextWait() time.Duration {
	lo, hi := a.profile.Intervals.ChatterMin, a.profile.Intervals.ChatterMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(a.svc.Random.Float64()*float64(hi-lo))
}

// Run loops Waiting → Evaluate until ctx is cancelled. Cancellation is not an error.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("chatter loop started")
	defer a.logger.Info("chatter loop stopped")

	for {
		if err := a.svc.Sleeper.Sleep(ctx, a.NextWait()); err != nil {
			return nil
		}

		outcome := a.Evaluate(ctx)
		a.logOutcome(outcome)

		if ctx.Err() != nil {
			return nil
		}
		a.scheduleSignoff(ctx)
	}
}

// Evaluate is one tick of the spontaneous path.
func (a *Agent) Evaluate(ctx context.Context) Outcome {
	outcome := Outcome{Agent: a.profile.ID, Trigger: TriggerSpontaneous, Channel: a.profile.HomeChannel}

	if !a.svc.Presence.IsOnline(ctx, a.profile) {
		return a.skip(outcome, SkipOffline, nil)
	}
	if a.svc.Random.Float64() >= a.profile.Chance.Spontaneous {
		return a.skip(outcome, SkipChance, nil)
	}

	channel, err := a.svc.Router.Channel(a.profile.ID, outcome.Channel)
	if err != nil {
		return a.skip(outcome, SkipUnknownChannel, err)
	}

	data := a.promptData(outcome.Channel)
	prompt, err := a.prompts.render(promptSpontaneous, data)
	if err != nil {
		return a.skip(outcome, SkipGenerationFailed, err)
	}

	prompt, memory := a.svc.Memory.RecallOrEnrichPrompt(a.profile.ID, prompt, a.profile.StyleTags)
	outcome.Memory = memory

	gen := ports.GenerationContext{Channel: outcome.Channel, Memory: memory, Theme: data.Theme, Role: data.Role}
	outcome = a.generateAndDeliver(ctx, outcome, channel, prompt, gen)
	if !outcome.Acted {
		return outcome
	}

	summary := fmt.Sprintf("%s said in #%s: %s", a.profile.DisplayName(), outcome.Channel, excerpt(outcome.Text))
	a.svc.Memory.RememberAfterExchange(ctx, a.profile.ID, summary, a.profile.Tone, a.memoryTags(TriggerSpontaneous, outcome.Channel))
	return outcome
}

// React is the reactive path for one inbound message.
func (a *Agent) React(ctx context.Context, msg InboundMessage) Outcome {
	channelID := msg.Channel
	if channelID == "" {
		channelID = a.profile.HomeChannel
	}
	outcome := Outcome{Agent: a.profile.ID, Trigger: TriggerReply, Channel: channelID}

	if a.isSelf(msg.Author) {
		return a.skip(outcome, SkipSelf, nil)
	}
	if !a.svc.Presence.IsOnline(ctx, a.profile) {
		return a.skip(outcome, SkipOffline, nil)
	}

	chance := a.profile.Chance.Reply
	if a.profile.Mentioned(msg.Text) {
		chance = 1
	}
	if a.svc.Random.Float64() >= chance {
		return a.skip(outcome, SkipChance, nil)
	}

	now := a.svc.Clock.Now()
	if !a.svc.Cooldowns.AllowAll(now,
		GlobalCooldown(a.profile.ID, a.profile.Intervals.GlobalCooldown),
		ChannelCooldown(a.profile.ID, channelID, a.profile.Intervals.ChannelCooldown),
	) {
		return a.skip(outcome, SkipCooldown, nil)
	}
	a.svc.State.Persist(ctx)

	channel, err := a.svc.Router.Channel(a.profile.ID, channelID)
	if err != nil {
		return a.skip(outcome, SkipUnknownChannel, err)
	}

	data := a.promptData(channelID)
	data.Author = msg.Author
	data.Message = msg.Text
	prompt, err := a.prompts.render(promptReply, data)
	if err != nil {
		return a.skip(outcome, SkipGenerationFailed, err)
	}

	gen := ports.GenerationContext{Channel: channelID, Theme: data.Theme, Role: data.Role}
	if a.svc.Random.Float64() < a.profile.Chance.Memory {
		prompt, gen.Memory = a.svc.Memory.RecallOrEnrichPrompt(a.profile.ID, prompt, a.profile.StyleTags)
		outcome.Memory = gen.Memory
	}
	if a.svc.Flavor != nil && a.svc.Random.Float64() < a.profile.Chance.Flavor {
		if flavor, ok := a.svc.Flavor.Pick(a.profile.ID, a.svc.Random); ok {
			gen.Flavor = flavor
			prompt += "\n\nA reference you may weave in: " + flavor
		}
	}

	outcome = a.generateAndDeliver(ctx, outcome, channel, prompt, gen)
	if !outcome.Acted {
		return outcome
	}

	summary := fmt.Sprintf("%s replied to %s in #%s: %s", a.profile.DisplayName(), msg.Author, channelID, excerpt(outcome.Text))
	a.svc.Memory.RememberAfterExchange(ctx, a.profile.ID, summary, a.profile.Tone, a.memoryTags(TriggerReply, channelID))
	a.bumpRelationship(ctx, msg.Author)
	return outcome
}

// Signoff delivers a short goodbye on the home channel. It skips presence and chance.
func (a *Agent) Signoff(ctx context.Context) Outcome {
	outcome := Outcome{Agent: a.profile.ID, Trigger: TriggerSignoff, Channel: a.profile.HomeChannel}

	channel, err := a.svc.Router.Channel(a.profile.ID, outcome.Channel)
	if err != nil {
		return a.skip(outcome, SkipUnknownChannel, err)
	}

	data := a.promptData(outcome.Channel)
	prompt, err := a.prompts.render(promptSignoff, data)
	if err != nil {
		return a.skip(outcome, SkipGenerationFailed, err)
	}

	gen := ports.GenerationContext{Channel: outcome.Channel, Theme: data.Theme, Role: data.Role}
	return a.generateAndDeliver(ctx, outcome, channel, prompt, gen)
}

func (a *Agent) generateAndDeliver(ctx context.Context, outcome Outcome, channel ports.ChatChannel, prompt string, gen ports.GenerationContext) Outcome {
	if a.svc.Generator == nil {
		return a.skip(outcome, SkipEmptyGeneration, nil)
	}

	genCtx := ctx
	if a.svc.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.svc.GenerationTimeout)
		defer cancel()
	}

	text, err := a.svc.Generator.Generate(genCtx, a.profile.ID, prompt, gen)
	if err != nil {
		return a.skip(outcome, SkipGenerationFailed, fmt.Errorf("generate %s text: %w", outcome.Trigger, err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return a.skip(outcome, SkipEmptyGeneration, nil)
	}
	outcome.Text = text

	sent, err := a.svc.Pacer.Say(ctx, text, channel)
	outcome.Chunks = sent
	if err != nil {
		return a.skip(outcome, SkipDeliveryFailed, err)
	}

	outcome.Acted = true
	return outcome
}

// scheduleSignoff registers today's goodbye at the upcoming sleep hour, once per window date.
func (a *Agent) scheduleSignoff(ctx context.Context) {
	if a.svc.Tasks == nil {
		return
	}

	window := a.svc.Presence.Window(ctx, a.profile)
	now := a.svc.Clock.Now()
	if window.Wake == window.Sleep || !window.Online(now.Hour()) {
		return
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), window.Sleep, 0, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}

	key := TaskKey{Agent: a.profile.ID, Date: window.Date}
	if a.svc.Tasks.Schedule(ctx, key, at, func(jobCtx context.Context) {
		a.logOutcome(a.Signoff(jobCtx))
	}) {
		a.logger.Debug("signoff scheduled", zap.Time("at", at), zap.String("date", window.Date))
	}
}

func (a *Agent) bumpRelationship(ctx context.Context, author string) {
	other := domain.AgentID(strings.TrimSpace(author))
	if other == "" {
		return
	}

	a.svc.State.Update(func(state *domain.ProcessState) {
		scores := state.Relationships[a.profile.ID]
		if scores == nil {
			scores = map[domain.AgentID]float64{}
			state.Relationships[a.profile.ID] = scores
		}
		scores[other]++
	})
	a.svc.State.Persist(ctx)
}

func (a *Agent) promptData(channel domain.ChannelID) PromptData {
	data := PromptData{
		Agent:   a.profile.DisplayName(),
		Tone:    a.profile.Tone,
		Style:   strings.Join(a.profile.StyleTags, ", "),
		Role:    domain.RoleSupport,
		Channel: channel,
	}
	if a.svc.Rotation != nil {
		data.Role = a.svc.Rotation.Current().RoleOf(a.profile.ID)
		data.Theme = a.svc.Rotation.Theme()
	}
	return data
}

func (a *Agent) memoryTags(trigger Trigger, channel domain.ChannelID) []string {
	tags := append([]string(nil), a.profile.StyleTags...)
	return append(tags, string(trigger), string(channel))
}

func (a *Agent) isSelf(author string) bool {
	author = strings.TrimSpace(author)
	return strings.EqualFold(author, string(a.profile.ID)) || strings.EqualFold(author, a.profile.DisplayName())
}

func (a *Agent) skip(outcome Outcome, reason SkipReason, err error) Outcome {
	outcome.Acted = false
	outcome.Skip = reason
	outcome.Err = err
	return outcome
}

func (a *Agent) logOutcome(outcome Outcome) {
	fields := []zap.Field{
		zap.String("trigger", string(outcome.Trigger)),
		zap.String("channel", string(outcome.Channel)),
	}

	switch {
	case outcome.Acted:
		a.logger.Info("agent spoke", append(fields, zap.Int("chunks", outcome.Chunks))...)
	case outcome.Err != nil && !errors.Is(outcome.Err, context.Canceled):
		a.logger.Warn("agent skipped", append(fields, zap.String("reason", string(outcome.Skip)), zap.Error(outcome.Err))...)
	default:
		a.logger.Debug("agent skipped", append(fields, zap.String("reason", string(outcome.Skip)))...)
	}
}

func excerpt(text string) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= summaryExcerptLen {
		return string(runes)
	}
	return string(runes[:summaryExcerptLen]) + "..."
}
