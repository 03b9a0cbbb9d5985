package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type MaintenanceConfig struct {
	Interval          time.Duration
	DecayFactor       float64
	DecayMinKeep      float64
	CooldownRetention time.Duration
	AutoRotate        bool
}

func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Interval:          time.Hour,
		DecayFactor:       DefaultDecayFactor,
		DecayMinKeep:      DefaultDecayMinKeep,
		CooldownRetention: 24 * time.Hour,
	}
}

type Options struct {
	Cast        domain.Cast
	StateRepo   ports.StateRepository
	MemoryRepo  ports.MemoryRepository
	Generator   ports.TextGenerator
	Router      ports.ChannelRouter
	Flavor      ports.FlavorSource
	Clock       ports.Clock
	Random      ports.Random
	Sleeper     ports.Sleeper
	Logger      *zap.Logger
	Pacing      PacingConfig
	Maintenance MaintenanceConfig

	GenerationTimeout time.Duration
}

// Orchestrator owns every service of one process and the agents built on them.
type Orchestrator struct {
	cast        domain.Cast
	state       *StateStore
	presence    *PresenceClock
	rotation    *RotationAssigner
	cooldowns   *CooldownGate
	memory      *SharedMemoryStore
	pacer       *MessagePacer
	tasks       *TaskTable
	agents      map[domain.AgentID]*Agent
	clock       ports.Clock
	sleeper     ports.Sleeper
	maintenance MaintenanceConfig
	logger      *zap.Logger
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if err := opts.Cast.Validate(); err != nil {
		return nil, fmt.Errorf("validate cast: %w", err)
	}
	if opts.StateRepo == nil || opts.MemoryRepo == nil {
		return nil, errors.New("state and memory repositories are required")
	}
	if opts.Router == nil {
		return nil, errors.New("channel router is required")
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Random == nil {
		opts.Random = ports.SystemRandom{}
	}
	if opts.Sleeper == nil {
		opts.Sleeper = ports.SystemSleeper{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Pacing == (PacingConfig{}) {
		opts.Pacing = DefaultPacingConfig()
	}
	if opts.Maintenance == (MaintenanceConfig{}) {
		opts.Maintenance = DefaultMaintenanceConfig()
	}

	state := NewStateStore(opts.StateRepo, opts.Logger)
	schedules := NewScheduleAssigner(state, opts.Random, opts.Logger)

	o := &Orchestrator{
		cast:        opts.Cast,
		state:       state,
		presence:    NewPresenceClock(schedules, state, opts.Clock),
		rotation:    NewRotationAssigner(opts.Cast, state, opts.Clock, opts.Logger),
		cooldowns:   NewCooldownGate(state),
		memory:      NewSharedMemoryStore(opts.MemoryRepo, opts.Clock, opts.Random, opts.Logger),
		pacer:       NewMessagePacer(opts.Pacing, opts.Random, opts.Sleeper, opts.Logger),
		tasks:       NewTaskTable(opts.Clock, opts.Sleeper, opts.Logger),
		agents:      make(map[domain.AgentID]*Agent, len(opts.Cast.Agents)),
		clock:       opts.Clock,
		sleeper:     opts.Sleeper,
		maintenance: opts.Maintenance,
		logger:      opts.Logger,
	}

	svc := AgentServices{
		State:             o.state,
		Presence:          o.presence,
		Rotation:          o.rotation,
		Cooldowns:         o.cooldowns,
		Memory:            o.memory,
		Pacer:             o.pacer,
		Tasks:             o.tasks,
		Generator:         opts.Generator,
		Router:            opts.Router,
		Flavor:            opts.Flavor,
		Clock:             opts.Clock,
		Random:            opts.Random,
		Sleeper:           opts.Sleeper,
		Logger:            opts.Logger,
		GenerationTimeout: opts.GenerationTimeout,
	}
	for _, profile := range opts.Cast.Agents {
		agent, err := NewAgent(profile, svc)
		if err != nil {
			return nil, fmt.Errorf("build agent %s: %w", profile.ID, err)
		}
		o.agents[profile.ID] = agent
	}

	return o, nil
}

// Load reads state and memory. Failures are logged and the defaults stay in place.
func (o *Orchestrator) Load(ctx context.Context) {
	if err := o.state.Load(ctx); err != nil {
		o.logger.Warn("continuing with default state", zap.Error(err))
	}
	if err := o.memory.Load(ctx); err != nil {
		o.logger.Warn("continuing with empty memory", zap.Error(err))
	}
}

func (o *Orchestrator) State() *StateStore { return o.state }
func (o *Orchestrator) Memory() *SharedMemoryStore { return o.memory }
func (o *Orchestrator) Rotation() *RotationAssigner { return o.rotation }
func (o *Orchestrator) Cooldowns() *CooldownGate { return o.cooldowns }
func (o *Orchestrator) Pacer() *MessagePacer { return o.pacer }
func (o *Orchestrator) Tasks() *TaskTable { return o.tasks }
func (o *Orchestrator) Presence() *PresenceClock { return o.presence }
func (o *Orchestrator) Cast() domain.Cast { return o.cast }
func (o *Orchestrator) Agents() map[domain.AgentID]*Agent { return o.agents }

func (o *Orchestrator) Agent(id domain.AgentID) (*Agent, error) {
	agent, ok := o.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, id)
	}
	return agent, nil
}

// Claim marks the agents' chatter loops as started. It fails without marking anything if
// one of them was already claimed in this process.
func (o *Orchestrator) Claim(ids ...domain.AgentID) error {
	for _, id := range ids {
		if _, ok := o.agents[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrAgentNotFound, id)
		}
	}

	var err error
	o.state.Update(func(state *domain.ProcessState) {
		for _, id := range ids {
			if state.ChatterStarted[id] {
				err = fmt.Errorf("%w: %s", domain.ErrChatterAlreadyStarted, id)
				return
			}
		}
		for _, id := range ids {
			state.ChatterStarted[id] = true
		}
	})
	return err
}

// Run starts every agent loop plus the maintenance loop and blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	ids := make([]domain.AgentID, 0, len(o.cast.Agents))
	for _, profile := range o.cast.Agents {
		ids = append(ids, profile.ID)
	}
	if err := o.Claim(ids...); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		agent := o.agents[id]
		g.Go(func() error {
			return agent.Run(gctx)
		})
	}
	g.Go(func() error {
		return o.maintenanceLoop(gctx)
	})

	err := g.Wait()
	o.tasks.CancelAll()
	o.tasks.Wait()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	o.state.Persist(saveCtx)

	return err
}

// Dispatch offers one inbound message to every agent concurrently. Outcomes follow cast order.
func (o *Orchestrator) Dispatch(ctx context.Context, msg InboundMessage) []Outcome {
	if msg.Channel != "" && len(o.cast.Channels) > 0 {
		if _, ok := o.cast.Channels[msg.Channel]; !ok {
			o.logger.Debug("message on unrouted channel", zap.String("channel", string(msg.Channel)))
		}
	}

	outcomes := make([]Outcome, len(o.cast.Agents))
	var wg sync.WaitGroup
	for i, profile := range o.cast.Agents {
		agent := o.agents[profile.ID]
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := agent.React(ctx, msg)
			agent.logOutcome(outcome)
			outcomes[i] = outcome
		}()
	}
	wg.Wait()

	return outcomes
}

type MaintenanceReport struct {
	Date           string
	Daily          bool
	Evicted        int
	PrunedCooldown int
	ForgottenTasks int
	Rotated        bool
	Rotation       domain.RotationAssignment
}

// Maintain runs the housekeeping pass. Decay and auto rotation happen once per date.
func (o *Orchestrator) Maintain(ctx context.Context) (MaintenanceReport, error) {
	now := o.clock.Now()
	today := domain.DateKey(now)
	report := MaintenanceReport{Date: today}

	report.PrunedCooldown = o.cooldowns.Prune(now, o.maintenance.CooldownRetention)
	report.ForgottenTasks = o.tasks.Forget(today)

	var daily, firstRun bool
	o.state.Update(func(state *domain.ProcessState) {
		if state.LastMaintenance == today {
			return
		}
		daily = true
		firstRun = state.LastMaintenance == ""
		state.LastMaintenance = today
	})
	report.Daily = daily

	var errs []error
	if daily {
		evicted, err := o.memory.Decay(ctx, o.maintenance.DecayFactor, o.maintenance.DecayMinKeep)
		if err != nil {
			errs = append(errs, err)
		}
		report.Evicted = evicted

		if o.maintenance.AutoRotate && !firstRun {
			assignment, err := o.rotation.Advance(ctx)
			if err != nil {
				errs = append(errs, err)
			}
			report.Rotated = true
			report.Rotation = assignment
		}
	}
	if !report.Rotated {
		report.Rotation = o.rotation.Current()
	}

	o.state.Persist(ctx)

	o.logger.Info("maintenance done",
		zap.String("date", today),
		zap.Bool("daily", report.Daily),
		zap.Int("evicted", report.Evicted),
		zap.Int("pruned_cooldowns", report.PrunedCooldown),
		zap.Bool("rotated", report.Rotated))

	return report, errors.Join(errs...)
}

func (o *Orchestrator) maintenanceLoop(ctx context.Context) error {
	for {
		if _, err := o.Maintain(ctx); err != nil {
			o.logger.Warn("maintenance failed", zap.Error(err))
		}
		if err := o.sleeper.Sleep(ctx, o.maintenance.Interval); err != nil {
			return nil
		}
	}
}

type AgentStatus struct {
	Profile     domain.AgentProfile
	Window      domain.ScheduleWindow
	Online      bool
	Role        domain.Role
	Started     bool
	LastSpoke   time.Time
	Affinity    map[domain.AgentID]float64
	SignoffDate string
}

type CastStatus struct {
	Now      time.Time
	Rotation domain.RotationAssignment
	Theme    string
	Memories int
	Agents   []AgentStatus
}

// Status reports every agent's window and role. It draws today's windows when missing.
func (o *Orchestrator) Status(ctx context.Context) CastStatus {
	now := o.clock.Now()
	rotation := o.rotation.Current()

	status := CastStatus{
		Now:      now,
		Rotation: rotation,
		Theme:    o.rotation.Theme(),
		Memories: len(o.memory.List()),
		Agents:   make([]AgentStatus, 0, len(o.cast.Agents)),
	}

	pending := map[domain.AgentID]string{}
	for _, key := range o.tasks.Pending() {
		pending[key.Agent] = key.Date
	}

	for _, profile := range o.cast.Agents {
		window := o.presence.Window(ctx, profile)
		snapshot := o.state.Snapshot()

		agent := AgentStatus{
			Profile:     profile,
			Window:      window,
			Online:      window.Online(now.Hour()),
			Role:        rotation.RoleOf(profile.ID),
			Started:     snapshot.ChatterStarted[profile.ID],
			Affinity:    snapshot.Relationships[profile.ID],
			SignoffDate: pending[profile.ID],
		}
		if last, ok := o.cooldowns.Last(profile.ID, domain.GlobalScope); ok {
			agent.LastSpoke = last
		}
		status.Agents = append(status.Agents, agent)
	}

	return status
}
