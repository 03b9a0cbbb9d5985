package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultRecordWeight     = 1.0
	DefaultRecallMaxAgeDays = 120
	DefaultDecayFactor      = 0.95
	DefaultDecayMinKeep     = 0.2

	dedupeWindow   = 20
	recallPoolSize = 6
)

var (
	ErrEmptySummary       = errors.New("memory summary is empty")
	ErrInvalidDecayFactor = errors.New("decay factor must be in (0, 1]")
	ErrNegativeWeight     = errors.New("memory weight must not be negative")
)

// MemoryInput describes an event to record. A nil Weight means DefaultRecordWeight.
type MemoryInput struct {
	Who     domain.AgentID
	Summary string
	Tone    string
	Tags    []string
	Weight  *float64
}

// SharedMemoryStore is the weighted event log every agent reads and writes. The in-memory
// log is authoritative; every mutation is persisted best-effort.
type SharedMemoryStore struct {
	repo   ports.MemoryRepository
	clock  ports.Clock
	rng    ports.Random
	logger *zap.Logger
	newID  func() string

	mu       sync.Mutex
	events   []domain.MemoryEvent
	lastUsed map[domain.AgentID]domain.MemoryID

	persistMu sync.Mutex
}

func NewSharedMemoryStore(repo ports.MemoryRepository, clock ports.Clock, rng ports.Random, logger *zap.Logger) *SharedMemoryStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if rng == nil {
		rng = ports.SystemRandom{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SharedMemoryStore{
		repo:     repo,
		clock:    clock,
		rng:      rng,
		logger:   logger,
		newID:    uuid.NewString,
		lastUsed: map[domain.AgentID]domain.MemoryID{},
	}
}

func (s *SharedMemoryStore) Load(ctx context.Context) error {
	events, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("memory load failed, starting empty", zap.Error(err))
		return fmt.Errorf("load memories: %w", err)
	}

	for i := range events {
		events[i].Weight = domain.ClampWeight(events[i].Weight)
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

func (s *SharedMemoryStore) List() []domain.MemoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneEvents(s.events)
}

// Record appends a new event, or boosts a recent event with the same summary instead.
func (s *SharedMemoryStore) Record(ctx context.Context, input MemoryInput) (domain.MemoryEvent, error) {
	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		return domain.MemoryEvent{}, ErrEmptySummary
	}

	weight := DefaultRecordWeight
	if input.Weight != nil {
		weight = *input.Weight
	}
	if weight < 0 {
		return domain.MemoryEvent{}, fmt.Errorf("%w: %v", ErrNegativeWeight, weight)
	}

	now := s.clock.Now()

	s.mu.Lock()
	var recorded domain.MemoryEvent
	boosted := false
	for i := len(s.events) - 1; i >= 0 && i >= len(s.events)-dedupeWindow; i-- {
		if s.events[i].SameSummary(summary) {
			s.events[i].Weight = domain.ClampWeight(s.events[i].Weight + weight)
			recorded = cloneEvent(s.events[i])
			boosted = true
			break
		}
	}

	if !boosted {
		recorded = domain.MemoryEvent{
			ID:        domain.MemoryID(s.newID()),
			Who:       input.Who,
			Summary:   summary,
			Tone:      strings.TrimSpace(input.Tone),
			Tags:      normalizeTags(input.Tags),
			Weight:    domain.ClampWeight(weight),
			Timestamp: now,
			Date:      domain.DateKey(now),
		}
		s.events = append(s.events, recorded)
		recorded = cloneEvent(recorded)
	}
	s.mu.Unlock()

	s.logger.Debug("memory recorded",
		zap.String("id", string(recorded.ID)),
		zap.String("who", string(recorded.Who)),
		zap.Bool("boosted", boosted),
		zap.Float64("weight", recorded.Weight))

	s.persist(ctx)
	return recorded, nil
}

// Recall scores candidates and returns one picked uniformly from the best few.
func (s *SharedMemoryStore) Recall(preferredTags []string, excludeIDs []domain.MemoryID, maxAgeDays float64) (domain.MemoryEvent, bool) {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultRecallMaxAgeDays
	}

	excluded := make(map[domain.MemoryID]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	type candidate struct {
		event domain.MemoryEvent
		score float64
	}

	now := s.clock.Now()

	s.mu.Lock()
	candidates := make([]candidate, 0, len(s.events))
	for _, event := range s.events {
		if _, skip := excluded[event.ID]; skip {
			continue
		}
		if event.AgeDays(now) > maxAgeDays {
			continue
		}
		candidates = append(candidates, candidate{event: cloneEvent(event), score: event.RecallScore(now, preferredTags)})
	}
	s.mu.Unlock()

	if len(candidates) == 0 {
		return domain.MemoryEvent{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	pool := min(recallPoolSize, len(candidates))
	return candidates[s.rng.IntN(pool)].event, true
}

// Decay scales every weight by factor and evicts events that fall below minKeep.
func (s *SharedMemoryStore) Decay(ctx context.Context, factor, minKeep float64) (int, error) {
	if factor <= 0 || factor > 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDecayFactor, factor)
	}

	s.mu.Lock()
	kept := s.events[:0]
	evicted := 0
	for _, event := range s.events {
		event.Weight = domain.ClampWeight(event.Weight * factor)
		if event.Weight < minKeep {
			evicted++
			continue
		}
		kept = append(kept, event)
	}
	for i := len(kept); i < len(s.events); i++ {
		s.events[i] = domain.MemoryEvent{}
	}
	s.events = kept
	remaining := len(kept)
	s.mu.Unlock()

	s.logger.Info("memory decayed",
		zap.Float64("factor", factor),
		zap.Int("evicted", evicted),
		zap.Int("remaining", remaining))

	s.persist(ctx)
	return evicted, nil
}

// RecallOrEnrichPrompt appends one recalled memory to basePrompt. The memory the agent used
// last is excluded so consecutive prompts vary.
func (s *SharedMemoryStore) RecallOrEnrichPrompt(agent domain.AgentID, basePrompt string, tags []string) (string, *domain.MemoryEvent) {
	s.mu.Lock()
	var exclude []domain.MemoryID
	if last, ok := s.lastUsed[agent]; ok {
		exclude = append(exclude, last)
	}
	s.mu.Unlock()

	event, ok := s.Recall(tags, exclude, DefaultRecallMaxAgeDays)
	if !ok {
		return basePrompt, nil
	}

	s.mu.Lock()
	s.lastUsed[agent] = event.ID
	s.mu.Unlock()

	return basePrompt + "\n\n" + FormatMemory(event), &event
}

// RememberAfterExchange records what an agent just said. Failures are logged, never returned.
func (s *SharedMemoryStore) RememberAfterExchange(ctx context.Context, agent domain.AgentID, summary, tone string, tags []string) {
	if _, err := s.Record(ctx, MemoryInput{Who: agent, Summary: summary, Tone: tone, Tags: tags}); err != nil {
		s.logger.Debug("memory not recorded", zap.String("agent", string(agent)), zap.Error(err))
	}
}

func FormatMemory(event domain.MemoryEvent) string {
	line := fmt.Sprintf("Shared memory (%s, %s): %s", event.Who, event.Date, event.Summary)
	if event.Tone != "" {
		line += fmt.Sprintf(" [tone: %s]", event.Tone)
	}
	return line
}

func (s *SharedMemoryStore) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snapshot := s.List()
	if err := s.repo.ReplaceAll(ctx, snapshot); err != nil {
		s.logger.Warn("memory persist failed", zap.Error(err))
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func cloneEvent(event domain.MemoryEvent) domain.MemoryEvent {
	event.Tags = append([]string(nil), event.Tags...)
	return event
}

func cloneEvents(events []domain.MemoryEvent) []domain.MemoryEvent {
	out := make([]domain.MemoryEvent, len(events))
	for i, event := range events {
		out[i] = cloneEvent(event)
	}
	return out
}
