package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

// StateStore owns the process-wide state. Mutations happen under its lock through Update;
// readers get deep copies from Snapshot.
type StateStore struct {
	repo   ports.StateRepository
	logger *zap.Logger

	mu    sync.Mutex
	state domain.ProcessState
}

func NewStateStore(repo ports.StateRepository, logger *zap.Logger) *StateStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StateStore{repo: repo, logger: logger, state: domain.DefaultState()}
}

// Load merges the persisted document over the default template. On failure the store keeps
// the defaults and the error is returned for the caller to report.
func (s *StateStore) Load(ctx context.Context) error {
	loaded, err := s.repo.Load(ctx)
	if err != nil {
		s.resetInMemory()
		s.logger.Warn("state load failed, using defaults", zap.Error(err))
		return fmt.Errorf("load state: %w", err)
	}

	merged := domain.MergeDocuments(domain.DefaultState().Document(), loaded)
	state, err := decodeState(merged)
	if err != nil {
		s.resetInMemory()
		s.logger.Warn("state decode failed, using defaults", zap.Error(err))
		return fmt.Errorf("decode state: %w", err)
	}

	s.mu.Lock()
	started := s.state.ChatterStarted
	state.ChatterStarted = started
	state.Normalize()
	s.state = state
	s.mu.Unlock()

	return nil
}

func (s *StateStore) Save(ctx context.Context) error {
	s.mu.Lock()
	document := s.state.Document()
	s.mu.Unlock()

	if err := s.repo.Save(ctx, document); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}

// Persist saves and only logs failures; in-memory state stays authoritative.
func (s *StateStore) Persist(ctx context.Context) {
	if err := s.Save(ctx); err != nil {
		s.logger.Warn("state persist failed", zap.Error(err))
	}
}

// Reset restores the compiled-in defaults and writes them immediately.
func (s *StateStore) Reset(ctx context.Context) error {
	s.resetInMemory()
	return s.Save(ctx)
}

func (s *StateStore) Snapshot() domain.ProcessState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// Update applies fn atomically. fn must not block.
func (s *StateStore) Update(fn func(state *domain.ProcessState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Normalize()
	fn(&s.state)
}

func (s *StateStore) resetInMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.state.ChatterStarted
	s.state = domain.DefaultState()
	if started != nil {
		s.state.ChatterStarted = started
	}
}

func decodeState(document map[string]any) (domain.ProcessState, error) {
	state := domain.DefaultState()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &state,
	})
	if err != nil {
		return domain.ProcessState{}, fmt.Errorf("build state decoder: %w", err)
	}

	if err := decoder.Decode(document); err != nil {
		return domain.ProcessState{}, err
	}

	state.Extra = map[string]any{}
	for key, value := range document {
		if domain.IsKnownStateKey(key) {
			continue
		}
		state.Extra[key] = value
	}

	return state, nil
}
