package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

// Store tries primary first and falls back to the second backend, except on
// context cancellation.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	logger   *zap.Logger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore, logger *zap.Logger) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{primary: primary, fallback: fallback, logger: logger}, nil
}

func (s *Store) Put(ctx context.Context, ref string, value string) error {
	return s.try(ctx, "put", ref, func(store ports.SecretStore) error {
		return store.Put(ctx, ref, value)
	})
}

func (s *Store) Get(ctx context.Context, ref string) (string, error) {
	var value string
	err := s.try(ctx, "get", ref, func(store ports.SecretStore) error {
		var err error
		value, err = store.Get(ctx, ref)
		return err
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	return s.try(ctx, "delete", ref, func(store ports.SecretStore) error {
		return store.Delete(ctx, ref)
	})
}

func (s *Store) try(ctx context.Context, op, ref string, call func(ports.SecretStore) error) error {
	err := call(s.primary)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) || ctx.Err() != nil {
		return err
	}

	s.logger.Debug("secret primary backend failed, trying fallback",
		zap.String("op", op),
		zap.String("ref", ref),
		zap.Error(err))

	fallbackErr := call(s.fallback)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("%s secret %q: primary backend: %w; fallback backend: %w", op, ref, err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
