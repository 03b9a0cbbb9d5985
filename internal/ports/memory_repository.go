package ports

import (
	"context"

	"github.com/bnema/persona-cast/internal/domain"
)

type MemoryRepository interface {
	List(ctx context.Context) ([]domain.MemoryEvent, error)
	ReplaceAll(ctx context.Context, events []domain.MemoryEvent) error
}
