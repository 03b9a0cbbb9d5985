package ports

import "context"

// StateRepository persists the process state as a free-form JSON document.
type StateRepository interface {
	Load(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, document map[string]any) error
}
