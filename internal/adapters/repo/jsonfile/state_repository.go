package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/persona-cast/internal/ports"
	"github.com/spf13/viper"
)

const (
	StatePathKey = "state.path"

	configDir     = ".pcast"
	stateFileName = "state.json"
)

// StateRepository stores the process state as one free-form JSON object.
type StateRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.StateRepository = (*StateRepository)(nil)

func NewStateRepository(cfg *viper.Viper) (*StateRepository, error) {
	path, err := resolvePath(cfg, StatePathKey, stateFileName)
	if err != nil {
		return nil, err
	}

	return &StateRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *StateRepository) Path() string {
	return r.path
}

func (r *StateRepository) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	document := map[string]any{}
	if _, err := readJSON(r.path, "state", &document); err != nil {
		return nil, err
	}
	if document == nil {
		document = map[string]any{}
	}

	return document, nil
}

func (r *StateRepository) Save(ctx context.Context, document map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if document == nil {
		document = map[string]any{}
	}

	return writeJSON(r.path, "state", document)
}

// resolvePath reads key from cfg, defaulting to ~/.pcast/<fileName>.
func resolvePath(cfg *viper.Viper, key, fileName string) (string, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	if cfg.GetString(key) == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SetDefault(key, filepath.Join(homeDir, configDir, fileName))
	}

	return normalizePath(cfg.GetString(key))
}
