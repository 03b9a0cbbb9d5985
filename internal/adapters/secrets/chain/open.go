package chain

import (
	"fmt"
	"strings"

	filestore "github.com/bnema/persona-cast/internal/adapters/secrets/file"
	passstore "github.com/bnema/persona-cast/internal/adapters/secrets/pass"
	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

const (
	BackendAuto = "auto"
	BackendPass = "pass"
	BackendFile = "file"
)

// Settings mirror the [secrets] config section.
type Settings struct {
	Backend    string
	PassBinary string
	Dir        string
}

// Open builds the secret store named by settings.Backend. "auto" (or empty)
// reads pass first and files under Dir second; Dir defaults to ~/.pcast/secrets.
func Open(settings Settings, logger *zap.Logger) (ports.SecretStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := settings.Dir
	if dir == "" {
		root, err := filestore.DefaultRoot()
		if err != nil {
			return nil, err
		}
		dir = root
	}

	switch backend := strings.ToLower(strings.TrimSpace(settings.Backend)); backend {
	case BackendAuto, "":
		pass := passstore.NewStore(settings.PassBinary)
		if !pass.Available() {
			logger.Debug("pass not found, secrets resolve from files", zap.String("dir", dir))
		}
		return NewStore(pass, filestore.NewStore(dir), logger)
	case BackendPass:
		return passstore.NewStore(settings.PassBinary), nil
	case BackendFile:
		return filestore.NewStore(dir), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", settings.Backend)
	}
}
