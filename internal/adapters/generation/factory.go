package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderEcho      = "echo"
	ProviderNone      = "none"

	defaultOllamaURL = "http://localhost:11434"
)

var ErrMissingAPIKey = errors.New("api key not configured")

type Settings struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKeyEnv   string
	APIKeyRef   string
	MaxTokens   int
	Temperature float64
}

// New builds the generator named by settings.Provider. Hosted providers need
// an API key, looked up by ResolveAPIKey.
func New(ctx context.Context, settings Settings, secrets ports.SecretStore, logger *zap.Logger) (ports.TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Provider)) {
	case ProviderOpenAI:
		apiKey, err := ResolveAPIKey(ctx, settings, secrets)
		if err != nil {
			return nil, err
		}
		return NewOpenAIGenerator(apiKey, settings, logger), nil

	case ProviderOllama:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		settings.BaseURL = baseURL
		// Ollama ignores the key but the client requires one.
		return NewOpenAIGenerator("ollama", settings, logger), nil

	case ProviderAnthropic, "claude":
		apiKey, err := ResolveAPIKey(ctx, settings, secrets)
		if err != nil {
			return nil, err
		}
		return NewAnthropicGenerator(apiKey, settings, logger), nil

	case ProviderEcho, "":
		return EchoGenerator{}, nil

	case ProviderNone:
		return SilentGenerator{}, nil

	default:
		return nil, fmt.Errorf("unsupported generation provider %q", settings.Provider)
	}
}

// ResolveAPIKey reads the environment variable APIKeyEnv first and falls back
// to the secret store entry APIKeyRef.
func ResolveAPIKey(ctx context.Context, settings Settings, secrets ports.SecretStore) (string, error) {
	if settings.APIKeyEnv != "" {
		if value := strings.TrimSpace(os.Getenv(settings.APIKeyEnv)); value != "" {
			return value, nil
		}
	}

	if settings.APIKeyRef == "" || secrets == nil {
		return "", fmt.Errorf("%w for provider %s: set %s or store a secret", ErrMissingAPIKey, settings.Provider, settings.APIKeyEnv)
	}

	value, err := secrets.Get(ctx, settings.APIKeyRef)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w for provider %s: %w", ErrMissingAPIKey, settings.Provider, err)
	}

	return value, nil
}
