package ports

import "context"

// SecretStore keeps generation API keys addressed by refs such as
// "pcast/generation/api_key". Get fails when the ref holds no value.
type SecretStore interface {
	Get(ctx context.Context, ref string) (string, error)
	Put(ctx context.Context, ref string, value string) error
	Delete(ctx context.Context, ref string) error
}
