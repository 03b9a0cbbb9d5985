package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKeyRef = "pcast/generation/api_key"

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", apiKeyRef}, args)
			assert.Equal(t, "sk-test\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), apiKeyRef, "sk-test"))
	assert.True(t, called)
}

func TestStoreGetReturnsFirstLine(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", apiKeyRef}, args)
			assert.Empty(t, input)
			return "sk-test\nurl: https://platform.openai.com\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)
}

func TestStoreGetRejectsEmptyEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "\n", "", nil
		},
	}

	_, err := store.Get(context.Background(), apiKeyRef)
	require.Error(t, err)
	assert.ErrorContains(t, err, "entry is empty")
}

func TestStoreDeleteUsesPassRemove(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", apiKeyRef}, args)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), apiKeyRef))
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "pcast/generation/api_key is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), apiKeyRef)
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, "not in the password store")
}

func TestStoreHonoursCanceledContext(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			t.Fatal("pass must not run after cancellation")
			return "", "", nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, apiKeyRef)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreGetReadsNamedField(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "providers/openai"}, args)
			return "account-password\nlogin: me@example.com\nAPI_Key:  sk-field \n", "", nil
		},
	}

	value, err := store.Get(context.Background(), "providers/openai#api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-field", value)

	_, err = store.Get(context.Background(), "providers/openai#org")
	require.ErrorIs(t, err, ErrFieldNotFound)
}

func TestStorePutRejectsFieldRefs(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			t.Fatal("pass must not run for field refs")
			return "", "", nil
		},
	}

	err := store.Put(context.Background(), "providers/openai#api_key", "sk")
	require.Error(t, err)
	assert.ErrorContains(t, err, "not supported")
}

func TestStoreDeleteDropsFieldFromRef(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", "providers/openai"}, args)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), "providers/openai#api_key"))
}

func TestNewStoreMissingBinaryIsUnavailable(t *testing.T) {
	t.Parallel()

	store := NewStore("pcast-no-such-pass-binary")
	assert.False(t, store.Available())

	_, err := store.Get(context.Background(), apiKeyRef)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewStoreDefaultsToPass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pass", NewStore("  ").binary)
}
