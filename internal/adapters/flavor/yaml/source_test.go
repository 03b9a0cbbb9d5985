package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type indexRandom int

func (r indexRandom) Float64() float64 { return 0 }
func (r indexRandom) IntN(n int) int { return int(r) % n }

func writeFlavor(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flavor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndPick(t *testing.T) {
	t.Parallel()

	source, err := Load(writeFlavor(t, `
shared:
  - the old pier
  - "  "
agents:
  ava:
    - that jazz record from last winter
    - Ben's burnt pancakes
  ben: []
`))
	require.NoError(t, err)

	assert.Equal(t, 3, source.Count("ava"))
	assert.Equal(t, 1, source.Count("ben"))

	line, ok := source.Pick("ava", indexRandom(1))
	require.True(t, ok)
	assert.Equal(t, "Ben's burnt pancakes", line)

	line, ok = source.Pick("ava", indexRandom(2))
	require.True(t, ok)
	assert.Equal(t, "the old pier", line)

	line, ok = source.Pick("ben", indexRandom(7))
	require.True(t, ok)
	assert.Equal(t, "the old pier", line)
}

func TestLoadMissingOrEmptyPathIsEmpty(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", filepath.Join(t.TempDir(), "none.yaml")} {
		source, err := Load(path)
		require.NoError(t, err)
		_, ok := source.Pick("ava", indexRandom(0))
		assert.False(t, ok)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := Load(writeFlavor(t, "agents: [unterminated"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "parse flavor file")
}
