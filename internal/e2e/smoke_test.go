package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runPcast(t, binaryPath, home, "", "config", "init")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runPcast(t, binaryPath, home, "", "memory", "record", "--who", "mika", "--tag", "tea", "Mika", "brewed", "oolong")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runPcast(t, binaryPath, home, "", "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Mika (mika)")
	assert.Contains(t, stdout, "memories: 1")
}

func TestSmokeRunAnswersStdin(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	config := `version = 1

[generation]
provider = "echo"

[[agents]]
id = "ava"
name = "Ava"
wake = [0]
sleep = [0]
home_channel = "general"

[agents.chance]
reply = 1.0
`
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".pcast"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".pcast", "config.toml"), []byte(config), 0o600))

	stdout, stderr, err := runPcast(t, binaryPath, home, "sam: ava, tea time?\n", "run", "--duration", "15s")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "#general <Ava> (ava) Reply briefly")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "pcast-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pcast")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build pcast binary: %s", string(output))
	return binaryPath
}

func runPcast(t *testing.T, binaryPath, home, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "PCAST_CONFIG=")
	cmd.Stdin = strings.NewReader(stdin)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
