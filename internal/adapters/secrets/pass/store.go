package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/persona-cast/internal/ports"
)

const defaultBinary = "pass"

var (
	ErrUnavailable   = errors.New("pass command unavailable")
	ErrFieldNotFound = errors.New("field not found in pass entry")
)

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store reads and writes entries of the standard unix password store.
//
// A ref may name a field of a multi-line entry with "entry#field": the value
// is then read from a "field: value" line after the password line, so
// "providers/openai#api_key" reads the api_key line of providers/openai.
type Store struct {
	binary string
	run    runFunc
}

var _ ports.SecretStore = (*Store)(nil)

// NewStore uses binary, or "pass" from PATH when binary is empty.
func NewStore(binary string) *Store {
	if strings.TrimSpace(binary) == "" {
		binary = defaultBinary
	}

	s := &Store{binary: binary}
	s.run = s.runPass
	return s
}

// Available reports whether the pass binary can be found.
func (s *Store) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

func (s *Store) Put(ctx context.Context, ref string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, field, hasField := splitRef(ref)
	if hasField {
		return fmt.Errorf("pass put %q: writing the %q field of an entry is not supported", ref, field)
	}

	_, stderr, err := s.run(ctx, value+"\n", "insert", "-m", "-f", entry)
	if err != nil {
		return formatError("put", ref, err, stderr)
	}

	return nil
}

// Get returns the password line of the entry, or the named field.
func (s *Store) Get(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, field, hasField := splitRef(ref)
	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		return "", formatError("get", ref, err, stderr)
	}

	if hasField {
		return fieldValue(stdout, field, ref)
	}

	first, _, _ := strings.Cut(stdout, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", fmt.Errorf("pass get %q: entry is empty", ref)
	}

	return first, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, _, _ := splitRef(ref)
	_, stderr, err := s.run(ctx, "", "rm", "-f", entry)
	if err != nil {
		return formatError("delete", ref, err, stderr)
	}

	return nil
}

func splitRef(ref string) (entry, field string, hasField bool) {
	entry, field, hasField = strings.Cut(ref, "#")
	field = strings.TrimSpace(field)
	return entry, field, hasField && field != ""
}

func fieldValue(content, field, ref string) (string, error) {
	lines := strings.Split(content, "\n")
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), field) {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return "", fmt.Errorf("pass get %q: field %q is empty", ref, field)
		}
		return value, nil
	}

	return "", fmt.Errorf("pass get %q: %w: %s", ref, ErrFieldNotFound, field)
}

func (s *Store) runPass(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath(s.binary)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate %s command: %w", s.binary, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, ref string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, ref, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, ref, err, stderr)
}
