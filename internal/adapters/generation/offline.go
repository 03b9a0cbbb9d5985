package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
)

// EchoGenerator needs no network: it answers with the last line of the prompt,
// or with the recalled memory when one was injected.
type EchoGenerator struct{}

var _ ports.TextGenerator = EchoGenerator{}

func (EchoGenerator) Generate(ctx context.Context, agent domain.AgentID, prompt string, gen ports.GenerationContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if gen.Memory != nil {
		return fmt.Sprintf("(%s) that reminds me: %s", agent, gen.Memory.Summary), nil
	}

	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return "", nil
	}

	return fmt.Sprintf("(%s) %s", agent, last), nil
}

// SilentGenerator never produces text, which turns every attempt into a skip.
type SilentGenerator struct{}

var _ ports.TextGenerator = SilentGenerator{}

func (SilentGenerator) Generate(ctx context.Context, _ domain.AgentID, _ string, _ ports.GenerationContext) (string, error) {
	return "", ctx.Err()
}
