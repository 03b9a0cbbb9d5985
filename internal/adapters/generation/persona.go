package generation

import (
	"fmt"
	"strings"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
)

// systemPrompt frames the persona for chat-style backends.
func systemPrompt(agent domain.AgentID, gen ports.GenerationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a regular in a small group chat.", agent)
	if gen.Channel != "" {
		fmt.Fprintf(&b, " You are posting in #%s.", gen.Channel)
	}
	if gen.Theme != "" {
		fmt.Fprintf(&b, " Today's loose theme is %q.", gen.Theme)
	}
	switch gen.Role {
	case domain.RoleLead:
		b.WriteString(" You are leading the conversation today, so feel free to start topics.")
	case domain.RoleSupport:
		b.WriteString(" You are backing up today's lead, so build on what others say.")
	case domain.RoleRest:
		b.WriteString(" You are taking it easy today; keep it brief.")
	}
	b.WriteString(" Write one or two casual sentences. Never mention being an AI. Reply with nothing if you have nothing to add.")

	return b.String()
}
