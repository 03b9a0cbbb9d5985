package application

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/bnema/persona-cast/internal/domain"
)

const (
	defaultSpontaneousPrompt = `You are {{.Agent}}, chatting in a small group. Tone: {{.Tone}}.{{if .Style}} Style: {{.Style}}.{{end}}
Today you are the {{.Role}} of the group.{{if .Theme}} Today's theme is {{.Theme}}.{{end}}
Start a short, casual message to the group in #{{.Channel}}. Keep it to one or two sentences.`

	defaultReplyPrompt = `You are {{.Agent}}, chatting in a small group. Tone: {{.Tone}}.{{if .Style}} Style: {{.Style}}.{{end}}
Today you are the {{.Role}} of the group.{{if .Theme}} Today's theme is {{.Theme}}.{{end}}
{{.Author}} just wrote in #{{.Channel}}: "{{.Message}}"
Reply briefly and naturally, as yourself.`

	defaultSignoffPrompt = `You are {{.Agent}}. Tone: {{.Tone}}.
It is getting late and you are heading offline. Say a short goodbye to the group in #{{.Channel}}.`
)

// PromptData is what every prompt template can reference.
type PromptData struct {
	Agent   string
	Tone    string
	Style   string
	Role    domain.Role
	Theme   string
	Channel domain.ChannelID
	Author  string
	Message string
}

type promptKind string

const (
	promptSpontaneous promptKind = "spontaneous"
	promptReply       promptKind = "reply"
	promptSignoff     promptKind = "signoff"
)

type PromptSet struct {
	templates map[promptKind]*template.Template
}

// NewPromptSet parses the persona's templates, using the built-in wording for any left empty.
func NewPromptSet(agent domain.AgentID, prompts domain.PromptTemplates) (*PromptSet, error) {
	sources := map[promptKind]string{
		promptSpontaneous: orDefault(prompts.Spontaneous, defaultSpontaneousPrompt),
		promptReply:       orDefault(prompts.Reply, defaultReplyPrompt),
		promptSignoff:     orDefault(prompts.Signoff, defaultSignoffPrompt),
	}

	set := &PromptSet{templates: make(map[promptKind]*template.Template, len(sources))}
	for kind, source := range sources {
		tmpl, err := template.New(string(agent) + "/" + string(kind)).Option("missingkey=zero").Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt for %s: %w", kind, agent, err)
		}
		set.templates[kind] = tmpl
	}

	return set, nil
}

func (s *PromptSet) render(kind promptKind, data PromptData) (string, error) {
	tmpl, ok := s.templates[kind]
	if !ok {
		return "", fmt.Errorf("unknown prompt kind %q", kind)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return strings.TrimSpace(out.String()), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
