package yaml

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"gopkg.in/yaml.v3"
)

// fileSchema models flavor.yaml; shared lines are open to every agent:
//
//	shared:
//	  - the old pier
//	agents:
//	  ava:
//	    - that jazz record from last winter
type fileSchema struct {
	Shared []string            `yaml:"shared"`
	Agents map[string][]string `yaml:"agents"`
}

// Source picks flavor lines per agent from a YAML file loaded once.
type Source struct {
	shared []string
	agents map[domain.AgentID][]string
}

var _ ports.FlavorSource = (*Source)(nil)

// Load reads path. An empty path or a missing file yields an empty source.
func Load(path string) (*Source, error) {
	source := &Source{agents: map[domain.AgentID][]string{}}
	if strings.TrimSpace(path) == "" {
		return source, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return source, nil
		}
		return nil, fmt.Errorf("read flavor file %s: %w", path, err)
	}

	var file fileSchema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse flavor file %s: %w", path, err)
	}

	source.shared = cleanLines(file.Shared)
	for id, lines := range file.Agents {
		if cleaned := cleanLines(lines); len(cleaned) > 0 {
			source.agents[domain.AgentID(id)] = cleaned
		}
	}

	return source, nil
}

// Pick draws uniformly from the agent's own lines plus the shared ones.
func (s *Source) Pick(agent domain.AgentID, rng ports.Random) (string, bool) {
	own := s.agents[agent]
	total := len(own) + len(s.shared)
	if total == 0 {
		return "", false
	}
	if rng == nil {
		rng = ports.SystemRandom{}
	}

	i := rng.IntN(total)
	if i < len(own) {
		return own[i], true
	}
	return s.shared[i-len(own)], true
}

// Count reports how many lines agent can draw from.
func (s *Source) Count(agent domain.AgentID) int {
	return len(s.agents[agent]) + len(s.shared)
}

func cleanLines(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return cleaned
}
