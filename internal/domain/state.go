package domain

// GlobalScope is the cooldown channel key used for an agent's cross-channel cooldown.
const GlobalScope ChannelID = "*"

const (
	StateKeyRotationIndex   = "rotation_index"
	StateKeyThemeIndex      = "theme_index"
	StateKeySchedules       = "schedules"
	StateKeyCooldowns       = "cooldowns"
	StateKeyRelationships   = "relationships"
	StateKeyLastMaintenance = "last_maintenance"
)

type ProcessState struct {
	RotationIndex   int                               `json:"rotation_index"`
	ThemeIndex      int                               `json:"theme_index"`
	Schedules       map[AgentID]ScheduleWindow        `json:"schedules"`
	Cooldowns       map[AgentID]map[ChannelID]float64 `json:"cooldowns"`
	Relationships   map[AgentID]map[AgentID]float64   `json:"relationships"`
	LastMaintenance string                            `json:"last_maintenance"`

	// Extra holds free-form top-level keys carried through load/save untouched.
	Extra map[string]any `json:"-"`

	// ChatterStarted is process-local and never persisted.
	ChatterStarted map[AgentID]bool `json:"-"`
}

func DefaultState() ProcessState {
	return ProcessState{
		Schedules:      map[AgentID]ScheduleWindow{},
		Cooldowns:      map[AgentID]map[ChannelID]float64{},
		Relationships:  map[AgentID]map[AgentID]float64{},
		Extra:          map[string]any{},
		ChatterStarted: map[AgentID]bool{},
	}
}

// Normalize replaces nil maps so callers can write without checks.
func (s *ProcessState) Normalize() {
	if s.Schedules == nil {
		s.Schedules = map[AgentID]ScheduleWindow{}
	}
	if s.Cooldowns == nil {
		s.Cooldowns = map[AgentID]map[ChannelID]float64{}
	}
	if s.Relationships == nil {
		s.Relationships = map[AgentID]map[AgentID]float64{}
	}
	if s.Extra == nil {
		s.Extra = map[string]any{}
	}
	if s.ChatterStarted == nil {
		s.ChatterStarted = map[AgentID]bool{}
	}
}

func (s ProcessState) Clone() ProcessState {
	out := ProcessState{
		RotationIndex:   s.RotationIndex,
		ThemeIndex:      s.ThemeIndex,
		LastMaintenance: s.LastMaintenance,
		Schedules:       make(map[AgentID]ScheduleWindow, len(s.Schedules)),
		Cooldowns:       make(map[AgentID]map[ChannelID]float64, len(s.Cooldowns)),
		Relationships:   make(map[AgentID]map[AgentID]float64, len(s.Relationships)),
		Extra:           make(map[string]any, len(s.Extra)),
		ChatterStarted:  make(map[AgentID]bool, len(s.ChatterStarted)),
	}
	for id, window := range s.Schedules {
		out.Schedules[id] = window
	}
	for id, scopes := range s.Cooldowns {
		copied := make(map[ChannelID]float64, len(scopes))
		for channel, ts := range scopes {
			copied[channel] = ts
		}
		out.Cooldowns[id] = copied
	}
	for id, others := range s.Relationships {
		copied := make(map[AgentID]float64, len(others))
		for other, score := range others {
			copied[other] = score
		}
		out.Relationships[id] = copied
	}
	for key, value := range s.Extra {
		out.Extra[key] = deepCopyValue(value)
	}
	for id, started := range s.ChatterStarted {
		out.ChatterStarted[id] = started
	}
	return out
}

// Document renders the persisted shape: known keys plus Extra.
func (s ProcessState) Document() map[string]any {
	doc := make(map[string]any, len(s.Extra)+6)
	for key, value := range s.Extra {
		doc[key] = deepCopyValue(value)
	}

	schedules := make(map[string]any, len(s.Schedules))
	for id, window := range s.Schedules {
		schedules[string(id)] = map[string]any{"wake": window.Wake, "sleep": window.Sleep, "date": window.Date}
	}

	cooldowns := make(map[string]any, len(s.Cooldowns))
	for id, scopes := range s.Cooldowns {
		entry := make(map[string]any, len(scopes))
		for channel, ts := range scopes {
			entry[string(channel)] = ts
		}
		cooldowns[string(id)] = entry
	}

	relationships := make(map[string]any, len(s.Relationships))
	for id, others := range s.Relationships {
		entry := make(map[string]any, len(others))
		for other, score := range others {
			entry[string(other)] = score
		}
		relationships[string(id)] = entry
	}

	doc[StateKeyRotationIndex] = s.RotationIndex
	doc[StateKeyThemeIndex] = s.ThemeIndex
	doc[StateKeySchedules] = schedules
	doc[StateKeyCooldowns] = cooldowns
	doc[StateKeyRelationships] = relationships
	doc[StateKeyLastMaintenance] = s.LastMaintenance
	return doc
}

func IsKnownStateKey(key string) bool {
	switch key {
	case StateKeyRotationIndex, StateKeyThemeIndex, StateKeySchedules, StateKeyCooldowns, StateKeyRelationships, StateKeyLastMaintenance:
		return true
	default:
		return false
	}
}

// MergeDocuments overlays loaded on defaults. A top-level key that is a map on both sides
// has its sub-keys merged (loaded wins); anything else is overwritten by loaded.
func MergeDocuments(defaults, loaded map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(loaded))
	for key, value := range defaults {
		merged[key] = deepCopyValue(value)
	}

	for key, value := range loaded {
		base, baseIsMap := merged[key].(map[string]any)
		incoming, incomingIsMap := value.(map[string]any)
		if baseIsMap && incomingIsMap {
			for sub, subValue := range incoming {
				base[sub] = deepCopyValue(subValue)
			}
			merged[key] = base
			continue
		}
		merged[key] = deepCopyValue(value)
	}

	return merged
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = deepCopyValue(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = deepCopyValue(v)
		}
		return out
	default:
		return value
	}
}
