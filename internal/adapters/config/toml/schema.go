package toml

import "fmt"

const currentSchemaVersion = 1

// File mirrors config.toml. Durations are Go duration strings ("45s", "2m").
type File struct {
	Version     int                `mapstructure:"version" toml:"version"`
	State       pathSection        `mapstructure:"state" toml:"state"`
	Memory      pathSection        `mapstructure:"memory" toml:"memory"`
	Generation  GenerationSection  `mapstructure:"generation" toml:"generation"`
	Pacing      pacingSection      `mapstructure:"pacing" toml:"pacing"`
	Rotation    rotationSection    `mapstructure:"rotation" toml:"rotation"`
	Maintenance maintenanceSection `mapstructure:"maintenance" toml:"maintenance"`
	Flavor      pathSection        `mapstructure:"flavor" toml:"flavor"`
	Secrets     SecretsSection     `mapstructure:"secrets" toml:"secrets"`
	Channels    map[string]string  `mapstructure:"channels" toml:"channels"`
	Agents      []agentSection     `mapstructure:"agents" toml:"agents"`
}

func (f *File) applyDefaults() {
	if f.Version == 0 {
		f.Version = currentSchemaVersion
	}
}

func (f File) validateVersion() error {
	if f.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported config schema version %d (current %d)", f.Version, currentSchemaVersion)
	}

	return nil
}

type pathSection struct {
	Path string `mapstructure:"path" toml:"path"`
}

// GenerationSection selects the text backend. The API key comes from the
// environment variable APIKeyEnv first, then from the secret store entry APIKeyRef.
type GenerationSection struct {
	Provider    string  `mapstructure:"provider" toml:"provider"`
	Model       string  `mapstructure:"model" toml:"model"`
	BaseURL     string  `mapstructure:"base_url" toml:"base_url"`
	APIKeyEnv   string  `mapstructure:"api_key_env" toml:"api_key_env"`
	APIKeyRef   string  `mapstructure:"api_key_ref" toml:"api_key_ref"`
	Timeout     string  `mapstructure:"timeout" toml:"timeout"`
	MaxTokens   int     `mapstructure:"max_tokens" toml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" toml:"temperature"`
}

// SecretsSection picks where API keys live: "auto" tries pass and falls back
// to files under Dir, "pass" and "file" use one backend only.
type SecretsSection struct {
	Backend string `mapstructure:"backend" toml:"backend"`
	PassBin string `mapstructure:"pass_bin" toml:"pass_bin,omitempty"`
	Dir     string `mapstructure:"dir" toml:"dir,omitempty"`
}

type pacingSection struct {
	MaxLen              int     `mapstructure:"max_len" toml:"max_len"`
	Base                string  `mapstructure:"base" toml:"base"`
	PerRune             string  `mapstructure:"per_rune" toml:"per_rune"`
	Cap                 string  `mapstructure:"cap" toml:"cap"`
	JitterMin           string  `mapstructure:"jitter_min" toml:"jitter_min"`
	JitterMax           string  `mapstructure:"jitter_max" toml:"jitter_max"`
	PauseMin            string  `mapstructure:"pause_min" toml:"pause_min"`
	PauseMax            string  `mapstructure:"pause_max" toml:"pause_max"`
	CoalesceProbability float64 `mapstructure:"coalesce_probability" toml:"coalesce_probability"`
}

type rotationSection struct {
	Order       []string `mapstructure:"order" toml:"order"`
	Themes      []string `mapstructure:"themes" toml:"themes"`
	AutoAdvance bool     `mapstructure:"auto_advance" toml:"auto_advance"`
}

type maintenanceSection struct {
	Interval          string  `mapstructure:"interval" toml:"interval"`
	DecayFactor       float64 `mapstructure:"decay_factor" toml:"decay_factor"`
	DecayMinKeep      float64 `mapstructure:"decay_min_keep" toml:"decay_min_keep"`
	CooldownRetention string  `mapstructure:"cooldown_retention" toml:"cooldown_retention"`
}

type agentSection struct {
	ID              string         `mapstructure:"id" toml:"id"`
	Name            string         `mapstructure:"name" toml:"name"`
	Aliases         []string       `mapstructure:"aliases" toml:"aliases"`
	Wake            []int          `mapstructure:"wake" toml:"wake"`
	Sleep           []int          `mapstructure:"sleep" toml:"sleep"`
	Style           []string       `mapstructure:"style" toml:"style"`
	Tone            string         `mapstructure:"tone" toml:"tone"`
	HomeChannel     string         `mapstructure:"home_channel" toml:"home_channel"`
	Chance          chanceSection  `mapstructure:"chance" toml:"chance"`
	ChatterMin      string         `mapstructure:"chatter_min" toml:"chatter_min"`
	ChatterMax      string         `mapstructure:"chatter_max" toml:"chatter_max"`
	GlobalCooldown  string         `mapstructure:"global_cooldown" toml:"global_cooldown"`
	ChannelCooldown string         `mapstructure:"channel_cooldown" toml:"channel_cooldown"`
	Prompts         promptsSection `mapstructure:"prompts" toml:"prompts,omitempty"`
}

type chanceSection struct {
	Spontaneous float64 `mapstructure:"spontaneous" toml:"spontaneous"`
	Reply       float64 `mapstructure:"reply" toml:"reply"`
	Memory      float64 `mapstructure:"memory" toml:"memory"`
	Flavor      float64 `mapstructure:"flavor" toml:"flavor"`
}

type promptsSection struct {
	Spontaneous string `mapstructure:"spontaneous" toml:"spontaneous,omitempty"`
	Reply       string `mapstructure:"reply" toml:"reply,omitempty"`
	Signoff     string `mapstructure:"signoff" toml:"signoff,omitempty"`
}
