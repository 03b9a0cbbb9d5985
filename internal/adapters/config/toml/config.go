package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/go-viper/mapstructure/v2"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName     = "config"
	configType     = "toml"
	configDir      = ".pcast"
	configFileName = "config.toml"
	envPrefix      = "PCAST"
	configFileMode = 0o600
	configDirMode  = 0o700
)

// Loaded is a parsed config plus the viper instance repositories read their paths from.
type Loaded struct {
	Viper *viper.Viper
	File  File
	Path  string
}

// DefaultPath returns ~/.pcast/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, configDir, configFileName), nil
}

// Load reads path, or ~/.pcast/config.toml when path is empty. A missing
// default file yields the built-in defaults. PCAST_* variables override
// scalar keys (PCAST_GENERATION_PROVIDER overrides generation.provider).
func Load(path string) (Loaded, error) {
	cfg := viper.New()
	cfg.SetConfigType(configType)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	defaults := DefaultFile()
	setDefaults(cfg, defaults)

	if path != "" {
		cfg.SetConfigFile(path)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Loaded{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SetConfigName(configName)
		cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return Loaded{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var file File
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := cfg.Unmarshal(&file, viper.DecodeHook(hook)); err != nil {
		return Loaded{}, fmt.Errorf("decode config: %w", err)
	}
	file.applyDefaults()
	if err := file.validateVersion(); err != nil {
		return Loaded{}, err
	}
	if len(file.Agents) == 0 && !cfg.IsSet("agents") {
		file.Agents = defaults.Agents
		if len(file.Rotation.Order) == 0 {
			file.Rotation.Order = defaults.Rotation.Order
		}
	}
	if len(file.Channels) == 0 {
		file.Channels = homeChannels(file.Agents)
	}

	return Loaded{Viper: cfg, File: file, Path: cfg.ConfigFileUsed()}, nil
}

func setDefaults(cfg *viper.Viper, file File) {
	cfg.SetDefault("version", currentSchemaVersion)
	cfg.SetDefault("generation.provider", file.Generation.Provider)
	cfg.SetDefault("generation.model", file.Generation.Model)
	cfg.SetDefault("generation.base_url", file.Generation.BaseURL)
	cfg.SetDefault("generation.api_key_env", file.Generation.APIKeyEnv)
	cfg.SetDefault("generation.api_key_ref", file.Generation.APIKeyRef)
	cfg.SetDefault("generation.timeout", file.Generation.Timeout)
	cfg.SetDefault("generation.max_tokens", file.Generation.MaxTokens)
	cfg.SetDefault("generation.temperature", file.Generation.Temperature)

	cfg.SetDefault("pacing.max_len", file.Pacing.MaxLen)
	cfg.SetDefault("pacing.base", file.Pacing.Base)
	cfg.SetDefault("pacing.per_rune", file.Pacing.PerRune)
	cfg.SetDefault("pacing.cap", file.Pacing.Cap)
	cfg.SetDefault("pacing.jitter_min", file.Pacing.JitterMin)
	cfg.SetDefault("pacing.jitter_max", file.Pacing.JitterMax)
	cfg.SetDefault("pacing.pause_min", file.Pacing.PauseMin)
	cfg.SetDefault("pacing.pause_max", file.Pacing.PauseMax)
	cfg.SetDefault("pacing.coalesce_probability", file.Pacing.CoalesceProbability)

	cfg.SetDefault("rotation.themes", file.Rotation.Themes)
	cfg.SetDefault("rotation.auto_advance", file.Rotation.AutoAdvance)

	cfg.SetDefault("maintenance.interval", file.Maintenance.Interval)
	cfg.SetDefault("maintenance.decay_factor", file.Maintenance.DecayFactor)
	cfg.SetDefault("maintenance.decay_min_keep", file.Maintenance.DecayMinKeep)
	cfg.SetDefault("maintenance.cooldown_retention", file.Maintenance.CooldownRetention)

	cfg.SetDefault("secrets.backend", file.Secrets.Backend)
	cfg.SetDefault("secrets.pass_bin", "")
	cfg.SetDefault("secrets.dir", "")

	cfg.SetDefault("state.path", "")
	cfg.SetDefault("memory.path", "")
	cfg.SetDefault("flavor.path", "")
}

// homeChannels routes every agent home channel to the console transport.
func homeChannels(agents []agentSection) map[string]string {
	channels := map[string]string{}
	for _, agent := range agents {
		if agent.HomeChannel != "" {
			channels[agent.HomeChannel] = "console"
		}
	}

	return channels
}

// Cast converts the agent and routing sections into the runtime cast.
func (f File) Cast() (domain.Cast, error) {
	cast := domain.Cast{
		Themes:   append([]string(nil), f.Rotation.Themes...),
		Channels: make(map[domain.ChannelID]string, len(f.Channels)),
	}
	for id, transport := range f.Channels {
		cast.Channels[domain.ChannelID(id)] = transport
	}
	for _, id := range f.Rotation.Order {
		cast.Order = append(cast.Order, domain.AgentID(id))
	}

	for i, section := range f.Agents {
		profile, err := section.profile()
		if err == nil {
			err = profile.Validate()
		}
		if err != nil {
			return domain.Cast{}, fmt.Errorf("agents[%d]: %w", i, err)
		}
		cast.Agents = append(cast.Agents, profile)
	}

	if err := cast.Validate(); err != nil {
		return domain.Cast{}, err
	}

	return cast, nil
}

func (s agentSection) profile() (domain.AgentProfile, error) {
	wake, err := hourRange("wake", s.Wake)
	if err != nil {
		return domain.AgentProfile{}, err
	}
	sleep, err := hourRange("sleep", s.Sleep)
	if err != nil {
		return domain.AgentProfile{}, err
	}

	var intervals domain.Intervals
	for _, field := range []struct {
		name  string
		value string
		out   *time.Duration
	}{
		{"chatter_min", s.ChatterMin, &intervals.ChatterMin},
		{"chatter_max", s.ChatterMax, &intervals.ChatterMax},
		{"global_cooldown", s.GlobalCooldown, &intervals.GlobalCooldown},
		{"channel_cooldown", s.ChannelCooldown, &intervals.ChannelCooldown},
	} {
		if *field.out, err = parseDuration(field.name, field.value); err != nil {
			return domain.AgentProfile{}, err
		}
	}

	return domain.AgentProfile{
		ID:          domain.AgentID(strings.TrimSpace(s.ID)),
		Name:        s.Name,
		Aliases:     append([]string(nil), s.Aliases...),
		Wake:        wake,
		Sleep:       sleep,
		StyleTags:   append([]string(nil), s.Style...),
		Tone:        s.Tone,
		HomeChannel: domain.ChannelID(s.HomeChannel),
		Chance: domain.Probabilities{
			Spontaneous: s.Chance.Spontaneous,
			Reply:       s.Chance.Reply,
			Memory:      s.Chance.Memory,
			Flavor:      s.Chance.Flavor,
		},
		Intervals: intervals,
		Prompts: domain.PromptTemplates{
			Spontaneous: s.Prompts.Spontaneous,
			Reply:       s.Prompts.Reply,
			Signoff:     s.Prompts.Signoff,
		},
	}, nil
}

// hourRange accepts [lo, hi] or a single fixed hour.
func hourRange(name string, hours []int) (domain.HourRange, error) {
	var r domain.HourRange
	switch len(hours) {
	case 1:
		r = domain.HourRange{Lo: hours[0], Hi: hours[0]}
	case 2:
		r = domain.HourRange{Lo: hours[0], Hi: hours[1]}
	default:
		return domain.HourRange{}, fmt.Errorf("%s: %w: want [lo, hi], got %v", name, domain.ErrInvalidHourRange, hours)
	}

	if err := r.Validate(); err != nil {
		return domain.HourRange{}, fmt.Errorf("%s: %w", name, err)
	}

	return r, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", name, value)
	}

	return d, nil
}

// Pacing converts the pacing section, keeping library defaults for blank fields.
func (f File) Pacing() (application.PacingConfig, error) {
	cfg := application.DefaultPacingConfig()
	if f.Pacing.MaxLen > 0 {
		cfg.MaxChunkLen = f.Pacing.MaxLen
	}
	if f.Pacing.CoalesceProbability < 0 || f.Pacing.CoalesceProbability > 1 {
		return application.PacingConfig{}, fmt.Errorf("pacing coalesce_probability %.2f out of [0,1]", f.Pacing.CoalesceProbability)
	}
	cfg.CoalesceProbability = f.Pacing.CoalesceProbability

	for _, field := range []struct {
		name  string
		value string
		out   *time.Duration
	}{
		{"pacing.base", f.Pacing.Base, &cfg.Base},
		{"pacing.per_rune", f.Pacing.PerRune, &cfg.PerRune},
		{"pacing.cap", f.Pacing.Cap, &cfg.Cap},
		{"pacing.jitter_min", f.Pacing.JitterMin, &cfg.JitterMin},
		{"pacing.jitter_max", f.Pacing.JitterMax, &cfg.JitterMax},
		{"pacing.pause_min", f.Pacing.PauseMin, &cfg.PauseMin},
		{"pacing.pause_max", f.Pacing.PauseMax, &cfg.PauseMax},
	} {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		d, err := parseDuration(field.name, field.value)
		if err != nil {
			return application.PacingConfig{}, err
		}
		*field.out = d
	}

	if cfg.JitterMax < cfg.JitterMin || cfg.PauseMax < cfg.PauseMin {
		return application.PacingConfig{}, errors.New("pacing max bounds must not be below min bounds")
	}

	return cfg, nil
}

func (f File) Maintenance() (application.MaintenanceConfig, error) {
	cfg := application.DefaultMaintenanceConfig()
	cfg.AutoRotate = f.Rotation.AutoAdvance
	if f.Maintenance.DecayFactor != 0 {
		cfg.DecayFactor = f.Maintenance.DecayFactor
	}
	if f.Maintenance.DecayMinKeep != 0 {
		cfg.DecayMinKeep = f.Maintenance.DecayMinKeep
	}

	var err error
	if strings.TrimSpace(f.Maintenance.Interval) != "" {
		if cfg.Interval, err = parseDuration("maintenance.interval", f.Maintenance.Interval); err != nil {
			return application.MaintenanceConfig{}, err
		}
	}
	if strings.TrimSpace(f.Maintenance.CooldownRetention) != "" {
		if cfg.CooldownRetention, err = parseDuration("maintenance.cooldown_retention", f.Maintenance.CooldownRetention); err != nil {
			return application.MaintenanceConfig{}, err
		}
	}

	if cfg.DecayFactor <= 0 || cfg.DecayFactor > 1 {
		return application.MaintenanceConfig{}, fmt.Errorf("maintenance decay_factor %.2f out of (0,1]", cfg.DecayFactor)
	}

	return cfg, nil
}

func (g GenerationSection) TimeoutDuration() (time.Duration, error) {
	return parseDuration("generation.timeout", g.Timeout)
}

// WriteDefault writes the default config to path. Existing files are kept unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	data, err := toml.Marshal(DefaultFile())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(configFileMode); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	return nil
}
