package toml

// DefaultFile is the config written by `pcast config init` and used when no file exists.
func DefaultFile() File {
	return File{
		Version: currentSchemaVersion,
		Generation: GenerationSection{
			Provider:    "echo",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			APIKeyRef:   "pcast/generation/api_key",
			Timeout:     "45s",
			MaxTokens:   300,
			Temperature: 0.9,
		},
		Pacing: pacingSection{
			MaxLen:              220,
			Base:                "800ms",
			PerRune:             "40ms",
			Cap:                 "6s",
			JitterMin:           "200ms",
			JitterMax:           "1.2s",
			PauseMin:            "600ms",
			PauseMax:            "1.8s",
			CoalesceProbability: 0.35,
		},
		Rotation: rotationSection{
			Order:  []string{"mika", "rowan"},
			Themes: []string{"weekend plans", "food", "music", "old stories"},
		},
		Maintenance: maintenanceSection{
			Interval:          "1h",
			DecayFactor:       0.95,
			DecayMinKeep:      0.2,
			CooldownRetention: "24h",
		},
		Secrets:  SecretsSection{Backend: "auto"},
		Channels: map[string]string{"general": "console"},
		Agents: []agentSection{
			{
				ID:              "mika",
				Name:            "Mika",
				Aliases:         []string{"mik"},
				Wake:            []int{7, 9},
				Sleep:           []int{22, 1},
				Style:           []string{"music", "food"},
				Tone:            "warm",
				HomeChannel:     "general",
				Chance:          chanceSection{Spontaneous: 0.3, Reply: 0.5, Memory: 0.3, Flavor: 0.2},
				ChatterMin:      "20m",
				ChatterMax:      "90m",
				GlobalCooldown:  "2m",
				ChannelCooldown: "5m",
			},
			{
				ID:              "rowan",
				Name:            "Rowan",
				Aliases:         []string{"ro"},
				Wake:            []int{9, 11},
				Sleep:           []int{23, 2},
				Style:           []string{"books", "old stories"},
				Tone:            "dry",
				HomeChannel:     "general",
				Chance:          chanceSection{Spontaneous: 0.2, Reply: 0.4, Memory: 0.4, Flavor: 0.1},
				ChatterMin:      "30m",
				ChatterMax:      "2h",
				GlobalCooldown:  "3m",
				ChannelCooldown: "6m",
			},
		},
	}
}
