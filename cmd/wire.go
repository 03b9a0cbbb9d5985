package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	consolechannel "github.com/bnema/persona-cast/internal/adapters/channel/console"
	tomlconfig "github.com/bnema/persona-cast/internal/adapters/config/toml"
	yamlflavor "github.com/bnema/persona-cast/internal/adapters/flavor/yaml"
	"github.com/bnema/persona-cast/internal/adapters/generation"
	statusadapter "github.com/bnema/persona-cast/internal/adapters/render/status"
	"github.com/bnema/persona-cast/internal/adapters/repo/jsonfile"
	chainstore "github.com/bnema/persona-cast/internal/adapters/secrets/chain"
	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const configEnv = "PCAST_CONFIG"

type rootOptions struct {
	configPath string
	verbose    bool
}

// app is everything a command needs, built once per invocation from the config.
type app struct {
	config         tomlconfig.Loaded
	cast           domain.Cast
	pacing         application.PacingConfig
	maintenance    application.MaintenanceConfig
	genTimeout     time.Duration
	stateRepo      *jsonfile.StateRepository
	memoryRepo     *jsonfile.MemoryRepository
	secretStore    ports.SecretStore
	logger         *zap.Logger
	statusRenderer func(application.CastStatus, statusadapter.Options) (string, error)
	newGenerator   func(ctx context.Context) (ports.TextGenerator, error)
	clock          ports.Clock
}

type appHolder struct {
	opts *rootOptions
	app  *app
}

// get wires the app on first use so that flags are parsed before the config is read.
func (h *appHolder) get() (*app, error) {
	if h.app != nil {
		return h.app, nil
	}

	a, err := wireApp(*h.opts)
	if err != nil {
		return nil, err
	}
	h.app = a
	return a, nil
}

func (h *appHolder) close() {
	if h.app != nil {
		_ = h.app.logger.Sync()
	}
}

func wireApp(opts rootOptions) (*app, error) {
	configPath := opts.configPath
	if configPath == "" {
		configPath = os.Getenv(configEnv)
	}

	loaded, err := tomlconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	cast, err := loaded.File.Cast()
	if err != nil {
		return nil, fmt.Errorf("wire cast: %w", err)
	}
	pacing, err := loaded.File.Pacing()
	if err != nil {
		return nil, fmt.Errorf("wire pacing: %w", err)
	}
	maintenance, err := loaded.File.Maintenance()
	if err != nil {
		return nil, fmt.Errorf("wire maintenance: %w", err)
	}
	genTimeout, err := loaded.File.Generation.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("wire generation: %w", err)
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return nil, err
	}

	stateRepo, err := jsonfile.NewStateRepository(loaded.Viper)
	if err != nil {
		return nil, fmt.Errorf("wire state repository: %w", err)
	}
	memoryRepo, err := jsonfile.NewMemoryRepository(loaded.Viper)
	if err != nil {
		return nil, fmt.Errorf("wire memory repository: %w", err)
	}

	secretStore, err := chainstore.Open(chainstore.Settings{
		Backend:    loaded.File.Secrets.Backend,
		PassBinary: loaded.File.Secrets.PassBin,
		Dir:        loaded.File.Secrets.Dir,
	}, logger.Named("secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	settings := generationSettings(loaded.File.Generation)
	a := &app{
		config:         loaded,
		cast:           cast,
		pacing:         pacing,
		maintenance:    maintenance,
		genTimeout:     genTimeout,
		stateRepo:      stateRepo,
		memoryRepo:     memoryRepo,
		secretStore:    secretStore,
		logger:         logger,
		statusRenderer: statusadapter.Render,
		clock:          ports.SystemClock{},
	}
	a.newGenerator = func(ctx context.Context) (ports.TextGenerator, error) {
		return generation.New(ctx, settings, secretStore, logger.Named("generation"))
	}

	return a, nil
}

func generationSettings(section tomlconfig.GenerationSection) generation.Settings {
	return generation.Settings{
		Provider:    section.Provider,
		Model:       section.Model,
		BaseURL:     section.BaseURL,
		APIKeyEnv:   section.APIKeyEnv,
		APIKeyRef:   section.APIKeyRef,
		MaxTokens:   section.MaxTokens,
		Temperature: section.Temperature,
	}
}

// orchestrator builds and loads the runtime. Messages are written to out; the
// text backend is only built when withGenerator is set.
func (a *app) orchestrator(ctx context.Context, out io.Writer, withGenerator bool) (*application.Orchestrator, error) {
	router, err := consolechannel.NewRouter(a.cast, out, a.clock, a.logger.Named("channel"))
	if err != nil {
		return nil, fmt.Errorf("wire channel router: %w", err)
	}

	flavor, err := yamlflavor.Load(a.config.Viper.GetString("flavor.path"))
	if err != nil {
		return nil, fmt.Errorf("wire flavor source: %w", err)
	}

	var generator ports.TextGenerator
	if withGenerator {
		if generator, err = a.newGenerator(ctx); err != nil {
			return nil, fmt.Errorf("wire generator: %w", err)
		}
	}

	orchestrator, err := application.NewOrchestrator(application.Options{
		Cast:              a.cast,
		StateRepo:         a.stateRepo,
		MemoryRepo:        a.memoryRepo,
		Generator:         generator,
		Router:            router,
		Flavor:            flavor,
		Clock:             a.clock,
		Logger:            a.logger,
		Pacing:            a.pacing,
		Maintenance:       a.maintenance,
		GenerationTimeout: a.genTimeout,
	})
	if err != nil {
		return nil, err
	}

	orchestrator.Load(ctx)
	return orchestrator, nil
}

func withApp(h *appHolder, run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := h.get()
		if err != nil {
			return err
		}
		return run(cmd, args, a)
	}
}
