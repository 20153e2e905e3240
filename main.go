package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyscroll/internal/config"
	"storyscroll/internal/discovery"
	"storyscroll/internal/eventbus"
	"storyscroll/internal/logging"
	"storyscroll/internal/session"
	"storyscroll/internal/ui"
	"storyscroll/internal/watch"
)

// e2eEnv makes the viewer print a ready marker for the terminal test driver
const e2eEnv = "STORYSCROLL_E2E"

var (
	// Global flags
	configPath string
	verbose    bool

	// view flags
	resume  bool
	noWatch bool
)

var rootCmd = &cobra.Command{
	Use:   "storyscroll [path]",
	Short: "Section-by-section story viewer",
	Long: `storyscroll presents a story one full-screen section at a time.

A story is a directory of markdown files, a single markdown file split on
"---" lines, or a TOML file with [[section]] tables. Each wheel gesture or
key press moves exactly one section.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runView,
}

var viewCmd = &cobra.Command{
	Use:   "view [path]",
	Short: "Open a story in the terminal viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runView,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	for _, cmd := range []*cobra.Command{rootCmd, viewCmd} {
		cmd.Flags().BoolVar(&resume, "resume", false, "resume at the last saved section (needs session.redis_url)")
		cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the story when it changes on disk")
	}

	rootCmd.AddCommand(viewCmd, browseCmd, sectionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// storyArg resolves the story path from args, the config, or the working directory
func storyArg(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg != nil && cfg.StoryPath != "" {
		return cfg.StoryPath
	}
	return "."
}

// loadConfig loads the user config
func loadConfig(bus eventbus.EventBus) (*config.Config, error) {
	var svc config.ConfigService
	if configPath != "" {
		svc = config.NewConfigServiceAt(configPath, bus)
	} else {
		svc = config.NewConfigServiceWithBus(bus)
	}
	return svc.Load()
}

// loadStoryConfig loads the user config, resolves the story path against it
// and applies the overlay found next to the story
func loadStoryConfig(bus eventbus.EventBus, args []string) (*config.Config, string, error) {
	cfg, err := loadConfig(bus)
	if err != nil {
		return nil, "", err
	}
	path := storyArg(args, cfg)

	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if err := config.Overlay(cfg, filepath.Join(dir, config.OverlayFile)); err != nil {
		return nil, "", err
	}
	// environment wins over the story overlay
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func runView(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, path, err := loadStoryConfig(nil, args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	bus := eventbus.New(logger)
	defer bus.Close()

	story, err := discovery.NewDiscoveryService(bus, logger).Load(ctx, path)
	if err != nil {
		return err
	}

	startSection := 0
	if cfg.Session.RedisURL != "" {
		store, err := session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.KeyPrefix, cfg.Session.TTL.Duration)
		if err != nil {
			logger.Warn("session store unavailable", zap.Error(err))
		} else {
			defer store.Close()
			if resume {
				startSection = resumeSection(ctx, store, story.Path, logger)
			}
			stop := session.Track(bus, store, story.Path, logger)
			defer stop()
		}
	} else if resume {
		logger.Info("--resume ignored: session.redis_url is not set")
	}

	if !noWatch {
		w, err := watch.New(story.Path, watch.DefaultDelay, bus, logger)
		if err != nil {
			logger.Warn("story watcher unavailable", zap.Error(err))
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Warn("story watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			logger.Warn("event channel full, dropping event", zap.String("type", string(e.Type())))
		}
	}
	for _, t := range []eventbus.EventType{
		eventbus.EventStoryReloaded,
		eventbus.EventRecovery,
		eventbus.EventEmergencyReset,
		eventbus.EventError,
	} {
		bus.Subscribe(t, forward)
	}

	model, err := ui.NewModel(ui.Options{
		Bus:          bus,
		Events:       eventChan,
		Config:       cfg,
		Logger:       logger.Named("ui"),
		Story:        story,
		StartSection: startSection,
		ReadyMarker:  os.Getenv(e2eEnv) != "",
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	model.SetProgram(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

// resumeSection returns the stored section for story, or 0
func resumeSection(ctx context.Context, store session.PositionStore, story string, log *zap.Logger) int {
	pos, err := store.LoadPosition(ctx, story)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return 0
	case err != nil:
		log.Warn("failed to load position", zap.Error(err))
		return 0
	case pos.Pathname != "" && pos.Pathname != story:
		return 0
	}
	log.Info("resuming", zap.String("story", story), zap.Int("section", pos.Section))
	return pos.Section
}
