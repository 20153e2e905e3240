package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"storyscroll/internal/eventbus"
)

// ErrInvalidConfig is returned by Validate for settings the controller cannot run with
var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration that reads and writes as "150ms" in TOML and env
type Duration struct {
	time.Duration
}

// D is shorthand for building a Duration
func D(d time.Duration) Duration { return Duration{d} }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Config represents the application configuration
type Config struct {
	Version      int               `toml:"version"`
	StoryPath    string            `toml:"story_path" env:"STORY"`
	Debounce     DebounceSettings  `toml:"debounce" envPrefix:"DEBOUNCE_"`
	Animation    AnimationSettings `toml:"animation" envPrefix:"ANIMATION_"`
	Verification VerifySettings    `toml:"verification" envPrefix:"VERIFY_"`
	Queue        QueueSettings     `toml:"queue" envPrefix:"QUEUE_"`
	Input        InputSettings     `toml:"input" envPrefix:"INPUT_"`
	UI           UISettings        `toml:"ui" envPrefix:"UI_"`
	Logging      LoggingSettings   `toml:"logging" envPrefix:"LOG_"`
	Session      SessionSettings   `toml:"session" envPrefix:"SESSION_"`
	Browser      BrowserSettings   `toml:"browser" envPrefix:"BROWSER_"`
}

// DebounceSettings configures the navigation gate
type DebounceSettings struct {
	NavigationCooldown Duration `toml:"navigation_cooldown" env:"NAVIGATION_COOLDOWN"`
	AnimationDuration  Duration `toml:"animation_duration" env:"ANIMATION_DURATION"`
	ScrollEndDelay     Duration `toml:"scroll_end_delay" env:"SCROLL_END_DELAY"`
	PreventOverlap     bool     `toml:"prevent_overlap" env:"PREVENT_OVERLAP"`
	TrackMomentum      bool     `toml:"track_momentum" env:"TRACK_MOMENTUM"`
}

// AnimationSettings configures section tweens
type AnimationSettings struct {
	BaseDuration        Duration `toml:"base_duration" env:"BASE_DURATION"`
	MinDuration         Duration `toml:"min_duration" env:"MIN_DURATION"`
	MaxDuration         Duration `toml:"max_duration" env:"MAX_DURATION"`
	Engine              string   `toml:"engine" env:"ENGINE"` // "timeline" or "spring"
	Easing              string   `toml:"easing" env:"EASING"`
	CompletionTolerance float64  `toml:"completion_tolerance" env:"COMPLETION_TOLERANCE"`
}

// VerifySettings configures the periodic state verifier
type VerifySettings struct {
	Interval    Duration `toml:"interval" env:"INTERVAL"`
	StuckBuffer Duration `toml:"stuck_buffer" env:"STUCK_BUFFER"`
	DriftRatio  float64  `toml:"drift_ratio" env:"DRIFT_RATIO"`
}

// QueueSettings configures request deduplication
type QueueSettings struct {
	DedupeWindow Duration `toml:"dedupe_window" env:"DEDUPE_WINDOW"`
}

// InputSettings configures gesture mapping
type InputSettings struct {
	Invert         bool     `toml:"invert" env:"INVERT"`
	WheelThreshold float64  `toml:"wheel_threshold" env:"WHEEL_THRESHOLD"`
	TouchThreshold float64  `toml:"touch_threshold" env:"TOUCH_THRESHOLD"`
	GestureTimeout Duration `toml:"gesture_timeout" env:"GESTURE_TIMEOUT"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowDebug bool `toml:"show_debug" env:"SHOW_DEBUG"`
	FrameRate int  `toml:"frame_rate" env:"FRAME_RATE"`
	Markdown  bool `toml:"markdown" env:"MARKDOWN"`
}

// LoggingSettings configures the zap logger
type LoggingSettings struct {
	Level  string   `toml:"level" env:"LEVEL"`
	Output []string `toml:"output" env:"OUTPUT" envSeparator:","`
}

// SessionSettings configures position persistence. An empty RedisURL disables it.
type SessionSettings struct {
	RedisURL  string   `toml:"redis_url" env:"REDIS_URL"`
	KeyPrefix string   `toml:"key_prefix" env:"KEY_PREFIX"`
	TTL       Duration `toml:"ttl" env:"TTL"`
}

// BrowserSettings configures the chromedp surface
type BrowserSettings struct {
	SectionSelector string   `toml:"section_selector" env:"SECTION_SELECTOR"`
	Headless        bool     `toml:"headless" env:"HEADLESS"`
	Timeout         Duration `toml:"timeout" env:"TIMEOUT"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a new config service rooted in the user config dir
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "storyscroll", "config.toml"),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

// NewConfigServiceAt creates a config service for an explicit file
func NewConfigServiceAt(path string, bus eventbus.EventBus) ConfigService {
	return &configService{bus: bus, filePath: path}
}

// Load loads the configuration from file, falling back to defaults when the
// file does not exist. Environment overrides are applied last.
func (cs *configService) Load() (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		cfg, err = cs.LoadFromPath(cs.filePath)
		if err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}

	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}

	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// OverlayFile is the per-story settings file looked up next to a story
const OverlayFile = ".storyscroll.toml"

// Overlay applies the keys present in the file at path onto cfg. A missing
// file is not an error.
func Overlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read overlay: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse overlay %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays STORYSCROLL_* environment variables onto cfg
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "STORYSCROLL_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings that make the controller meaningless
func (c *Config) Validate() error {
	switch {
	case c.Debounce.NavigationCooldown.Duration < 0:
		return fmt.Errorf("%w: debounce.navigation_cooldown must not be negative", ErrInvalidConfig)
	case c.Debounce.ScrollEndDelay.Duration < 0:
		return fmt.Errorf("%w: debounce.scroll_end_delay must not be negative", ErrInvalidConfig)
	case c.Animation.MinDuration.Duration > c.Animation.MaxDuration.Duration:
		return fmt.Errorf("%w: animation.min_duration exceeds max_duration", ErrInvalidConfig)
	case c.Animation.Engine != "timeline" && c.Animation.Engine != "spring":
		return fmt.Errorf("%w: animation.engine %q (want timeline or spring)", ErrInvalidConfig, c.Animation.Engine)
	case c.Verification.Interval.Duration <= 0:
		return fmt.Errorf("%w: verification.interval must be positive", ErrInvalidConfig)
	case c.Verification.DriftRatio <= 0 || c.Verification.DriftRatio >= 1:
		return fmt.Errorf("%w: verification.drift_ratio must be in (0,1)", ErrInvalidConfig)
	case c.UI.FrameRate <= 0:
		return fmt.Errorf("%w: ui.frame_rate must be positive", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Debounce: DebounceSettings{
			NavigationCooldown: D(200 * time.Millisecond),
			AnimationDuration:  D(1500 * time.Millisecond),
			ScrollEndDelay:     D(150 * time.Millisecond),
			PreventOverlap:     true,
			TrackMomentum:      true,
		},
		Animation: AnimationSettings{
			BaseDuration:        D(800 * time.Millisecond),
			MinDuration:         D(300 * time.Millisecond),
			MaxDuration:         D(1500 * time.Millisecond),
			Engine:              "timeline",
			Easing:              "smoothstep",
			CompletionTolerance: 1,
		},
		Verification: VerifySettings{
			Interval:    D(500 * time.Millisecond),
			StuckBuffer: D(500 * time.Millisecond),
			DriftRatio:  0.1,
		},
		Queue: QueueSettings{
			DedupeWindow: D(100 * time.Millisecond),
		},
		Input: InputSettings{
			WheelThreshold: 1,
			TouchThreshold: 50,
			GestureTimeout: D(250 * time.Millisecond),
		},
		UI: UISettings{
			FrameRate: 60,
			Markdown:  true,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Output: []string{"storyscroll.log"},
		},
		Session: SessionSettings{
			KeyPrefix: "storyscroll:position:",
			TTL:       D(30 * 24 * time.Hour),
		},
		Browser: BrowserSettings{
			SectionSelector: "section",
			Headless:        true,
			Timeout:         D(30 * time.Second),
		},
	}
}
