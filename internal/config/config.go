// Package config defines the configuration surface of the standup
// engine. All values are externally supplied (file or STANDUP_*
// environment variables); nothing in here is computed by the engine.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete standup engine configuration
type Config struct {
	// Enabled controls whether scheduled rounds run at all
	Enabled bool `mapstructure:"enabled"`
	// Scope is the identifier of the room/channel a session binds to
	Scope        string             `mapstructure:"scope"`
	Roster       RosterConfig       `mapstructure:"roster"`
	Timing       TimingConfig       `mapstructure:"timing"`
	Signals      SignalConfig       `mapstructure:"signals"`
	Deliverables DeliverablesConfig `mapstructure:"deliverables"`
	Build        BuildConfig        `mapstructure:"build"`
	Generation   GenerationConfig   `mapstructure:"generation"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// RosterConfig pins the canonical turn order. The external participant
// directory is only ever used as an id -> handle lookup table; the
// sequence of a round always comes from Order.
type RosterConfig struct {
	// DirectoryURL is the external participant directory service. The
	// engine uses it only as an id lookup and invocation surface.
	DirectoryURL string `mapstructure:"directory_url"`
	// Order is the canonical turn order (participant ids, first to last)
	Order []string `mapstructure:"order"`
	// DisplayNames maps participant id to the name used in transcripts
	// and call messages. Missing entries fall back to the id.
	DisplayNames map[string]string `mapstructure:"display_names"`
	// MentionIDs maps participant id to a platform mention id. When set,
	// call messages use <@ID> so only that participant is notified.
	MentionIDs map[string]string `mapstructure:"mention_ids"`
}

// TimingConfig holds every timeout and pacing knob of a round
type TimingConfig struct {
	// TurnTimeoutSeconds bounds how long the conductor waits for one
	// participant's reply before recording the turn as silent (default: 90)
	TurnTimeoutSeconds int `mapstructure:"turn_timeout_seconds"`
	// SkipInactivityMinutes is the watchdog window: no state-changing
	// activity for this long force-skips the expected participant (default: 3)
	SkipInactivityMinutes int `mapstructure:"skip_inactivity_minutes"`
	// SessionTimeoutMinutes is the hard session lifetime; past it the
	// session is discarded on the next activity check (default: 30)
	SessionTimeoutMinutes int `mapstructure:"session_timeout_minutes"`
	// TurnDelayMs is a deliberate pacing delay between turns, not error
	// recovery. May be zero. (default: 2000)
	TurnDelayMs int `mapstructure:"turn_delay_ms"`
	// UTCHours are the scheduled run hours, 0-23 (default: [9])
	UTCHours []int `mapstructure:"utc_hours"`
}

// SignalConfig controls cross-participant signal validation
type SignalConfig struct {
	// TrackedAssets are the asset names scanned for directional signals
	// (default: BTC, SOL, HYPE)
	TrackedAssets []string `mapstructure:"tracked_assets"`
	// TranscriptLimit caps how many trailing characters of the transcript
	// are fed to generation calls (default: 8000)
	TranscriptLimit int `mapstructure:"transcript_limit"`
	// PriceURL is an external price service used to record and grade
	// predictions; empty disables prediction tracking
	PriceURL string `mapstructure:"price_url"`
}

// DeliverablesConfig controls where persisted artifacts live
type DeliverablesConfig struct {
	// Dir is the storage root for action items, reports, manifests and
	// learnings. Relative paths resolve against the working directory.
	Dir string `mapstructure:"dir"`
}

// BuildConfig controls execution of build-class action items
type BuildConfig struct {
	// GatewayURL is the external build service; empty disables delegation
	GatewayURL string `mapstructure:"gateway_url"`
	// Fallback enables local generation when the gateway is absent or
	// fails (default: true)
	Fallback bool `mapstructure:"fallback"`
	// ApprovalTypes are item types diverted to pending-approval instead
	// of being executed (default: none)
	ApprovalTypes []string `mapstructure:"approval_types"`
}

// GenerationConfig configures the text-generation collaborator
type GenerationConfig struct {
	// BaseURL of an OpenAI-compatible endpoint
	BaseURL string `mapstructure:"base_url"`
	// APIKey for the endpoint; STANDUP_GENERATION_API_KEY in practice
	APIKey string `mapstructure:"api_key"`
	// SmallModel serves extraction and parsing calls
	SmallModel string `mapstructure:"small_model"`
	// LargeModel serves report and deliverable generation
	LargeModel string `mapstructure:"large_model"`
	// TimeoutSeconds bounds a single generation call (default: 120)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// ToFile writes JSON logs under the deliverables dir instead of stderr
	ToFile bool `mapstructure:"to_file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Enabled: false,
		Scope:   "standup-room",
		Roster: RosterConfig{
			Order: []string{
				"vince", "eliza", "echo", "oracle", "solus",
				"otaku", "sentinel", "clawterm", "naval",
			},
			DisplayNames: map[string]string{
				"vince":    "VINCE",
				"eliza":    "Eliza",
				"echo":     "ECHO",
				"oracle":   "Oracle",
				"solus":    "Solus",
				"otaku":    "Otaku",
				"sentinel": "Sentinel",
				"clawterm": "Clawterm",
				"naval":    "Naval",
			},
			MentionIDs: map[string]string{},
		},
		Timing: TimingConfig{
			TurnTimeoutSeconds:    90,
			SkipInactivityMinutes: 3,
			SessionTimeoutMinutes: 30,
			TurnDelayMs:           2000,
			UTCHours:              []int{9},
		},
		Signals: SignalConfig{
			TrackedAssets:   []string{"BTC", "SOL", "HYPE"},
			TranscriptLimit: 8000,
		},
		Deliverables: DeliverablesConfig{
			Dir: "standup-deliverables",
		},
		Build: BuildConfig{
			GatewayURL:    "",
			Fallback:      true,
			ApprovalTypes: []string{},
		},
		Generation: GenerationConfig{
			BaseURL:        "https://api.openai.com/v1",
			APIKey:         "",
			SmallModel:     "gpt-4o-mini",
			LargeModel:     "gpt-4o",
			TimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			ToFile: true,
		},
	}
}

// TurnTimeout returns the per-turn bounded wait as a time.Duration
func (t *TimingConfig) TurnTimeout() time.Duration {
	return time.Duration(t.TurnTimeoutSeconds) * time.Second
}

// SkipInactivity returns the watchdog skip window as a time.Duration
func (t *TimingConfig) SkipInactivity() time.Duration {
	return time.Duration(t.SkipInactivityMinutes) * time.Minute
}

// SessionTimeout returns the hard session lifetime as a time.Duration
func (t *TimingConfig) SessionTimeout() time.Duration {
	return time.Duration(t.SessionTimeoutMinutes) * time.Minute
}

// TurnDelay returns the inter-turn pacing delay as a time.Duration
// (0 disables pacing)
func (t *TimingConfig) TurnDelay() time.Duration {
	return time.Duration(t.TurnDelayMs) * time.Millisecond
}

// Timeout returns the generation call bound as a time.Duration
func (g *GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// ResolveDir returns the deliverables root as an absolute path,
// resolving relative paths against the working directory.
func (d *DeliverablesConfig) ResolveDir() string {
	dir := d.Dir
	if dir == "" {
		dir = "standup-deliverables"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return dir
	}
	return filepath.Join(wd, dir)
}

// DisplayName returns the display name for a participant id
func (r *RosterConfig) DisplayName(id string) string {
	if name, ok := r.DisplayNames[id]; ok && name != "" {
		return name
	}
	return id
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("enabled", defaults.Enabled)
	viper.SetDefault("scope", defaults.Scope)

	// Roster defaults
	viper.SetDefault("roster.directory_url", defaults.Roster.DirectoryURL)
	viper.SetDefault("roster.order", defaults.Roster.Order)
	viper.SetDefault("roster.display_names", defaults.Roster.DisplayNames)
	viper.SetDefault("roster.mention_ids", defaults.Roster.MentionIDs)

	// Timing defaults
	viper.SetDefault("timing.turn_timeout_seconds", defaults.Timing.TurnTimeoutSeconds)
	viper.SetDefault("timing.skip_inactivity_minutes", defaults.Timing.SkipInactivityMinutes)
	viper.SetDefault("timing.session_timeout_minutes", defaults.Timing.SessionTimeoutMinutes)
	viper.SetDefault("timing.turn_delay_ms", defaults.Timing.TurnDelayMs)
	viper.SetDefault("timing.utc_hours", defaults.Timing.UTCHours)

	// Signal defaults
	viper.SetDefault("signals.tracked_assets", defaults.Signals.TrackedAssets)
	viper.SetDefault("signals.transcript_limit", defaults.Signals.TranscriptLimit)
	viper.SetDefault("signals.price_url", defaults.Signals.PriceURL)

	// Deliverables defaults
	viper.SetDefault("deliverables.dir", defaults.Deliverables.Dir)

	// Build defaults
	viper.SetDefault("build.gateway_url", defaults.Build.GatewayURL)
	viper.SetDefault("build.fallback", defaults.Build.Fallback)
	viper.SetDefault("build.approval_types", defaults.Build.ApprovalTypes)

	// Generation defaults
	viper.SetDefault("generation.base_url", defaults.Generation.BaseURL)
	viper.SetDefault("generation.api_key", defaults.Generation.APIKey)
	viper.SetDefault("generation.small_model", defaults.Generation.SmallModel)
	viper.SetDefault("generation.large_model", defaults.Generation.LargeModel)
	viper.SetDefault("generation.timeout_seconds", defaults.Generation.TimeoutSeconds)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.to_file", defaults.Logging.ToFile)
}

// Load unmarshals the current viper state into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "standup")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".standup"
	}
	return filepath.Join(home, ".config", "standup")
}
