// Package config loads workspace configuration from a YAML file with
// environment-variable overrides. A missing file is not an error; the
// defaults describe a usable local setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/tasking-workspace/internal/repair"
	"github.com/signalsfoundry/tasking-workspace/internal/scene"
)

// Config holds all tasking-workspace configuration.
type Config struct {
	// API configures the scheduling backend the lock manager talks to.
	API APIConfig `yaml:"api"`

	// Schedule selects which schedule's acquisitions are loaded at
	// startup.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Repair tunes contributor ranking.
	Repair RepairConfig `yaml:"repair"`

	// Scene tunes the highlight bridge.
	Scene SceneConfig `yaml:"scene"`
}

// APIConfig configures the scheduling backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// ScheduleConfig selects the working schedule.
type ScheduleConfig struct {
	ID string `yaml:"id"`
}

// MetricsConfig configures the /metrics listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// RepairConfig tunes how repair-diff contributors are weighted and how
// many are surfaced.
type RepairConfig struct {
	DropWeight      float64 `yaml:"drop_weight"`
	AddWeight       float64 `yaml:"add_weight"`
	MoveWeight      float64 `yaml:"move_weight"`
	RollDeltaScale  float64 `yaml:"roll_delta_scale"`
	TopContributors int     `yaml:"top_contributors"`
}

// SceneConfig tunes the highlight bridge timing knobs.
type SceneConfig struct {
	TimelinePadding string `yaml:"timeline_padding"`
	VisibilityPoll  string `yaml:"visibility_poll"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "15s",
		},
		Schedule: ScheduleConfig{
			ID: "current",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9100",
		},
		Repair: RepairConfig{
			DropWeight:      repair.DefaultDropWeight,
			AddWeight:       repair.DefaultAddWeight,
			MoveWeight:      repair.DefaultMoveWeight,
			RollDeltaScale:  repair.DefaultRollDeltaScale,
			TopContributors: repair.DefaultTopN,
		},
		Scene: SceneConfig{
			TimelinePadding: "2m",
			VisibilityPoll:  "2s",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("WORKSPACE_API_BASE_URL"); url != "" {
		c.API.BaseURL = url
	}
	if id := os.Getenv("WORKSPACE_SCHEDULE_ID"); id != "" {
		c.Schedule.ID = id
	}
	if addr := os.Getenv("WORKSPACE_METRICS_ADDR"); addr != "" {
		c.Metrics.Addr = addr
	}
	if raw := os.Getenv("WORKSPACE_METRICS_ENABLED"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			c.Metrics.Enabled = parsed
		}
	}
}

// Validate rejects configurations the workspace cannot start with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Schedule.ID == "" {
		return fmt.Errorf("schedule.id is required")
	}
	if c.Repair.TopContributors < 0 {
		return fmt.Errorf("repair.top_contributors must not be negative")
	}
	return nil
}

// GetAPITimeout parses the API timeout, defaulting to 15s.
func (c *Config) GetAPITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 15*time.Second)
}

// GetTimelinePadding parses the timeline focus padding.
func (c *Config) GetTimelinePadding() time.Duration {
	return parseDuration(c.Scene.TimelinePadding, scene.DefaultTimelinePadding)
}

// GetVisibilityPoll parses the bridge poll interval.
func (c *Config) GetVisibilityPoll() time.Duration {
	return parseDuration(c.Scene.VisibilityPoll, scene.DefaultVisibilityPoll)
}

// ContributorWeights converts the repair section into ranking weights.
func (c *Config) ContributorWeights() repair.Weights {
	return repair.Weights{
		Drop:           c.Repair.DropWeight,
		Add:            c.Repair.AddWeight,
		Move:           c.Repair.MoveWeight,
		RollDeltaScale: c.Repair.RollDeltaScale,
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
