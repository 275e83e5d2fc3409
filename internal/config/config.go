package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// Config represents the application configuration.
type Config struct {
	// Logging configuration
	Log LogConfig `toml:"log"`

	// Rating tracks keyed by track name (ranked, bot-match, tournament)
	Tracks map[string]TrackConfig `toml:"tracks"`

	// Simulation configuration
	Simulation SimulationConfig `toml:"simulation"`

	// Roster database configuration
	Storage StorageConfig `toml:"storage"`

	// Chart output configuration
	Chart ChartConfig `toml:"chart"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn or error
}

// TrackConfig contains the rating model parameters of one track.
// Beta and Tau are derived from Sigma (sigma/2 and sigma/100) unless set.
type TrackConfig struct {
	Mu              float64  `toml:"mu"`
	Sigma           float64  `toml:"sigma"`
	DrawProbability float64  `toml:"draw_probability"`
	Beta            *float64 `toml:"beta,omitempty"`
	Tau             *float64 `toml:"tau,omitempty"`
}

// Params returns the rating model parameters of the track.
func (t TrackConfig) Params() trueskill.Params {
	p := trueskill.DerivedParams(t.Mu, t.Sigma, t.DrawProbability)
	if t.Beta != nil {
		p.Beta = *t.Beta
	}
	if t.Tau != nil {
		p.Tau = *t.Tau
	}
	return p
}

// SimulationConfig contains roster and match settings for simulations.
type SimulationConfig struct {
	Players       int      `toml:"players"`        // Roster size for a fresh roster
	Matches       int      `toml:"matches"`        // Free-for-all matches per track
	SkillMean     float64  `toml:"skill_mean"`     // Centre of the hidden skills
	SkillSpread   float64  `toml:"skill_spread"`   // Range of the hidden skills
	Seed          uint64   `toml:"seed"`           // Random seed (0 = random)
	SnapshotEvery int      `toml:"snapshot_every"` // Matches between history snapshots
	Tracks        []string `toml:"tracks"`         // Tracks to simulate
}

// StorageConfig contains roster database settings.
type StorageConfig struct {
	Path        string `toml:"path"`         // SQLite file; empty disables persistence
	AutoMigrate bool   `toml:"auto_migrate"` // Run migrations on open
}

// ChartConfig contains chart output settings.
type ChartConfig struct {
	Output  string `toml:"output"`  // HTML file; empty disables charts
	Players int    `toml:"players"` // Players plotted in the convergence chart
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Tracks: map[string]TrackConfig{
			"ranked":     {Mu: 1700, Sigma: 200},
			"bot-match":  {Mu: 1700, Sigma: 200},
			"tournament": {Mu: 1700, Sigma: 200},
		},
		Simulation: SimulationConfig{
			Players:       64,
			Matches:       200,
			SkillMean:     1700,
			SkillSpread:   640,
			Seed:          0,
			SnapshotEvery: 10,
			Tracks:        []string{"ranked"},
		},
		Storage: StorageConfig{
			Path:        "",
			AutoMigrate: true,
		},
		Chart: ChartConfig{
			Output:  "",
			Players: 8,
		},
	}
}

// DefaultPath returns the path to the configuration file in the user's home directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".skillrating", "config.toml"), nil
}

// Load loads the configuration from path. Returns default config if file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Start from defaults so omitted sections keep their values
	config := DefaultConfig()
	config.Tracks = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if len(config.Tracks) == 0 {
		config.Tracks = DefaultConfig().Tracks
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	for name, track := range c.Tracks {
		if err := track.Params().Validate(); err != nil {
			return fmt.Errorf("track %q: %w", name, err)
		}
	}

	if c.Simulation.Players < 2 {
		return fmt.Errorf("simulation needs at least 2 players: %d", c.Simulation.Players)
	}
	if c.Simulation.Matches < 0 {
		return fmt.Errorf("simulation matches cannot be negative: %d", c.Simulation.Matches)
	}
	if c.Simulation.SkillSpread < 0 {
		return fmt.Errorf("skill spread cannot be negative: %v", c.Simulation.SkillSpread)
	}
	if c.Simulation.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot interval cannot be negative: %d", c.Simulation.SnapshotEvery)
	}
	for _, name := range c.Simulation.Tracks {
		if _, ok := c.Tracks[name]; !ok {
			return fmt.Errorf("simulation track %q is not configured (have %s)", name, strings.Join(c.TrackNames(), ", "))
		}
	}

	if c.Chart.Players < 0 {
		return fmt.Errorf("chart players cannot be negative: %d", c.Chart.Players)
	}

	return nil
}

// TrackNames returns the configured track names in sorted order.
func (c *Config) TrackNames() []string {
	names := make([]string, 0, len(c.Tracks))
	for name := range c.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
