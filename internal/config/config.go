// Package config defines pbpinsights configuration and its loading layers.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pable/go-pbp-insights/internal/aggregator"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogDir enables a rotating log file next to console output when set.
	LogDir        string `koanf:"log_dir"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb"`
	LogMaxBackups int    `koanf:"log_max_backups"`
	LogMaxAgeDays int    `koanf:"log_max_age_days"`

	// Workers bounds how many games are analyzed at once.
	Workers int `koanf:"workers"`

	MinRun            int `koanf:"min_run"`
	MinDeficit        int `koanf:"min_deficit"`
	ComebackThreshold int `koanf:"comeback_threshold"`
	ScoreTolerance    int `koanf:"score_tolerance"`

	// Clutch window: quarter >= ClutchMinQuarter, clock >= ClutchStartSeconds,
	// |gap| <= ClutchMaxGap.
	ClutchMinQuarter   int `koanf:"clutch_min_quarter"`
	ClutchStartSeconds int `koanf:"clutch_start_seconds"`
	ClutchMaxGap       int `koanf:"clutch_max_gap"`

	// Minimum samples for the ranked views.
	MinClutchGames        int `koanf:"min_clutch_games"`
	MinQ4Games            int `koanf:"min_q4_games"`
	MinDistributionEvents int `koanf:"min_distribution_events"`

	// RedisURL and RedisStream configure `analyze --publish`.
	RedisURL    string `koanf:"redis_url"`
	RedisStream string `koanf:"redis_stream"`

	// TeamAliases maps team name variants to their canonical spelling.
	TeamAliases map[string]string `koanf:"team_aliases"`
}

// New returns a Config populated with defaults.
func New() *Config {
	d := aggregator.DefaultOptions()
	return &Config{
		LogLevel:              "info",
		LogMaxSizeMB:          50,
		LogMaxBackups:         5,
		LogMaxAgeDays:         28,
		Workers:               runtime.NumCPU(),
		MinRun:                d.MinRun,
		MinDeficit:            d.MinDeficit,
		ComebackThreshold:     d.ComebackThreshold,
		ScoreTolerance:        d.ScoreTolerance,
		ClutchMinQuarter:      d.Clutch.MinQuarter,
		ClutchStartSeconds:    d.Clutch.StartSeconds,
		ClutchMaxGap:          d.Clutch.MaxGap,
		MinClutchGames:        d.MinClutchGames,
		MinQ4Games:            d.MinQ4Games,
		MinDistributionEvents: d.MinDistributionEvents,
		RedisURL:              "redis://localhost:6379/0",
		RedisStream:           "pbp:insights",
		TeamAliases:           map[string]string{},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.MinRun < 1 {
		return fmt.Errorf("%w: min_run must be >= 1, got %d", ErrInvalidConfig, c.MinRun)
	}
	if c.MinDeficit < 1 {
		return fmt.Errorf("%w: min_deficit must be >= 1, got %d", ErrInvalidConfig, c.MinDeficit)
	}
	if c.ComebackThreshold < 0 || c.ComebackThreshold >= c.MinDeficit {
		return fmt.Errorf("%w: comeback_threshold must be in [0, min_deficit), got %d", ErrInvalidConfig, c.ComebackThreshold)
	}
	if c.ScoreTolerance < 0 {
		return fmt.Errorf("%w: score_tolerance must be >= 0, got %d", ErrInvalidConfig, c.ScoreTolerance)
	}
	if c.ClutchMinQuarter < 1 || c.ClutchStartSeconds < 0 || c.ClutchStartSeconds > 600 || c.ClutchMaxGap < 0 {
		return fmt.Errorf("%w: clutch window q>=%d t>=%d gap<=%d", ErrInvalidConfig, c.ClutchMinQuarter, c.ClutchStartSeconds, c.ClutchMaxGap)
	}
	if c.MinClutchGames < 0 || c.MinQ4Games < 0 || c.MinDistributionEvents < 0 {
		return fmt.Errorf("%w: sample minimums must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// AnalysisOptions converts the thresholds into aggregator options.
func (c *Config) AnalysisOptions() aggregator.Options {
	return aggregator.Options{
		MinRun:            c.MinRun,
		MinDeficit:        c.MinDeficit,
		ComebackThreshold: c.ComebackThreshold,
		ScoreTolerance:    c.ScoreTolerance,
		Clutch: aggregator.ClutchWindow{
			MinQuarter:   c.ClutchMinQuarter,
			StartSeconds: c.ClutchStartSeconds,
			MaxGap:       c.ClutchMaxGap,
		},
		MinClutchGames: c.MinClutchGames,
		MinQ4Games:     c.MinQ4Games,

		MinDistributionEvents: c.MinDistributionEvents,
	}
}
