package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"focuswatch/internal/sampler"
)

// Config holds all application configuration.
type Config struct {
	DataDir string
	DBPath  string

	// Sampling and session tracking.
	PollInterval    time.Duration
	IdleThreshold   time.Duration
	GraceSwitch     time.Duration
	MinSessionWrite time.Duration

	// Analytics boundaries.
	DeepThreshold    time.Duration
	DistractionShort time.Duration
	SwitchPenalty    float64

	// Remote activity feed.
	FeedPollInterval time.Duration
	FeedPageSize     int
	FeedMaxPages     int
	GithubUser       string
	GithubToken      string

	// Sampler probe command lines.
	WindowProbe  string
	IdleProbe    string
	ProbeTimeout time.Duration
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".focuswatch")
	return Config{
		DataDir:          dataDir,
		DBPath:           filepath.Join(dataDir, "focuswatch.db"),
		PollInterval:     250 * time.Millisecond,
		IdleThreshold:    120 * time.Second,
		GraceSwitch:      5 * time.Second,
		MinSessionWrite:  5 * time.Second,
		DeepThreshold:    20 * time.Minute,
		DistractionShort: 90 * time.Second,
		SwitchPenalty:    0.5,
		FeedPollInterval: 60 * time.Second,
		FeedPageSize:     30,
		FeedMaxPages:     3,
		WindowProbe:      sampler.DefaultWindowProbe,
		IdleProbe:        sampler.DefaultIdleProbe,
		ProbeTimeout:     200 * time.Millisecond,
	}, nil
}

// fileConfig mirrors the config.json layout. Durations are
// spelled in the unit named by the key.
type fileConfig struct {
	PollIntervalMs     *int     `json:"poll_interval_ms"`
	IdleThresholdSec   *int     `json:"idle_threshold_sec"`
	GraceSwitchMs      *int     `json:"grace_switch_ms"`
	MinSessionWriteMs  *int     `json:"min_session_write_ms"`
	DeepThresholdMin   *int     `json:"deep_threshold_min"`
	DistractionShort   *int     `json:"distraction_short_sec"`
	SwitchPenalty      *float64 `json:"switch_penalty"`
	FeedPollIntervalMs *int     `json:"feed_poll_interval_ms"`
	FeedPageSize       *int     `json:"feed_page_size"`
	FeedMaxPages       *int     `json:"feed_max_pages"`
	GithubUser         string   `json:"github_user"`
	GithubToken        string   `json:"github_token"`
	WindowProbe        string   `json:"window_probe"`
	IdleProbe          string   `json:"idle_probe"`
}

// Load builds a Config by layering: defaults < config file < env
// < flags. The provided FlagSet must already be parsed by the
// caller. Only flags that were explicitly set override the lower
// layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file, and
// env, without CLI flags. Use this for subcommands that manage
// their own flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// The data dir env var decides where config.json lives, so
	// it applies before the file; the remaining env vars win
	// over the file and apply after it.
	if v := os.Getenv("FOCUSWATCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(cfg.ConfigPath()); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	cfg.DBPath = filepath.Join(cfg.DataDir, "focuswatch.db")
	return cfg, nil
}

// ConfigPath returns the config.json location inside DataDir.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file fileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	c.applyFile(file)
	return nil
}

func (c *Config) applyFile(file fileConfig) {
	if file.PollIntervalMs != nil {
		c.PollInterval = time.Duration(*file.PollIntervalMs) * time.Millisecond
	}
	if file.IdleThresholdSec != nil {
		c.IdleThreshold = time.Duration(*file.IdleThresholdSec) * time.Second
	}
	if file.GraceSwitchMs != nil {
		c.GraceSwitch = time.Duration(*file.GraceSwitchMs) * time.Millisecond
	}
	if file.MinSessionWriteMs != nil {
		c.MinSessionWrite = time.Duration(*file.MinSessionWriteMs) * time.Millisecond
	}
	if file.DeepThresholdMin != nil {
		c.DeepThreshold = time.Duration(*file.DeepThresholdMin) * time.Minute
	}
	if file.DistractionShort != nil {
		c.DistractionShort = time.Duration(*file.DistractionShort) * time.Second
	}
	if file.SwitchPenalty != nil {
		c.SwitchPenalty = *file.SwitchPenalty
	}
	if file.FeedPollIntervalMs != nil {
		c.FeedPollInterval = time.Duration(*file.FeedPollIntervalMs) * time.Millisecond
	}
	if file.FeedPageSize != nil {
		c.FeedPageSize = *file.FeedPageSize
	}
	if file.FeedMaxPages != nil {
		c.FeedMaxPages = *file.FeedMaxPages
	}
	if file.GithubUser != "" {
		c.GithubUser = file.GithubUser
	}
	if file.GithubToken != "" {
		c.GithubToken = file.GithubToken
	}
	if file.WindowProbe != "" {
		c.WindowProbe = file.WindowProbe
	}
	if file.IdleProbe != "" {
		c.IdleProbe = file.IdleProbe
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv("FOCUSWATCH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FOCUSWATCH_GITHUB_USER"); v != "" {
		c.GithubUser = v
	}
	if v := os.Getenv("FOCUSWATCH_GITHUB_TOKEN"); v != "" {
		c.GithubToken = v
	}
}

// RegisterTrackFlags registers track-command flags on fs. The
// caller must call fs.Parse before passing fs to Load.
func RegisterTrackFlags(fs *flag.FlagSet) {
	fs.Int("poll-ms", 250, "Sample interval in milliseconds")
	fs.Int("grace-ms", 5000, "Switch debounce window in milliseconds")
	fs.Int("floor-ms", 5000, "Minimum session duration to persist, in milliseconds")
	fs.String("github-user", "", "GitHub user whose public events to import")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll-ms":
			if ms, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.PollInterval = time.Duration(ms) * time.Millisecond
			}
		case "grace-ms":
			if ms, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.GraceSwitch = time.Duration(ms) * time.Millisecond
			}
		case "floor-ms":
			if ms, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.MinSessionWrite = time.Duration(ms) * time.Millisecond
			}
		case "github-user":
			cfg.GithubUser = f.Value.String()
		}
	})
}
