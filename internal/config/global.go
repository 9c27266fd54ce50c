// Package config loads pubfold settings from the global YAML file, a .env
// file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matsen/pubfold/internal/dedup"
)

const (
	// AppName is the directory name under the XDG config, cache and data homes.
	AppName = "pubfold"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// ProbeConfig controls PDF link verification.
type ProbeConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	RatePerSecond float64       `yaml:"rate_per_second" json:"rate_per_second"`
	UserAgent     string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	FollowLanding bool          `yaml:"follow_landing" json:"follow_landing"`
}

// Config is the merged runtime configuration.
type Config struct {
	OutDir   string `yaml:"out_dir" json:"out_dir"`
	DryRun   bool   `yaml:"dry_run" json:"dry_run"`
	YearFrom int    `yaml:"year_from" json:"year_from"`
	// BibMinYear is the year window for citation-database input, which
	// historically reaches further back than author feeds.
	BibMinYear int `yaml:"bib_min_year" json:"bib_min_year"`
	FixMinYear int `yaml:"fix_min_year" json:"fix_min_year"`

	ScholarURLs         []string      `yaml:"scholar_urls,omitempty" json:"scholar_urls,omitempty"`
	ScholarURLFile      string        `yaml:"scholar_url_file,omitempty" json:"scholar_url_file,omitempty"`
	FeedDir             string        `yaml:"feed_dir,omitempty" json:"feed_dir,omitempty"`
	SleepBetweenAuthors time.Duration `yaml:"sleep_between_authors" json:"sleep_between_authors"`

	CacheDir string        `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
	StateDB  string        `yaml:"state_db,omitempty" json:"state_db,omitempty"`

	Probe   ProbeConfig   `yaml:"probe" json:"probe"`
	Weights dedup.Weights `yaml:"weights" json:"weights"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutDir:              "content/publication",
		YearFrom:            2024,
		BibMinYear:          2022,
		FixMinYear:          2023,
		SleepBetweenAuthors: 2 * time.Second,
		CacheDir:            filepath.Join(xdg.CacheHome, AppName, "feeds"),
		CacheTTL:            24 * time.Hour,
		StateDB:             filepath.Join(xdg.DataHome, AppName, "state.db"),
		Probe: ProbeConfig{
			Enabled:       true,
			Timeout:       15 * time.Second,
			MaxRetries:    2,
			RatePerSecond: 4,
			FollowLanding: false,
		},
		Weights: dedup.DefaultWeights(),
	}
}

// globalConfigCache caches the loaded config.
var globalConfigCache *Config

// GlobalConfigPath returns the path to the global config file under
// XDG_CONFIG_HOME.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, GlobalConfigFile)
}

// Load reads the global config over the defaults, then applies a .env file
// in the working directory and environment overrides. A missing config file
// is not an error.
func Load() (*Config, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Default()
	if err := loadFile(GlobalConfigPath(), &cfg); err != nil {
		return nil, err
	}
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	cfg.expand()

	globalConfigCache = &cfg
	return &cfg, nil
}

// LoadFile reads an explicit config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return nil, err
	}
	cfg.expand()
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ResetGlobalConfigCache clears the cached config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ApplyEnv overrides cfg from environment variables read through getenv.
// SLEEP_BETWEEN_AUTHORS is in seconds and may be fractional.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("SCHOLAR_URLS"); v != "" {
		cfg.ScholarURLs = splitList(v)
	}
	if v := getenv("YEAR_FROM"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("YEAR_FROM: %w", err)
		}
		cfg.YearFrom = n
	}
	if v := getenv("OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := getenv("DRY_RUN"); v != "" {
		cfg.DryRun = v == "1" || strings.EqualFold(v, "true")
	}
	if v := getenv("SLEEP_BETWEEN_AUTHORS"); v != "" {
		secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || secs < 0 {
			return fmt.Errorf("SLEEP_BETWEEN_AUTHORS: invalid value %q", v)
		}
		cfg.SleepBetweenAuthors = time.Duration(secs * float64(time.Second))
	}
	if v := getenv("FEED_DIR"); v != "" {
		cfg.FeedDir = v
	}
	return nil
}

// splitList splits on commas and newlines.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) expand() {
	c.OutDir = ExpandPath(c.OutDir)
	c.FeedDir = ExpandPath(c.FeedDir)
	c.ScholarURLFile = ExpandPath(c.ScholarURLFile)
	c.CacheDir = ExpandPath(c.CacheDir)
	c.StateDB = ExpandPath(c.StateDB)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
