// Package config loads puzzlectl settings from defaults, an optional YAML
// file and PUZZLE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hailam/chesspuzzles/internal/rules"
)

// ErrInvalidConfig is matched by every error from Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Delays are the display pauses between session steps.
type Delays struct {
	Preload time.Duration `yaml:"preload"`
	Reply   time.Duration `yaml:"reply"`
	Revert  time.Duration `yaml:"revert"`
	Advance time.Duration `yaml:"advance"`
}

type Config struct {
	// DataDir holds the local database. Empty means the platform default.
	DataDir string `yaml:"data_dir"`
	// APIURL, when set, stores puzzles through the remote service instead
	// of the local database.
	APIURL     string        `yaml:"api_url"`
	APITimeout time.Duration `yaml:"api_timeout"`
	// Oracle selects the rules implementation: "builtin" or "library".
	Oracle   string `yaml:"oracle"`
	LogLevel string `yaml:"log_level"`
	// Realtime makes the driver sleep through step delays.
	Realtime      bool   `yaml:"realtime"`
	Delays        Delays `yaml:"delays"`
	VerifyWorkers int    `yaml:"verify_workers"`
	CacheSize     int    `yaml:"cache_size"`
}

func Default() Config {
	return Config{
		APITimeout: 10 * time.Second,
		Oracle:     rules.KindBuiltin,
		LogLevel:   "info",
		Delays: Delays{
			Preload: 500 * time.Millisecond,
			Reply:   500 * time.Millisecond,
			Revert:  600 * time.Millisecond,
			Advance: 300 * time.Millisecond,
		},
		VerifyWorkers: 4,
		CacheSize:     1024,
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvDataDir  = "PUZZLE_DATA_DIR"
	EnvAPIURL   = "PUZZLE_API_URL"
	EnvOracle   = "PUZZLE_ORACLE"
	EnvLogLevel = "PUZZLE_LOG_LEVEL"
	EnvRealtime = "PUZZLE_REALTIME"
)

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvDataDir); ok {
		c.DataDir = v
	}
	if v, ok := os.LookupEnv(EnvAPIURL); ok {
		c.APIURL = v
	}
	if v, ok := os.LookupEnv(EnvOracle); ok {
		c.Oracle = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvRealtime); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvRealtime, v)
		}
		c.Realtime = b
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := rules.New(c.Oracle); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log level %q", c.LogLevel))
	}
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api url %q", c.APIURL))
		}
	}
	if c.APITimeout < 0 {
		errs = append(errs, fmt.Errorf("api timeout %s", c.APITimeout))
	}
	for name, d := range map[string]time.Duration{
		"preload": c.Delays.Preload,
		"reply":   c.Delays.Reply,
		"revert":  c.Delays.Revert,
		"advance": c.Delays.Advance,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s delay %s", name, d))
		}
	}
	if c.VerifyWorkers < 0 {
		errs = append(errs, fmt.Errorf("verify workers %d", c.VerifyWorkers))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache size %d", c.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
