// Package appconf holds the run configuration: where to fetch boards from,
// how to identify to the upstream site, where the artifact goes, and the
// serve-mode settings. Values come from defaults, an optional JSON file,
// and CLI flags, in that order.
package appconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// ParseEnvironment accepts the full names and the short forms dev/prod.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev", "development":
		return Development, nil
	case "test":
		return Test, nil
	case "prod", "production":
		return Production, nil
	}
	return "", fmt.Errorf("unknown environment %q", s)
}

// Artifact formats.
const (
	FormatJS   = "js"
	FormatJSON = "json"
)

// MaxDepartures is the hard ceiling on emitted departures.
const MaxDepartures = 8

// SourceConfig describes one station board to scrape.
type SourceConfig struct {
	Label       string `json:"label"`
	Input       string `json:"input"`
	Direction   string `json:"direction,omitempty"`
	MaxJourneys int    `json:"max_journeys,omitempty"`
}

type ServeConfig struct {
	Port              int `json:"port"`
	RateLimit         int `json:"rate_limit"`
	StaleAfterSeconds int `json:"stale_after_seconds"`
	CacheSeconds      int `json:"cache_seconds"`

	// StaticDir, when set, is served under /static/ for the page generator's output.
	StaticDir string `json:"static_dir,omitempty"`
}

type Config struct {
	Env              Environment    `json:"env"`
	Verbose          bool           `json:"verbose"`
	Station          string         `json:"station"`
	Output           string         `json:"output"`
	Format           string         `json:"format,omitempty"`
	BaseURL          string         `json:"base_url"`
	UserAgent        string         `json:"user_agent"`
	TimeoutSeconds   int            `json:"timeout_seconds"`
	LookaheadMinutes int            `json:"lookahead_minutes"`
	MaxDepartures    int            `json:"max_departures"`
	Timezone         string         `json:"timezone,omitempty"`
	Sources          []SourceConfig `json:"sources"`
	Serve            ServeConfig    `json:"serve"`
	MetricsTextfile  string         `json:"metrics_textfile,omitempty"`
}

// Default returns the configuration for the Danshøj / Maribovej board.
func Default() Config {
	return Config{
		Env:              Development,
		Station:          "Danshøj / Maribovej",
		Output:           "trains-data.js",
		BaseURL:          "https://webapp.rejseplanen.dk",
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		TimeoutSeconds:   10,
		LookaheadMinutes: 5,
		MaxDepartures:    MaxDepartures,
		Sources: []SourceConfig{
			{
				Label:       "Trains (Danshøj St.)",
				Input:       "Danshøj St.#8600742",
				Direction:   "København H#8600626",
				MaxJourneys: 7,
			},
			{
				Label:       "Buses (Maribovej)",
				Input:       "Maribovej (Vigerslevvej)#7157",
				MaxJourneys: 7,
			},
		},
		Serve: ServeConfig{
			Port:              8080,
			RateLimit:         10,
			StaleAfterSeconds: 30 * 60,
			CacheSeconds:      60,
		},
	}
}

// LoadFromFile overlays the JSON file at path on Default and validates the
// result. Unknown keys are rejected so typos surface immediately.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Decoding into a populated slice would leave default fields behind in
	// reused elements, so sources start empty and defaults apply only when
	// the file names none.
	defaultSources := cfg.Sources
	cfg.Sources = nil

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Sources == nil {
		cfg.Sources = defaultSources
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case Development, Test, Production:
	default:
		errs = append(errs, fmt.Errorf("env: unknown environment %q", c.Env))
	}
	if strings.TrimSpace(c.Station) == "" {
		errs = append(errs, errors.New("station: required"))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output: required"))
	}
	if c.Format != "" && c.Format != FormatJS && c.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("format: must be %q or %q, got %q", FormatJS, FormatJSON, c.Format))
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("base_url: must be an http(s) URL, got %q", c.BaseURL))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("timeout_seconds: must be positive"))
	}
	if c.LookaheadMinutes < 0 {
		errs = append(errs, errors.New("lookahead_minutes: must not be negative"))
	}
	if c.MaxDepartures < 1 || c.MaxDepartures > MaxDepartures {
		errs = append(errs, fmt.Errorf("max_departures: must be between 1 and %d", MaxDepartures))
	}
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("sources: at least one source is required"))
	}
	for i, src := range c.Sources {
		if strings.TrimSpace(src.Label) == "" {
			errs = append(errs, fmt.Errorf("sources[%d].label: required", i))
		}
		if strings.TrimSpace(src.Input) == "" {
			errs = append(errs, fmt.Errorf("sources[%d].input: required", i))
		}
		if src.MaxJourneys < 0 {
			errs = append(errs, fmt.Errorf("sources[%d].max_journeys: must not be negative", i))
		}
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone: %w", err))
		}
	}
	if c.Serve.StaticDir != "" {
		if info, err := os.Stat(c.Serve.StaticDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("serve.static_dir: not a directory: %q", c.Serve.StaticDir))
		}
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		errs = append(errs, fmt.Errorf("serve.port: out of range: %d", c.Serve.Port))
	}

	return errors.Join(errs...)
}

// Timeout is the per-request fetch timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Lookahead is the offset between now and the board's reference time.
func (c Config) Lookahead() time.Duration {
	return time.Duration(c.LookaheadMinutes) * time.Minute
}

// StaleAfter is how old an artifact may be before serve mode reports it stale.
func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.Serve.StaleAfterSeconds) * time.Second
}

// Location returns the configured timezone, or time.Local when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// OutputFormat resolves the artifact format, inferring it from the output
// file extension when not set explicitly.
func (c Config) OutputFormat() string {
	if c.Format != "" {
		return c.Format
	}
	if strings.EqualFold(filepath.Ext(c.Output), ".json") {
		return FormatJSON
	}
	return FormatJS
}
