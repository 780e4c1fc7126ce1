// Package config loads run configuration: which model variant to build, its
// parameters, and where logs, debug rows, metrics and artifacts go.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"lineagecore/internal/blob"
	"lineagecore/internal/debugrec"
	"lineagecore/internal/eventlog"
	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/lineage"
)

// MetricsDriver names a metrics backend.
type MetricsDriver string

const (
	MetricsNone       MetricsDriver = "none"
	MetricsExpvar     MetricsDriver = "expvar"
	MetricsPrometheus MetricsDriver = "prometheus"
)

// RunConfig is the root of a run configuration file.
type RunConfig struct {
	Variant  lineage.Kind `json:"variant" yaml:"variant"`
	Seed     uint64       `json:"seed" yaml:"seed"`
	LogLevel string       `json:"log_level" yaml:"log_level"`

	He    cellcycle.HeParams    `json:"he" yaml:"he"`
	Gomes cellcycle.GomesParams `json:"gomes" yaml:"gomes"`
	Boije cellcycle.BoijeParams `json:"boije" yaml:"boije"`

	KillSpecified   bool `json:"kill_specified" yaml:"kill_specified"`
	SequenceSampler bool `json:"sequence_sampler" yaml:"sequence_sampler"`

	Events  EventsConfig  `json:"events" yaml:"events"`
	Debug   DebugConfig   `json:"debug" yaml:"debug"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Blob    blob.Config   `json:"blob" yaml:"blob"`
}

// EventsConfig enables mode event rows.
type EventsConfig struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	eventlog.Config `yaml:",inline"`
}

// DebugConfig enables per-division debug rows.
type DebugConfig struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	debugrec.Config `yaml:",inline"`
}

// MetricsConfig selects the metrics recorder.
type MetricsConfig struct {
	Driver MetricsDriver `json:"driver" yaml:"driver"`
	// Name is the expvar export name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Default returns the reference configuration: He with published parameters,
// text event log, debug and metrics off, filesystem artifacts.
func Default() *RunConfig {
	return &RunConfig{
		Variant:  lineage.KindHe,
		Seed:     0,
		LogLevel: "info",
		He:       cellcycle.DefaultHeParams(),
		Gomes:    cellcycle.DefaultGomesParams(),
		Boije:    cellcycle.DefaultBoijeParams(),
		Events: EventsConfig{Config: eventlog.Config{
			Driver: eventlog.DriverText,
			Path:   eventlog.DefaultTextPath,
		}},
		Debug: DebugConfig{Config: debugrec.Config{
			Format: debugrec.FormatText,
			Path:   "debug.dat",
		}},
		Metrics: MetricsConfig{Driver: MetricsNone},
		Blob:    blob.Config{Driver: blob.DriverFilesystem},
	}
}

// LoadFromFile reads a YAML file over the defaults, then applies environment
// overrides.
func LoadFromFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (*RunConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults with environment overrides applied.
func Load() (*RunConfig, error) {
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies LINEAGECORE_* overrides that are set.
func (c *RunConfig) ApplyEnv() error {
	if v := os.Getenv("LINEAGECORE_VARIANT"); v != "" {
		c.Variant = lineage.Kind(v)
	}
	if v := os.Getenv("LINEAGECORE_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LINEAGECORE_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("LINEAGECORE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LINEAGECORE_EVENTS_DRIVER"); v != "" {
		c.Events.Driver = eventlog.Driver(v)
		c.Events.Enabled = v != string(eventlog.DriverNone)
	}
	if v := os.Getenv("LINEAGECORE_EVENTS_PATH"); v != "" {
		c.Events.Path = v
	}
	if v := os.Getenv("LINEAGECORE_EVENTS_DSN"); v != "" {
		c.Events.DSN = v
	}
	if v := os.Getenv("LINEAGECORE_METRICS_DRIVER"); v != "" {
		c.Metrics.Driver = MetricsDriver(v)
	}
	b, err := blob.ApplyEnv(c.Blob)
	if err != nil {
		return err
	}
	c.Blob = b
	return nil
}

// Params returns the parameters of the selected variant.
func (c *RunConfig) Params() (cellcycle.Params, error) {
	switch c.Variant {
	case lineage.KindHe:
		return c.He, nil
	case lineage.KindGomes:
		return c.Gomes, nil
	case lineage.KindBoije:
		return c.Boije, nil
	}
	return nil, fmt.Errorf("unknown variant %q", c.Variant)
}

// EventStartTime returns the selected variant's event time offset.
func (c *RunConfig) EventStartTime() float64 {
	switch c.Variant {
	case lineage.KindGomes:
		return c.Gomes.EventStartTime
	case lineage.KindBoije:
		return c.Boije.EventStartTime
	default:
		return c.He.EventStartTime
	}
}

var validLevels = map[string]bool{"": true, "trace": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate checks driver names and the selected variant's parameters.
func (c *RunConfig) Validate() error {
	var errs []error
	if _, err := lineage.ParseKind(string(c.Variant)); err != nil {
		errs = append(errs, err)
	} else if p, err := c.Params(); err != nil {
		errs = append(errs, err)
	} else if err := p.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%s parameters: %w", c.Variant, err))
	}
	if !validLevels[c.LogLevel] {
		errs = append(errs, fmt.Errorf("invalid log level %q (valid: trace, debug, info, warn, error)", c.LogLevel))
	}
	if c.Events.Enabled {
		if _, err := eventlog.ParseDriver(string(c.Events.Driver)); err != nil {
			errs = append(errs, err)
		}
		if c.Events.Driver == eventlog.DriverPostgres && c.Events.DSN == "" {
			errs = append(errs, errors.New("events: postgres driver requires a dsn"))
		}
	}
	if c.Debug.Enabled {
		switch c.Debug.Format {
		case "", debugrec.FormatText, debugrec.FormatMemory, debugrec.FormatSQLite:
		default:
			errs = append(errs, fmt.Errorf("unknown debug format %q", c.Debug.Format))
		}
	}
	switch c.Metrics.Driver {
	case "", MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		errs = append(errs, fmt.Errorf("unknown metrics driver %q", c.Metrics.Driver))
	}
	if err := c.Blob.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
