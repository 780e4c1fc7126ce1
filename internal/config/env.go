package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"lineagecore/internal/debugrec"
	"lineagecore/internal/eventlog"
	"lineagecore/internal/observability"
	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/lineage"
	"lineagecore/pkg/rng"
)

// Environment holds the collaborators shared by every model of one run.
type Environment struct {
	Config   *RunConfig
	Source   *rng.Source
	Clock    lineage.Clock
	Logger   *slog.Logger
	Metrics  lineage.Metrics
	Registry *prometheus.Registry
	Expvar   *observability.ExpvarMetrics
	Events   eventlog.Log
	Debug    debugrec.Writer

	binding *cellcycle.DebugBinding
}

// Build validates cfg and opens its sinks. Logs go to logOut. The caller
// must Close the environment.
func Build(ctx context.Context, cfg *RunConfig, clock lineage.Clock, logOut io.Writer) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	env := &Environment{
		Config: cfg,
		Source: rng.New(cfg.Seed),
		Clock:  clock,
		Logger: observability.NewLogger(cfg.LogLevel, logOut),
	}
	switch cfg.Metrics.Driver {
	case MetricsExpvar:
		env.Expvar = observability.NewExpvarMetrics(cfg.Metrics.Name)
		env.Metrics = env.Expvar
	case MetricsPrometheus:
		env.Registry = prometheus.NewRegistry()
		m, err := observability.NewPrometheusMetrics(env.Registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		env.Metrics = m
	}
	if cfg.Events.Enabled {
		log, err := eventlog.Open(ctx, cfg.Events.Config)
		if err != nil {
			return nil, err
		}
		env.Events = log
	}
	if cfg.Debug.Enabled {
		w, err := debugrec.Open(cfg.Debug.Config)
		if err != nil {
			_ = env.Close()
			return nil, err
		}
		env.Debug = w
	}
	env.Logger.Debug("environment ready",
		"variant", string(cfg.Variant),
		"seed", cfg.Seed,
		"events", cfg.Events.Enabled,
		"debug", cfg.Debug.Enabled,
		"metrics", string(cfg.Metrics.Driver),
	)
	return env, nil
}

// NewModel builds a founder model with every configured output enabled. The
// first model defines the debug schema; later ones reuse it.
func (e *Environment) NewModel() (*cellcycle.Model, error) {
	p, err := e.Config.Params()
	if err != nil {
		return nil, err
	}
	opts := []cellcycle.Option{
		cellcycle.WithRandom(e.Source),
		cellcycle.WithLogger(e.Logger),
	}
	if e.Clock != nil {
		opts = append(opts, cellcycle.WithClock(e.Clock))
	}
	if e.Metrics != nil {
		opts = append(opts, cellcycle.WithMetrics(e.Metrics))
	}
	if e.Events != nil {
		opts = append(opts, cellcycle.WithEventSink(e.Events))
	}
	m, err := cellcycle.New(p, opts...)
	if err != nil {
		return nil, err
	}
	if e.Events != nil {
		m.EnableModeEventOutput(e.Config.EventStartTime(), e.Config.Seed)
	}
	if e.Config.KillSpecified {
		m.EnableKillSpecified()
	}
	if e.Debug != nil {
		if e.binding == nil {
			b, err := m.EnableDebugOutput(e.Debug)
			if err != nil {
				return nil, err
			}
			e.binding = &b
		} else if err := m.PassDebugWriter(e.Debug, *e.binding); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Close closes the event log and debug writer.
func (e *Environment) Close() error {
	var errs []error
	if e.Events != nil {
		if err := e.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event log: %w", err))
		}
	}
	if e.Debug != nil {
		if err := e.Debug.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close debug writer: %w", err))
		}
	}
	return errors.Join(errs...)
}
