package cellcycle

import (
	"errors"

	"lineagecore/pkg/lineage"
)

var (
	// ErrNoRandomSource is returned when a model is built without WithRandom.
	ErrNoRandomSource = errors.New("cellcycle: random source is required")
	// ErrDebugSchemaDefined is returned when debug output is enabled twice on one model.
	ErrDebugSchemaDefined = errors.New("cellcycle: debug schema already defined")
	// ErrUnsupported is returned by variant-specific setters called on another variant.
	ErrUnsupported = errors.New("cellcycle: operation not supported by this variant")
)

// deps holds the process-wide collaborators. Clones share the pointer.
type deps struct {
	src     lineage.RandomSource
	clock   lineage.Clock
	sink    lineage.EventSink
	logger  lineage.Logger
	metrics lineage.Metrics
}

// Option configures the collaborators of a model.
type Option func(*deps)

// WithRandom sets the random-variate source. Required.
func WithRandom(src lineage.RandomSource) Option {
	return func(d *deps) { d.src = src }
}

// WithClock sets the simulation clock. Defaults to a clock stuck at zero.
func WithClock(c lineage.Clock) Option {
	return func(d *deps) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithEventSink sets the shared event log used by mode events and the sequence sampler.
func WithEventSink(s lineage.EventSink) Option {
	return func(d *deps) { d.sink = s }
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l lineage.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the division metrics recorder.
func WithMetrics(m lineage.Metrics) Option {
	return func(d *deps) {
		if m != nil {
			d.metrics = m
		}
	}
}

func newDeps(opts []Option) (*deps, error) {
	d := &deps{
		clock:   lineage.ClockFunc(func() float64 { return 0 }),
		logger:  noopLogger{},
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.src == nil {
		return nil, ErrNoRandomSource
	}
	return d, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) ObserveDivision(lineage.Kind, int, lineage.MitoticMode) {}
func (noopMetrics) ObserveFate(lineage.Kind, lineage.Fate)                 {}
func (noopMetrics) ObserveCycleDuration(lineage.Kind, float64)             {}
