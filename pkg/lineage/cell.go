package lineage

// Cell is the host-owned agent a model is attached to. The model only reads and
// writes markers and proliferative state through it.
type Cell interface {
	ID() uint64
	HasProperty(p Property) bool
	AddProperty(p Property)
	RemoveProperty(p Property)
	SetProliferativeType(t ProliferativeType)
	Kill()
}

// RandomSource yields the variates the models consume. Implementations are
// process-wide and seedable; see package rng.
type RandomSource interface {
	// Uniform returns a draw in [0, 1).
	Uniform() float64
	Normal(mean, sd float64) float64
	Gamma(shape, scale float64) float64
}

// Clock reports the current simulation time (hours, or generations for the Boije model).
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() float64

// Now implements Clock.
func (f ClockFunc) Now() float64 { return f() }

// ModeEvent is one row of the mitotic mode event log.
type ModeEvent struct {
	Time   float64
	Seed   uint64
	CellID uint64
	Mode   MitoticMode
}

// EventSink is the append-only event log shared by every cell of a run.
type EventSink interface {
	RecordMode(ev ModeEvent) error
	// RecordSequence appends one mode character to the traced lineage path.
	RecordSequence(mode MitoticMode) error
}

// ColumnWriter is a column-oriented debug recorder. Variables are declared once,
// then rows are filled with index-addressed writes and committed by advancing
// along the unlimited dimension.
type ColumnWriter interface {
	DefineUnlimitedDimension(name, units string) (int, error)
	DefineVariable(name, units string) (int, error)
	EndDefineMode() error
	PutVariable(id int, value float64) error
	AdvanceAlongUnlimitedDimension() error
}

// Logger is the structured logger used across the module. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives per-division observations.
type Metrics interface {
	ObserveDivision(kind Kind, phase int, mode MitoticMode)
	ObserveFate(kind Kind, fate Fate)
	ObserveCycleDuration(kind Kind, duration float64)
}
