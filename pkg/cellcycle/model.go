package cellcycle

import (
	"fmt"
	"math"

	"lineagecore/pkg/lineage"
)

// variant is the closed set of model behaviours. Implementations live in
// he.go, gomes.go and boije.go.
type variant interface {
	kind() lineage.Kind
	params() Params
	// sampleDuration draws a fresh cycle length at simulation time now.
	sampleDuration(m *Model, now float64) float64
	initialise(m *Model, cell lineage.Cell)
	// decide picks the mode of the current division and returns the debug row
	// and the phase it was taken in.
	decide(m *Model, cell lineage.Cell, now float64) (lineage.MitoticMode, int, []float64)
	// afterReset runs once the parent's next duration has been drawn.
	afterReset(m *Model, cell lineage.Cell)
	initialiseDaughter(m *Model, cell lineage.Cell)
	schema() []Column
	clone() variant
}

// Column is one variable of a debug schema.
type Column struct {
	Name  string
	Units string
}

// DebugBinding is the identifiers returned when a debug schema was defined.
// It lets other models append to the same writer without redefining it.
type DebugBinding struct {
	TimeID int
	VarIDs []int
}

type debugOutput struct {
	w       lineage.ColumnWriter
	binding DebugBinding
}

type eventOutput struct {
	enabled bool
	start   float64
	seed    uint64
}

// Model is the cell-cycle model owned by one cell. Clone it at division and
// hand the copy to the new cell.
type Model struct {
	deps *deps
	v    variant

	duration   float64
	birthTime  float64
	ready      bool
	generation uint
	mode       lineage.MitoticMode

	seq    Sequencer
	events eventOutput
	debug  *debugOutput
	kill   bool
}

// New builds a model for any variant's parameter set.
func New(p Params, opts ...Option) (*Model, error) {
	if p == nil {
		return nil, fmt.Errorf("cellcycle: nil params")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d, err := newDeps(opts)
	if err != nil {
		return nil, err
	}
	var v variant
	switch tp := p.(type) {
	case HeParams:
		v = newHe(tp)
	case *HeParams:
		v = newHe(*tp)
	case GomesParams:
		v = &gomes{p: tp}
	case *GomesParams:
		v = &gomes{p: *tp}
	case BoijeParams:
		v = &boije{p: tp}
	case *BoijeParams:
		v = &boije{p: *tp}
	default:
		return nil, fmt.Errorf("cellcycle: unsupported params type %T", p)
	}
	m := &Model{deps: d, v: v, birthTime: d.clock.Now(), duration: GenerationDuration}
	if v.kind() == lineage.KindHe {
		// He lineages begin with a division.
		m.ready = true
	}
	return m, nil
}

// NewHe builds a multi-phase shifted-gamma model.
func NewHe(p HeParams, opts ...Option) (*Model, error) { return New(p, opts...) }

// NewGomes builds a log-normal model.
func NewGomes(p GomesParams, opts ...Option) (*Model, error) { return New(p, opts...) }

// NewBoije builds a generation-indexed model.
func NewBoije(p BoijeParams, opts ...Option) (*Model, error) { return New(p, opts...) }

// Kind reports the variant.
func (m *Model) Kind() lineage.Kind { return m.v.kind() }

// Params returns a copy of the current parameters, including any boundary
// drift accumulated in deterministic mode.
func (m *Model) Params() Params { return m.v.params() }

// CycleDuration returns the current cycle length; lineage.Infinite once the
// cell has left the cycle.
func (m *Model) CycleDuration() float64 { return m.duration }

// Terminal reports whether the cell has permanently left the cycle.
func (m *Model) Terminal() bool { return m.duration == lineage.Infinite }

// SetCycleDuration draws a fresh cycle length at the current time.
func (m *Model) SetCycleDuration() {
	m.duration = m.drawDuration(m.deps.clock.Now())
}

// Mode returns the mode of the most recent division.
func (m *Model) Mode() lineage.MitoticMode { return m.mode }

// Generation returns the number of divisions in the lineage so far.
func (m *Model) Generation() uint { return m.generation }

// SetGeneration seeds the generation counter of a founder cell.
func (m *Model) SetGeneration(g uint) { m.generation = g }

// BirthTime returns the time of the last division, or of construction.
func (m *Model) BirthTime() float64 { return m.birthTime }

// SetBirthTime overrides the birth time of a founder cell.
func (m *Model) SetBirthTime(t float64) { m.birthTime = t }

// Sequencer returns the sampler state.
func (m *Model) Sequencer() Sequencer { return m.seq }

// ReadyToDivide reports whether the cell should divide at time now.
func (m *Model) ReadyToDivide(now float64) bool {
	if !m.ready && !m.Terminal() && now-m.birthTime >= m.duration {
		m.ready = true
	}
	return m.ready
}

// Initialise prepares a founder cell. Call once, before its first division.
func (m *Model) Initialise(cell lineage.Cell) {
	cell.SetProliferativeType(lineage.TypeTransit)
	m.v.initialise(m, cell)
}

// ResetForDivision runs on the parent immediately before the host clones the
// model. It decides the mode, records it, draws the parent's next duration and
// applies any parent-side conversion.
func (m *Model) ResetForDivision(cell lineage.Cell) {
	now := m.deps.clock.Now()
	mode, phase, row := m.v.decide(m, cell, now)
	m.mode = mode

	m.writeDebug(now, row)
	m.writeEvent(cell, now)

	m.birthTime = now
	m.ready = false
	m.duration = m.drawDuration(now)

	m.v.afterReset(m, cell)
	m.seq.atDivision(cell, mode, m.deps.src, m.recordSequence)

	m.deps.metrics.ObserveDivision(m.Kind(), phase, mode)
	m.deps.logger.Debug("cell divided",
		"variant", m.Kind().String(),
		"cell", cell.ID(),
		"phase", phase,
		"mode", mode.String(),
	)
}

// Clone returns an independent copy for the new daughter cell. Collaborators
// are shared; all lineage state is copied.
func (m *Model) Clone() *Model {
	c := *m
	c.v = m.v.clone()
	if m.debug != nil {
		d := *m.debug
		d.binding.VarIDs = append([]int(nil), m.debug.binding.VarIDs...)
		c.debug = &d
	}
	return &c
}

// InitialiseDaughterCell runs once on the clone after the host has copied the
// parent's cell properties onto the new cell.
func (m *Model) InitialiseDaughterCell(cell lineage.Cell) {
	m.v.initialiseDaughter(m, cell)
	m.seq.forDaughter(cell)
}

// EnableModeEventOutput turns on mode event rows. Row times are offset by eventStart.
func (m *Model) EnableModeEventOutput(eventStart float64, seed uint64) {
	m.events = eventOutput{enabled: true, start: eventStart, seed: seed}
}

// EnableSequenceSampler starts tracing a lineage path. A non-nil cell is
// labelled as the path's root.
func (m *Model) EnableSequenceSampler(cell lineage.Cell) {
	m.seq.Enabled = true
	if cell != nil {
		cell.AddProperty(lineage.PropertyLabel)
	}
}

// EnableKillSpecified makes every cell that leaves the cycle be killed.
func (m *Model) EnableKillSpecified() { m.kill = true }

// DebugSchema lists the variables written per division, in order.
func (m *Model) DebugSchema() []Column { return m.v.schema() }

// EnableDebugOutput defines this variant's schema on w and starts writing one
// row per division. The returned binding can be handed to PassDebugWriter.
func (m *Model) EnableDebugOutput(w lineage.ColumnWriter) (DebugBinding, error) {
	if m.debug != nil {
		return DebugBinding{}, ErrDebugSchemaDefined
	}
	units := "h"
	if m.Kind() == lineage.KindBoije {
		units = "generation"
	}
	timeID, err := w.DefineUnlimitedDimension("Time", units)
	if err != nil {
		return DebugBinding{}, fmt.Errorf("define time dimension: %w", err)
	}
	schema := m.v.schema()
	ids := make([]int, 0, len(schema))
	for _, col := range schema {
		id, err := w.DefineVariable(col.Name, col.Units)
		if err != nil {
			return DebugBinding{}, fmt.Errorf("define variable %s: %w", col.Name, err)
		}
		ids = append(ids, id)
	}
	if err := w.EndDefineMode(); err != nil {
		return DebugBinding{}, fmt.Errorf("end define mode: %w", err)
	}
	b := DebugBinding{TimeID: timeID, VarIDs: ids}
	m.debug = &debugOutput{w: w, binding: b}
	return DebugBinding{TimeID: timeID, VarIDs: append([]int(nil), ids...)}, nil
}

// PassDebugWriter attaches a writer whose schema was already defined by
// another model of the same variant.
func (m *Model) PassDebugWriter(w lineage.ColumnWriter, b DebugBinding) error {
	if want := len(m.v.schema()); len(b.VarIDs) != want {
		return fmt.Errorf("cellcycle: debug binding has %d variables, %s schema needs %d", len(b.VarIDs), m.Kind(), want)
	}
	m.debug = &debugOutput{w: w, binding: DebugBinding{TimeID: b.TimeID, VarIDs: append([]int(nil), b.VarIDs...)}}
	return nil
}

func (m *Model) drawDuration(now float64) float64 {
	d := m.v.sampleDuration(m, now)
	m.deps.metrics.ObserveCycleDuration(m.Kind(), d)
	return d
}

// exit takes the cell out of the cycle and applies kill-on-terminal.
func (m *Model) exit(cell lineage.Cell) {
	cell.SetProliferativeType(lineage.TypeDifferentiated)
	m.duration = lineage.Infinite
	if m.kill {
		cell.Kill()
	}
}

func (m *Model) assignFate(cell lineage.Cell, f lineage.Fate) {
	cell.AddProperty(f.Property())
	m.deps.metrics.ObserveFate(m.Kind(), f)
}

func (m *Model) labelValue(cell lineage.Cell) float64 {
	if !m.seq.Enabled {
		return math.NaN()
	}
	if cell.HasProperty(lineage.PropertyLabel) {
		return 1
	}
	return 0
}

func (m *Model) writeDebug(now float64, row []float64) {
	if m.debug == nil {
		return
	}
	w, b := m.debug.w, m.debug.binding
	if err := w.PutVariable(b.TimeID, now); err != nil {
		m.deps.logger.Warn("debug write failed", "variable", "Time", "err", err)
		return
	}
	for i, v := range row {
		if math.IsNaN(v) || i >= len(b.VarIDs) {
			continue
		}
		if err := w.PutVariable(b.VarIDs[i], v); err != nil {
			m.deps.logger.Warn("debug write failed", "variable", i, "err", err)
		}
	}
	if err := w.AdvanceAlongUnlimitedDimension(); err != nil {
		m.deps.logger.Warn("debug advance failed", "err", err)
	}
}

func (m *Model) writeEvent(cell lineage.Cell, now float64) {
	if !m.events.enabled || m.deps.sink == nil {
		return
	}
	ev := lineage.ModeEvent{
		Time:   now + m.events.start,
		Seed:   m.events.seed,
		CellID: cell.ID(),
		Mode:   m.mode,
	}
	if err := m.deps.sink.RecordMode(ev); err != nil {
		m.deps.logger.Warn("mode event not recorded", "cell", ev.CellID, "err", err)
	}
}

func (m *Model) recordSequence(mode lineage.MitoticMode) {
	if m.deps.sink == nil {
		return
	}
	if err := m.deps.sink.RecordSequence(mode); err != nil {
		m.deps.logger.Warn("sequence not recorded", "mode", mode.String(), "err", err)
	}
}
