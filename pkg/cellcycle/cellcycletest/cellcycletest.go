// Package cellcycletest provides a minimal host for exercising cell-cycle
// models in tests: an in-memory cell, a scripted random source and the
// division protocol.
package cellcycletest

import (
	"fmt"
	"sort"
	"sync"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/lineage"
)

// Cell is an in-memory lineage.Cell.
type Cell struct {
	id    uint64
	props map[lineage.Property]struct{}
	Type  lineage.ProliferativeType
	Dead  bool
}

// NewCell returns a cell with the given id and properties.
func NewCell(id uint64, props ...lineage.Property) *Cell {
	c := &Cell{id: id, props: make(map[lineage.Property]struct{})}
	for _, p := range props {
		c.props[p] = struct{}{}
	}
	return c
}

func (c *Cell) ID() uint64                                       { return c.id }
func (c *Cell) HasProperty(p lineage.Property) bool              { _, ok := c.props[p]; return ok }
func (c *Cell) AddProperty(p lineage.Property)                   { c.props[p] = struct{}{} }
func (c *Cell) RemoveProperty(p lineage.Property)                { delete(c.props, p) }
func (c *Cell) SetProliferativeType(t lineage.ProliferativeType) { c.Type = t }
func (c *Cell) Kill()                                            { c.Dead = true }

// Properties lists the cell's properties in sorted order.
func (c *Cell) Properties() []lineage.Property {
	out := make([]lineage.Property, 0, len(c.props))
	for p := range c.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Fates lists the fate markers the cell carries.
func (c *Cell) Fates(candidates ...lineage.Fate) []lineage.Fate {
	var out []lineage.Fate
	for _, f := range candidates {
		if c.HasProperty(f.Property()) {
			out = append(out, f)
		}
	}
	return out
}

// CopyTo copies properties and proliferative type onto a new cell, as the host
// does when a cell divides.
func (c *Cell) CopyTo(id uint64) *Cell {
	n := NewCell(id, c.Properties()...)
	n.Type = c.Type
	return n
}

// Script is a lineage.RandomSource replaying fixed draws. Uniform, Normal and
// Gamma each consume their own queue; an exhausted queue fails the test via
// panic so an unexpected draw is never silent.
type Script struct {
	Uniforms []float64
	Normals  []float64
	Gammas   []float64

	// Calls records every draw in order, e.g. "uniform", "normal(0,1)".
	Calls []string
}

// Uniform implements lineage.RandomSource.
func (s *Script) Uniform() float64 {
	s.Calls = append(s.Calls, "uniform")
	return pop(&s.Uniforms, "uniform")
}

// Normal implements lineage.RandomSource and returns mean plus the scripted deviate.
func (s *Script) Normal(mean, sd float64) float64 {
	s.Calls = append(s.Calls, fmt.Sprintf("normal(%g,%g)", mean, sd))
	return mean + pop(&s.Normals, "normal")
}

// Gamma implements lineage.RandomSource.
func (s *Script) Gamma(shape, scale float64) float64 {
	s.Calls = append(s.Calls, fmt.Sprintf("gamma(%g,%g)", shape, scale))
	return pop(&s.Gammas, "gamma")
}

// Remaining reports how many scripted draws are still queued.
func (s *Script) Remaining() int { return len(s.Uniforms) + len(s.Normals) + len(s.Gammas) }

func pop(q *[]float64, name string) float64 {
	if len(*q) == 0 {
		panic("cellcycletest: no scripted " + name + " draw left")
	}
	v := (*q)[0]
	*q = (*q)[1:]
	return v
}

// Clock is a settable simulation clock.
type Clock struct{ T float64 }

// Now implements lineage.Clock.
func (c *Clock) Now() float64 { return c.T }

// Sink records mode events and the sequence log in memory.
type Sink struct {
	mu       sync.Mutex
	Events   []lineage.ModeEvent
	Sequence []lineage.MitoticMode
	Err      error
}

// RecordMode implements lineage.EventSink.
func (s *Sink) RecordMode(ev lineage.ModeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, ev)
	return nil
}

// RecordSequence implements lineage.EventSink.
func (s *Sink) RecordSequence(m lineage.MitoticMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sequence = append(s.Sequence, m)
	return nil
}

// Divide runs the host division protocol: reset the parent, copy the parent
// cell, clone the model and initialise the daughter. The parent model and cell
// continue as the second daughter.
func Divide(parent *cellcycle.Model, cell *Cell, newID uint64) (*cellcycle.Model, *Cell) {
	parent.ResetForDivision(cell)
	daughterCell := cell.CopyTo(newID)
	daughter := parent.Clone()
	daughter.InitialiseDaughterCell(daughterCell)
	return daughter, daughterCell
}
