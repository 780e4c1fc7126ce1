package clone

import (
	"sort"

	"lineagecore/pkg/lineage"
)

// Cell is the host-side cell a model is attached to.
type Cell struct {
	id    uint64
	props map[lineage.Property]struct{}
	Type  lineage.ProliferativeType
	Dead  bool
}

// NewCell returns a cell with no properties.
func NewCell(id uint64) *Cell {
	return &Cell{id: id, props: make(map[lineage.Property]struct{})}
}

func (c *Cell) ID() uint64                                       { return c.id }
func (c *Cell) HasProperty(p lineage.Property) bool              { _, ok := c.props[p]; return ok }
func (c *Cell) AddProperty(p lineage.Property)                   { c.props[p] = struct{}{} }
func (c *Cell) RemoveProperty(p lineage.Property)                { delete(c.props, p) }
func (c *Cell) SetProliferativeType(t lineage.ProliferativeType) { c.Type = t }
func (c *Cell) Kill()                                            { c.Dead = true }

// CopyTo returns a new cell carrying c's properties and type.
func (c *Cell) CopyTo(id uint64) *Cell {
	n := NewCell(id)
	for p := range c.props {
		n.props[p] = struct{}{}
	}
	n.Type = c.Type
	return n
}

// Fates returns the fates the cell is marked with, sorted.
func (c *Cell) Fates() []lineage.Fate {
	var out []lineage.Fate
	for p := range c.props {
		if f, ok := lineage.FateOf(p); ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
