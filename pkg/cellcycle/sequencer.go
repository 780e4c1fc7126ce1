package cellcycle

import "lineagecore/pkg/lineage"

// LabelInheritanceProbability is the chance the clone, rather than the parent,
// carries the traced label on.
const LabelInheritanceProbability = 0.5

// Sequencer traces the mitotic modes along one randomly chosen path of the
// lineage tree. The path is marked by lineage.PropertyLabel; a cell without the
// label never passes it on, so a lost label cannot reappear.
type Sequencer struct {
	Enabled bool
	// labelClone is set at the parent's division and consumed by the clone.
	labelClone bool
}

// PendingLabel reports whether the next daughter initialised from this state
// receives the label.
func (s Sequencer) PendingLabel() bool { return s.labelClone }

// atDivision runs on the dividing cell after its mode is fixed. It appends the
// mode to the sequence log and picks which daughter carries the label.
func (s *Sequencer) atDivision(cell lineage.Cell, mode lineage.MitoticMode, src lineage.RandomSource, record func(lineage.MitoticMode)) {
	if !s.Enabled {
		return
	}
	if !cell.HasProperty(lineage.PropertyLabel) {
		s.labelClone = false
		return
	}
	record(mode)
	if src.Uniform() <= LabelInheritanceProbability {
		s.labelClone = true
		cell.RemoveProperty(lineage.PropertyLabel)
		return
	}
	s.labelClone = false
}

// forDaughter runs once on the clone's cell.
func (s *Sequencer) forDaughter(cell lineage.Cell) {
	if !s.Enabled {
		return
	}
	if s.labelClone {
		cell.AddProperty(lineage.PropertyLabel)
		s.labelClone = false
		return
	}
	cell.RemoveProperty(lineage.PropertyLabel)
}
