package cellcycle

import "lineagecore/pkg/lineage"

var gomesSchema = []Column{
	{"CellID", "No"},
	{"CycleDuration", "h"},
	{"PP", "Percentile"},
	{"PD", "Percentile"},
	{"Dieroll", "Percentile"},
	{"MitoticMode", "Mode"},
}

type gomes struct {
	p GomesParams
}

func (g *gomes) kind() lineage.Kind { return lineage.KindGomes }

func (g *gomes) params() Params { return g.p }

func (g *gomes) schema() []Column { return gomesSchema }

func (g *gomes) clone() variant { return &gomes{p: g.p} }

func (g *gomes) sampleDuration(m *Model, _ float64) float64 {
	return LogNormalDuration(m.deps.src, g.p.NormalMu, g.p.NormalSigma)
}

func (g *gomes) initialise(m *Model, _ lineage.Cell) {
	m.SetCycleDuration()
}

func (g *gomes) decide(m *Model, cell lineage.Cell, _ float64) (lineage.MitoticMode, int, []float64) {
	rv := m.deps.src.Uniform()
	mode := g.p.Modes().Decide(1, rv)
	row := []float64{
		float64(cell.ID()),
		m.duration,
		g.p.PP,
		g.p.PD,
		rv,
		float64(mode.Code()),
	}
	return mode, 1, row
}

func (g *gomes) afterReset(m *Model, cell lineage.Cell) {
	if m.mode != lineage.ModeDD {
		return
	}
	m.exit(cell)
	g.specify(m, cell)
}

func (g *gomes) initialiseDaughter(m *Model, cell lineage.Cell) {
	switch m.mode {
	case lineage.ModePP:
		m.SetCycleDuration()
	case lineage.ModePD:
		m.exit(cell)
		g.specify(m, cell)
	case lineage.ModeDD:
		// The copied parent fate is replaced by the daughter's own draw.
		for _, f := range g.p.Fates().Fates() {
			cell.RemoveProperty(f.Property())
		}
		m.exit(cell)
		g.specify(m, cell)
	}
}

// specify takes one fresh draw and marks the cell with the selected fate.
func (g *gomes) specify(m *Model, cell lineage.Cell) {
	m.assignFate(cell, g.p.Fates().Assign(m.deps.src.Uniform()))
}
