package cellcycle

import "lineagecore/pkg/lineage"

var boijeSchema = []Column{
	{"CellID", "No"},
	{"Generation", "No"},
	{"Phase", "No"},
	{"Atoh7RV", "Percentile"},
	{"Ptf1aRV", "Percentile"},
	{"NgRV", "Percentile"},
	{"MitoticMode", "Mode"},
	{"Label", "binary"},
}

// boije resolves each division from three transcription-factor signals.
// Atoh7 and Ptf1a become available from the second phase, Ng from the third.
type boije struct {
	p BoijeParams
	// daughterFate is the fate given to the PD daughter of the last division.
	daughterFate lineage.Fate
}

func (b *boije) kind() lineage.Kind { return lineage.KindBoije }

func (b *boije) params() Params { return b.p }

func (b *boije) schema() []Column { return boijeSchema }

func (b *boije) clone() variant {
	c := *b
	return &c
}

func (b *boije) sampleDuration(*Model, float64) float64 { return GenerationDuration }

func (b *boije) initialise(m *Model, _ lineage.Cell) {
	m.duration = GenerationDuration
}

func (b *boije) decide(m *Model, cell lineage.Cell, _ float64) (lineage.MitoticMode, int, []float64) {
	src := m.deps.src
	phase := SelectPhase(float64(m.generation), b.p.Boundaries())
	atoh7RV, ptf1aRV, ngRV := src.Uniform(), src.Uniform(), src.Uniform()

	atoh7 := phase >= 2 && atoh7RV <= b.p.ProbAtoh7
	ptf1a := phase >= 2 && ptf1aRV <= b.p.ProbPtf1a
	ng := phase >= 3 && ngRV <= b.p.ProbNg

	mode := lineage.ModePP
	b.daughterFate = ""
	switch {
	case ng:
		mode = lineage.ModeDD
		b.daughterFate = lineage.FatePRBC
	case atoh7:
		mode = lineage.ModePD
		b.daughterFate = lineage.FateRGC
	case ptf1a:
		mode = lineage.ModePD
		b.daughterFate = lineage.FateACHC
	}

	row := []float64{
		float64(cell.ID()),
		float64(m.generation),
		float64(phase),
		atoh7RV,
		ptf1aRV,
		ngRV,
		float64(mode.Code()),
		m.labelValue(cell),
	}
	return mode, phase, row
}

func (b *boije) afterReset(m *Model, cell lineage.Cell) {
	m.generation++
	if m.mode == lineage.ModeDD {
		m.exit(cell)
		m.assignFate(cell, lineage.FatePRBC)
	}
}

func (b *boije) initialiseDaughter(m *Model, cell lineage.Cell) {
	switch m.mode {
	case lineage.ModePD:
		m.exit(cell)
		m.assignFate(cell, b.daughterFate)
	case lineage.ModeDD:
		m.exit(cell)
		if !cell.HasProperty(lineage.FatePRBC.Property()) {
			m.assignFate(cell, lineage.FatePRBC)
		}
	}
}
