// Package cellcycle implements stochastic lineage-branching cell-cycle models
// for retinal progenitor lineages.
//
// A Model is owned by exactly one cell. At each division the host calls
// ResetForDivision on the dividing cell's model, copies the cell's markers onto
// the new cell, clones the model and calls InitialiseDaughterCell on the clone:
//
//	parent.ResetForDivision(parentCell)
//	daughter := parent.Clone()
//	daughter.InitialiseDaughterCell(newCell)
//
// Three variants share that lifecycle:
//
//   - Boije: phase is the lineage generation; transcription-factor signals
//     decide the mitotic mode and the fate of differentiating daughters;
//     every cycle lasts one generation.
//   - Gomes: a single stage with fixed PP/PD/DD probabilities, log-normal
//     cycle durations and a four-way fate distribution.
//   - He: three phases selected by time in lineage against two boundaries,
//     shifted-gamma cycle durations (optionally drifting with simulation
//     time), a deterministic override and Ath5 morphant escape.
//
// Random variates, the event log and the debug recorder are injected through
// Options; the package holds no global state.
package cellcycle
