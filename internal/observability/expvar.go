package observability

import (
	"expvar"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"lineagecore/pkg/lineage"
)

var expvarSeq uint64

// ExpvarMetrics aggregates division, fate and duration observations in
// process memory and publishes a snapshot via expvar.
type ExpvarMetrics struct {
	name      string
	mu        sync.Mutex
	divisions map[string]int64
	fates     map[string]int64
	durations map[string]*DurationSummary
}

// DurationSummary accumulates finite cycle durations for one variant.
type DurationSummary struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Mean returns Sum/Count, or zero when nothing was observed.
func (d DurationSummary) Mean() float64 {
	if d.Count == 0 {
		return 0
	}
	return d.Sum / float64(d.Count)
}

// ExpvarSnapshot is a read-only copy of the recorded metrics. Division keys
// are "<kind>/phase<n>/<mode>", fate keys "<kind>/<fate>".
type ExpvarSnapshot struct {
	Divisions  map[string]int64           `json:"divisions_total"`
	Fates      map[string]int64           `json:"fates_total"`
	Durations  map[string]DurationSummary `json:"cycle_durations"`
	RecordedAt time.Time                  `json:"recorded_at"`
}

// NewExpvarMetrics constructs a recorder and publishes it under name. An
// empty name gets a generated unique one.
func NewExpvarMetrics(name string) *ExpvarMetrics {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("lineagecore_metrics_%d", id)
	}
	m := &ExpvarMetrics{
		name:      name,
		divisions: make(map[string]int64),
		fates:     make(map[string]int64),
		durations: make(map[string]*DurationSummary),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return m.Snapshot()
	}))
	return m
}

// Name returns the expvar export name.
func (m *ExpvarMetrics) Name() string { return m.name }

// ObserveDivision implements lineage.Metrics.
func (m *ExpvarMetrics) ObserveDivision(kind lineage.Kind, phase int, mode lineage.MitoticMode) {
	key := string(kind) + "/phase" + strconv.Itoa(phase) + "/" + mode.String()
	m.mu.Lock()
	m.divisions[key]++
	m.mu.Unlock()
}

// ObserveFate implements lineage.Metrics.
func (m *ExpvarMetrics) ObserveFate(kind lineage.Kind, fate lineage.Fate) {
	key := string(kind) + "/" + string(fate)
	m.mu.Lock()
	m.fates[key]++
	m.mu.Unlock()
}

// ObserveCycleDuration implements lineage.Metrics. Infinite durations are ignored.
func (m *ExpvarMetrics) ObserveCycleDuration(kind lineage.Kind, d float64) {
	if d == lineage.Infinite {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.durations[string(kind)]
	if !ok {
		s = &DurationSummary{Min: d, Max: d}
		m.durations[string(kind)] = s
	}
	s.Count++
	s.Sum += d
	if d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (m *ExpvarMetrics) Snapshot() ExpvarSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	divisions := make(map[string]int64, len(m.divisions))
	for k, v := range m.divisions {
		divisions[k] = v
	}
	fates := make(map[string]int64, len(m.fates))
	for k, v := range m.fates {
		fates[k] = v
	}
	durations := make(map[string]DurationSummary, len(m.durations))
	for k, v := range m.durations {
		durations[k] = *v
	}
	return ExpvarSnapshot{
		Divisions:  divisions,
		Fates:      fates,
		Durations:  durations,
		RecordedAt: time.Now().UTC(),
	}
}
