// Package clone grows clones from founder cells by repeatedly dividing
// whichever cell is due next. It is a minimal host for the cell-cycle models,
// used by the CLI to exercise a configured run end to end.
package clone

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"lineagecore/pkg/cellcycle"
	"lineagecore/pkg/lineage"
)

// Clock is the settable simulation clock shared by every model in a clone.
type Clock struct{ t float64 }

// Now implements lineage.Clock.
func (c *Clock) Now() float64 { return c.t }

// Factory builds a founder model.
type Factory func() (*cellcycle.Model, error)

// Options bound a run.
type Options struct {
	Founders int
	// MaxTime stops the run before the first division due after it.
	MaxTime float64
	// MaxCells stops the run once this many cells exist; zero means no limit.
	MaxCells int
	// TraceSequence labels the first founder and traces one path through its clone.
	TraceSequence bool
}

// Summary reports what happened.
type Summary struct {
	Cells      int                         `json:"cells" yaml:"cells"`
	Divisions  int                         `json:"divisions" yaml:"divisions"`
	Cycling    int                         `json:"cycling" yaml:"cycling"`
	Dead       int                         `json:"dead" yaml:"dead"`
	EndTime    float64                     `json:"end_time" yaml:"end_time"`
	Modes      map[lineage.MitoticMode]int `json:"-" yaml:"-"`
	ModeCounts map[string]int              `json:"modes" yaml:"modes"`
	Fates      map[lineage.Fate]int        `json:"fates" yaml:"fates"`
}

// ErrNoFounders is returned when Options.Founders is not positive.
var ErrNoFounders = errors.New("clone: at least one founder required")

type member struct {
	model *cellcycle.Model
	cell  *Cell
	due   float64
	index int
}

// Grow seeds opts.Founders cells and divides them in due-time order until
// MaxTime or MaxCells is reached. clock must be the clock the factory's
// models read.
func Grow(ctx context.Context, clock *Clock, newModel Factory, opts Options) (Summary, []*Cell, error) {
	if opts.Founders <= 0 {
		return Summary{}, nil, ErrNoFounders
	}
	var (
		q     queue
		cells []*Cell
		sum   = Summary{Modes: make(map[lineage.MitoticMode]int), Fates: make(map[lineage.Fate]int)}
	)
	nextID := uint64(0)
	for i := 0; i < opts.Founders; i++ {
		m, err := newModel()
		if err != nil {
			return Summary{}, nil, fmt.Errorf("founder %d: %w", i, err)
		}
		c := NewCell(nextID)
		nextID++
		if opts.TraceSequence && i == 0 {
			m.EnableSequenceSampler(c)
		}
		m.Initialise(c)
		cells = append(cells, c)
		schedule(&q, m, c, clock.Now())
	}

	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return Summary{}, nil, err
		}
		if opts.MaxCells > 0 && len(cells) >= opts.MaxCells {
			break
		}
		next := heap.Pop(&q).(*member)
		if next.due > opts.MaxTime {
			break
		}
		clock.t = next.due

		parent, pc := next.model, next.cell
		parent.ResetForDivision(pc)
		dc := pc.CopyTo(nextID)
		nextID++
		daughter := parent.Clone()
		daughter.InitialiseDaughterCell(dc)

		cells = append(cells, dc)
		sum.Divisions++
		sum.Modes[parent.Mode()]++
		schedule(&q, parent, pc, clock.t)
		schedule(&q, daughter, dc, clock.t)
	}

	sum.Cells = len(cells)
	sum.EndTime = clock.t
	sum.ModeCounts = make(map[string]int, len(sum.Modes))
	for m, n := range sum.Modes {
		sum.ModeCounts[m.String()] = n
	}
	for _, c := range cells {
		if c.Dead {
			sum.Dead++
		}
		if c.Type != lineage.TypeDifferentiated && !c.Dead {
			sum.Cycling++
		}
		for _, f := range c.Fates() {
			sum.Fates[f]++
		}
	}
	return sum, cells, nil
}

func schedule(q *queue, m *cellcycle.Model, c *Cell, now float64) {
	if c.Dead || m.Terminal() {
		return
	}
	due := m.BirthTime() + m.CycleDuration()
	if m.ReadyToDivide(now) {
		due = now
	}
	heap.Push(q, &member{model: m, cell: c, due: due})
}

// queue orders members by due time, then by cell id for determinism.
type queue []*member

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].cell.ID() < q[j].cell.ID()
}
func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *queue) Push(x any) {
	m := x.(*member)
	m.index = len(*q)
	*q = append(*q, m)
}
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	m := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return m
}
