package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lineagecore/internal/eventlog"
	"lineagecore/pkg/lineage"
)

// eventReport is the output of the events command.
type eventReport struct {
	Events    int            `json:"events" yaml:"events"`
	FirstTime float64        `json:"first_time" yaml:"first_time"`
	LastTime  float64        `json:"last_time" yaml:"last_time"`
	Modes     map[string]int `json:"modes" yaml:"modes"`
	Sequence  string         `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events FILE",
		Short: "Summarize a text mode-event log",
		Long: `Summarize a text mode-event log written by grow.

Prints the number of events, the time span, the count per mitotic mode and
the traced mode sequence, if any.

Examples:
  lineagectl events mode_events.txt
  lineagectl events runs/events.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0]) // #nosec G304 -- operator-supplied log path
			if err != nil {
				return fmt.Errorf("open event log: %w", err)
			}
			defer f.Close()
			log, err := eventlog.ReadText(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return emit(cmd, summarizeEvents(log))
		},
	}
}

func summarizeEvents(log *eventlog.TextLog) eventReport {
	r := eventReport{Events: len(log.Events), Sequence: log.Sequence, Modes: make(map[string]int, len(lineage.Modes))}
	for mode, n := range log.Tally() {
		r.Modes[mode.String()] = n
	}
	for i, ev := range log.Events {
		if i == 0 || ev.Time < r.FirstTime {
			r.FirstTime = ev.Time
		}
		if i == 0 || ev.Time > r.LastTime {
			r.LastTime = ev.Time
		}
	}
	return r
}
