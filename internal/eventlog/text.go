package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"lineagecore/pkg/lineage"
)

// DefaultTextPath is used when a text log is opened without a path.
const DefaultTextPath = "mode_events.txt"

// sequenceTag starts the line of a traced division.
const sequenceTag = "seq"

// Text writes one "time<TAB>seed<TAB>cellId<TAB>mode" line per mode event and
// one "seq<TAB>mode" line per traced division, all to the same stream. Writes
// are serialized so concurrent divisions cannot interleave within a line.
type Text struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

// NewText wraps w. Closing the log flushes but does not close w.
func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

// CreateText creates (truncating) the file at path.
func CreateText(path string) (*Text, error) {
	if path == "" {
		path = DefaultTextPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	f, err := os.Create(path) // #nosec G304 -- path comes from run configuration
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	t := NewText(f)
	t.closer = f
	return t, nil
}

// RecordMode implements lineage.EventSink.
func (t *Text) RecordMode(ev lineage.ModeEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "%s\t%d\t%d\t%d\n",
		strconv.FormatFloat(ev.Time, 'g', -1, 64), ev.Seed, ev.CellID, ev.Mode.Code()); err != nil {
		return fmt.Errorf("write mode event: %w", err)
	}
	return nil
}

// RecordSequence implements lineage.EventSink.
func (t *Text) RecordSequence(mode lineage.MitoticMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.w, "%s\t%d\n", sequenceTag, mode.Code()); err != nil {
		return fmt.Errorf("write sequence: %w", err)
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (t *Text) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Close flushes and closes the file when the log owns one.
func (t *Text) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.w.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
		t.closer = nil
	}
	return err
}

// TextLog is the parsed content of a text log.
type TextLog struct {
	Events []lineage.ModeEvent
	// Sequence holds the traced mode codes in order, one digit per division.
	Sequence string
}

// Tally counts events per mode.
func (l *TextLog) Tally() map[lineage.MitoticMode]int {
	out := make(map[lineage.MitoticMode]int, len(lineage.Modes))
	for _, ev := range l.Events {
		out[ev.Mode]++
	}
	return out
}

// ReadText parses a text log. Any line that is neither a four-field event row
// nor a sequence line is an error.
func ReadText(r io.Reader) (*TextLog, error) {
	out := &TextLog{}
	var seq strings.Builder
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if fields[0] == sequenceTag {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: want a single mode after %q, got %d fields", line, sequenceTag, len(fields)-1)
			}
			mode, err := lineage.ParseMitoticMode(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: sequence: %w", line, err)
			}
			seq.WriteByte(byte('0' + mode.Code()))
			continue
		}
		ev, err := parseEvent(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out.Events = append(out.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	out.Sequence = seq.String()
	return out, nil
}

func parseEvent(fields []string) (lineage.ModeEvent, error) {
	if len(fields) != 4 {
		return lineage.ModeEvent{}, fmt.Errorf("want 4 tab-separated fields, got %d", len(fields))
	}
	tm, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return lineage.ModeEvent{}, fmt.Errorf("time: %w", err)
	}
	seed, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return lineage.ModeEvent{}, fmt.Errorf("seed: %w", err)
	}
	cell, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return lineage.ModeEvent{}, fmt.Errorf("cell id: %w", err)
	}
	mode, err := lineage.ParseMitoticMode(fields[3])
	if err != nil {
		return lineage.ModeEvent{}, err
	}
	return lineage.ModeEvent{Time: tm, Seed: seed, CellID: cell, Mode: mode}, nil
}
