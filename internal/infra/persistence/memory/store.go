// Package memory keeps mode events and the traced sequence in process memory.
// It backs tests and runs that only need the log for in-process analysis.
package memory

import (
	"context"
	"strings"
	"sync"

	"lineagecore/pkg/lineage"
)

// Store is an in-memory event store. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	events   []lineage.ModeEvent
	sequence strings.Builder
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// RecordMode appends one mode event.
func (s *Store) RecordMode(ev lineage.ModeEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// RecordSequence appends one mode code to the traced sequence.
func (s *Store) RecordSequence(mode lineage.MitoticMode) error {
	s.mu.Lock()
	s.sequence.WriteByte(byte('0' + mode.Code()))
	s.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events in append order.
func (s *Store) Events(context.Context) ([]lineage.ModeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]lineage.ModeEvent(nil), s.events...), nil
}

// Sequence returns the traced mode codes, e.g. "0012".
func (s *Store) Sequence(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequence.String(), nil
}

// Reset discards everything recorded so far.
func (s *Store) Reset() {
	s.mu.Lock()
	s.events = nil
	s.sequence.Reset()
	s.mu.Unlock()
}

// Close implements io.Closer.
func (s *Store) Close() error { return nil }
