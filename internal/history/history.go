// Package history keeps a linear undo/redo log of editor snapshots.
package history

import "github.com/lewtec/enquadra/internal/domain"

// Log is an ordered list of snapshots with a cursor on the current one.
// The log is never empty and 0 <= Index() < Len() always holds.
type Log struct {
	entries []domain.Snapshot
	index   int
	limit   int
}

// New starts a log holding initial. A positive limit caps how many snapshots
// are retained; older ones are dropped first.
func New(initial domain.Snapshot, limit int) *Log {
	if limit == 1 {
		// a single entry could never be undone to
		limit = 2
	}
	return &Log{
		entries: []domain.Snapshot{initial.Clone()},
		limit:   limit,
	}
}

// Commit drops every entry after the cursor and appends s.
func (l *Log) Commit(s domain.Snapshot) {
	l.entries = append(l.entries[:l.index+1], s.Clone())
	l.index++
	if l.limit > 0 && len(l.entries) > l.limit {
		drop := len(l.entries) - l.limit
		l.entries = append([]domain.Snapshot(nil), l.entries[drop:]...)
		l.index -= drop
	}
}

// Reset discards all entries and starts over from s.
func (l *Log) Reset(s domain.Snapshot) {
	l.entries = []domain.Snapshot{s.Clone()}
	l.index = 0
}

func (l *Log) Undo() (domain.Snapshot, bool) {
	if !l.CanUndo() {
		return domain.Snapshot{}, false
	}
	l.index--
	return l.entries[l.index].Clone(), true
}

func (l *Log) Redo() (domain.Snapshot, bool) {
	if !l.CanRedo() {
		return domain.Snapshot{}, false
	}
	l.index++
	return l.entries[l.index].Clone(), true
}

func (l *Log) CanUndo() bool { return l.index > 0 }

func (l *Log) CanRedo() bool { return l.index < len(l.entries)-1 }

// Current returns a copy of the snapshot under the cursor.
func (l *Log) Current() domain.Snapshot { return l.entries[l.index].Clone() }

// Each calls fn on every retained entry, in order. fn may modify the entry
// in place.
func (l *Log) Each(fn func(*domain.Snapshot)) {
	for i := range l.entries {
		fn(&l.entries[i])
	}
}

func (l *Log) Len() int { return len(l.entries) }

func (l *Log) Index() int { return l.index }
