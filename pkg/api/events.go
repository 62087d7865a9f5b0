package api

import "time"

// EventType identifies a history journal event.
type EventType string

const (
	EventRecorded     EventType = "entry.recorded"
	EventRecordFailed EventType = "entry.record_failed"
	EventUndone       EventType = "entry.undone"
	EventUndoFailed   EventType = "entry.undo_failed"
	EventRedone       EventType = "entry.redone"
	EventRedoFailed   EventType = "entry.redo_failed"
	EventPruned       EventType = "entry.pruned"
	EventFolded       EventType = "history.folded"
)

// HistoryEvent is a minimal append-only journal record for audit/debugging.
// It describes what happened to an entry; it is not enough to rebuild the
// stacks, which live only as long as their manager.
type HistoryEvent struct {
	// Journal groups events from one manager; see rewind.NewJournalObserver.
	Journal string
	At      time.Time
	Type    EventType

	EntryID  string
	Scope    string
	Mirrored bool

	// Small, human-oriented details (description, error string, counts).
	Detail string
}
