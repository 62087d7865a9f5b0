package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Direction identifies which stack a conflict check ran against.
type Direction string

const (
	DirectionUndo Direction = "undo"
	DirectionRedo Direction = "redo"
)

// EntryInfo describes a stack entry to observers without exposing the
// command itself.
type EntryInfo struct {
	// ID is assigned by the manager when the entry is created. A folded
	// mirror gets its own ID.
	ID                 string
	Scope              string
	Description        string
	ReverseDescription string

	// Mirrored is true for the inverted copies created by history mode.
	Mirrored bool
}

// Observer receives callbacks from a Manager for logging and metrics.
//
// Callbacks run on the goroutine that called the manager, while it holds
// its internal lock. Implementations should be fast and must not call back
// into the manager.
type Observer interface {
	// OnRecord is called after a recorded command's Operation returned.
	// err is non-nil when it failed and the entry was not pushed.
	OnRecord(ctx context.Context, entry EntryInfo, err error, duration time.Duration)

	// OnUndo is called after an entry's ReverseOperation returned.
	OnUndo(ctx context.Context, entry EntryInfo, err error, duration time.Duration)

	// OnRedo is called after an entry's Operation was re-applied.
	OnRedo(ctx context.Context, entry EntryInfo, err error, duration time.Duration)

	// OnConflict is called when the top entry of a stack conflicted. pruned
	// is the number of entries removed, including the top one. err is set
	// when the conflict check itself failed.
	OnConflict(ctx context.Context, dir Direction, entry EntryInfo, pruned int, err error)

	// OnHistoryFold is called when history mode folded a non-empty future
	// stack into the past stack. added is the number of entries appended.
	OnHistoryFold(ctx context.Context, added int)

	// OnStatusChange is called when a new Status value was published.
	OnStatusChange(ctx context.Context, status Status)
}

// NoopObserver is an Observer that does nothing.
type NoopObserver struct{}

func (NoopObserver) OnRecord(ctx context.Context, entry EntryInfo, err error, d time.Duration) {}
func (NoopObserver) OnUndo(ctx context.Context, entry EntryInfo, err error, d time.Duration)   {}
func (NoopObserver) OnRedo(ctx context.Context, entry EntryInfo, err error, d time.Duration)   {}
func (NoopObserver) OnConflict(ctx context.Context, dir Direction, entry EntryInfo, pruned int, err error) {
}
func (NoopObserver) OnHistoryFold(ctx context.Context, added int)      {}
func (NoopObserver) OnStatusChange(ctx context.Context, status Status) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRecord(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnRecord(ctx, entry, err, d)
	}
}

func (c *CompositeObserver) OnUndo(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnUndo(ctx, entry, err, d)
	}
}

func (c *CompositeObserver) OnRedo(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnRedo(ctx, entry, err, d)
	}
}

func (c *CompositeObserver) OnConflict(ctx context.Context, dir Direction, entry EntryInfo, pruned int, err error) {
	for _, o := range c.observers {
		o.OnConflict(ctx, dir, entry, pruned, err)
	}
}

func (c *CompositeObserver) OnHistoryFold(ctx context.Context, added int) {
	for _, o := range c.observers {
		o.OnHistoryFold(ctx, added)
	}
}

func (c *CompositeObserver) OnStatusChange(ctx context.Context, status Status) {
	for _, o := range c.observers {
		o.OnStatusChange(ctx, status)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs manager events using the
// provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRecord(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	o.logAction(ctx, "command_recorded", "command_record_failed", entry, err, d)
}

func (o *LoggingObserver) OnUndo(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	o.logAction(ctx, "command_undone", "command_undo_failed", entry, err, d)
}

func (o *LoggingObserver) OnRedo(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	o.logAction(ctx, "command_redone", "command_redo_failed", entry, err, d)
}

func (o *LoggingObserver) logAction(ctx context.Context, okMsg, failMsg string, entry EntryInfo, err error, d time.Duration) {
	attrs := []any{
		slog.String("entry_id", entry.ID),
		slog.String("scope", entry.Scope),
		slog.String("description", entry.Description),
		slog.Bool("mirrored", entry.Mirrored),
		slog.Duration("duration", d),
	}
	if err != nil {
		o.Logger.ErrorContext(ctx, failMsg, append(attrs, slog.Any("error", err))...)
		return
	}
	o.Logger.InfoContext(ctx, okMsg, attrs...)
}

func (o *LoggingObserver) OnConflict(ctx context.Context, dir Direction, entry EntryInfo, pruned int, err error) {
	o.Logger.WarnContext(ctx, "conflict_pruned",
		slog.String("direction", string(dir)),
		slog.String("entry_id", entry.ID),
		slog.String("scope", entry.Scope),
		slog.Int("pruned", pruned),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnHistoryFold(ctx context.Context, added int) {
	o.Logger.DebugContext(ctx, "history_folded", slog.Int("added", added))
}

func (o *LoggingObserver) OnStatusChange(ctx context.Context, status Status) {
	o.Logger.DebugContext(ctx, "status_changed",
		slog.Bool("can_undo", status.CanUndo),
		slog.String("undo", status.UndoDescription),
		slog.String("undo_reason", string(status.CanUndoChangeReason)),
		slog.Bool("can_redo", status.CanRedo),
		slog.String("redo", status.RedoDescription),
		slog.String("redo_reason", string(status.CanRedoChangeReason)),
	)
}

// BasicMetrics collects simple counters and aggregate operation durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	recorded      atomic.Int64
	recordFailed  atomic.Int64
	undone        atomic.Int64
	undoFailed    atomic.Int64
	redone        atomic.Int64
	redoFailed    atomic.Int64
	conflicts     atomic.Int64
	pruned        atomic.Int64
	folded        atomic.Int64
	operations    atomic.Int64
	totalDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Recorded     int64
	RecordFailed int64
	Undone       int64
	UndoFailed   int64
	Redone       int64
	RedoFailed   int64

	Conflicts     int64
	PrunedEntries int64
	FoldedEntries int64
	AvgOpDuration time.Duration
}

func (m *BasicMetrics) OnRecord(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	m.count(&m.recorded, &m.recordFailed, err, d)
}

func (m *BasicMetrics) OnUndo(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	m.count(&m.undone, &m.undoFailed, err, d)
}

func (m *BasicMetrics) OnRedo(ctx context.Context, entry EntryInfo, err error, d time.Duration) {
	m.count(&m.redone, &m.redoFailed, err, d)
}

func (m *BasicMetrics) count(ok, failed *atomic.Int64, err error, d time.Duration) {
	if err != nil {
		failed.Add(1)
		return
	}
	// Only successful operations count towards the average duration.
	ok.Add(1)
	m.operations.Add(1)
	m.totalDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnConflict(ctx context.Context, dir Direction, entry EntryInfo, pruned int, err error) {
	m.conflicts.Add(1)
	m.pruned.Add(int64(pruned))
}

func (m *BasicMetrics) OnHistoryFold(ctx context.Context, added int) {
	m.folded.Add(int64(added))
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	ops := m.operations.Load()
	totalNs := m.totalDuration.Load()

	var avg time.Duration
	if ops > 0 {
		avg = time.Duration(totalNs / ops)
	}

	return BasicMetricsSnapshot{
		Recorded:      m.recorded.Load(),
		RecordFailed:  m.recordFailed.Load(),
		Undone:        m.undone.Load(),
		UndoFailed:    m.undoFailed.Load(),
		Redone:        m.redone.Load(),
		RedoFailed:    m.redoFailed.Load(),
		Conflicts:     m.conflicts.Load(),
		PrunedEntries: m.pruned.Load(),
		FoldedEntries: m.folded.Load(),
		AvgOpDuration: avg,
	}
}
