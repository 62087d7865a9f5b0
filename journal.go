package rewind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/rewind/pkg/api"
)

// JournalObserver appends manager activity to an EventStore as
// HistoryEvents. The journal is an audit trail for debugging; it is not
// enough to rebuild a manager's stacks.
//
// Append failures are logged and otherwise ignored so that a broken journal
// never affects undo/redo.
type JournalObserver struct {
	api.NoopObserver

	// MaxEvents caps the journal when the store implements EventTrimmer.
	// Zero keeps everything.
	MaxEvents int

	store   EventStore
	journal string
	logger  *slog.Logger
	now     func() time.Time
}

var _ api.Observer = (*JournalObserver)(nil)

// NewJournalObserver returns an observer that writes to store under the
// given journal name. logger receives append failures; nil means
// slog.Default().
func NewJournalObserver(store EventStore, journal string, logger *slog.Logger) *JournalObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalObserver{
		store:   store,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// Journal returns the journal name events are written under.
func (o *JournalObserver) Journal() string {
	return o.journal
}

func (o *JournalObserver) OnRecord(ctx context.Context, entry api.EntryInfo, err error, d time.Duration) {
	o.appendAction(ctx, api.EventRecorded, api.EventRecordFailed, entry, err)
}

func (o *JournalObserver) OnUndo(ctx context.Context, entry api.EntryInfo, err error, d time.Duration) {
	o.appendAction(ctx, api.EventUndone, api.EventUndoFailed, entry, err)
}

func (o *JournalObserver) OnRedo(ctx context.Context, entry api.EntryInfo, err error, d time.Duration) {
	o.appendAction(ctx, api.EventRedone, api.EventRedoFailed, entry, err)
}

func (o *JournalObserver) appendAction(ctx context.Context, ok, failed api.EventType, entry api.EntryInfo, err error) {
	typ, detail := ok, entry.Description
	if err != nil {
		typ, detail = failed, err.Error()
	}
	o.append(ctx, api.HistoryEvent{
		Type:     typ,
		EntryID:  entry.ID,
		Scope:    entry.Scope,
		Mirrored: entry.Mirrored,
		Detail:   detail,
	})
}

func (o *JournalObserver) OnConflict(ctx context.Context, dir api.Direction, entry api.EntryInfo, pruned int, err error) {
	detail := fmt.Sprintf("direction=%s pruned=%d", dir, pruned)
	if err != nil {
		detail += " error=" + err.Error()
	}
	o.append(ctx, api.HistoryEvent{
		Type:     api.EventPruned,
		EntryID:  entry.ID,
		Scope:    entry.Scope,
		Mirrored: entry.Mirrored,
		Detail:   detail,
	})
}

func (o *JournalObserver) OnHistoryFold(ctx context.Context, added int) {
	o.append(ctx, api.HistoryEvent{
		Type:   api.EventFolded,
		Detail: fmt.Sprintf("added=%d", added),
	})
}

func (o *JournalObserver) append(ctx context.Context, ev api.HistoryEvent) {
	ev.Journal = o.journal
	ev.At = o.now()

	// A cancelled caller context still gets its outcome journaled.
	ctx = context.WithoutCancel(ctx)
	if err := o.store.AppendEvent(ctx, ev); err != nil {
		o.logger.ErrorContext(ctx, "journal_append_failed",
			slog.String("journal", o.journal),
			slog.String("type", string(ev.Type)),
			slog.Any("error", err),
		)
		return
	}

	t, ok := o.store.(EventTrimmer)
	if !ok || o.MaxEvents <= 0 {
		return
	}
	if _, err := t.TrimEvents(ctx, o.journal, o.MaxEvents); err != nil {
		o.logger.WarnContext(ctx, "journal_trim_failed",
			slog.String("journal", o.journal),
			slog.Any("error", err),
		)
	}
}
