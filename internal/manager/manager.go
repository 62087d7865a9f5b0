// Package manager implements the undo/redo manager behind rewind.Manager.
package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/rewind/pkg/api"
	"github.com/petrijr/rewind/pkg/observable"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

// ErrMissingQueue is returned by New when Config.Queue is nil.
var ErrMissingQueue = errors.New("rewind: a serial queue is required")

// Config describes how to construct a manager.
type Config struct {
	// HistoryMode folds an abandoned future stack into the past stack on
	// Record instead of discarding it.
	HistoryMode bool

	// MaxHistory caps the past stack; the oldest entries are evicted first.
	// Zero means unbounded.
	MaxHistory int

	// Queue runs every operation and conflict check. Required.
	Queue taskqueue.Queue

	// StatusEqual decides whether a recomputed status is a change worth
	// publishing. Defaults to ==.
	StatusEqual func(a, b api.Status) bool

	// Observer receives lifecycle callbacks. Defaults to a LoggingObserver
	// on slog.Default().
	Observer api.Observer
}

// entry is a command on one of the stacks.
type entry struct {
	id       string
	cmd      api.Command
	mirrored bool
}

func newEntry(cmd api.Command, mirrored bool) entry {
	return entry{id: uuid.NewString(), cmd: cmd, mirrored: mirrored}
}

func (e entry) info() api.EntryInfo {
	return api.EntryInfo{
		ID:                 e.id,
		Scope:              e.cmd.ScopeName(),
		Description:        e.cmd.Description(),
		ReverseDescription: e.cmd.ReverseDescription(),
		Mirrored:           e.mirrored,
	}
}

// managerImpl owns the past and future stacks. Index 0 is the oldest entry,
// the last index is the top.
type managerImpl struct {
	mu sync.Mutex

	past   []entry
	future []entry

	historyMode bool
	maxHistory  int

	queue    taskqueue.Queue
	status   *observable.Cell[api.Status]
	observer api.Observer
}

// Ensure managerImpl implements api.Manager.
var _ api.Manager = (*managerImpl)(nil)

// New validates cfg and returns a manager with empty stacks.
func New(cfg Config) (api.Manager, error) {
	if cfg.Queue == nil {
		return nil, ErrMissingQueue
	}
	if cfg.MaxHistory < 0 {
		cfg.MaxHistory = 0
	}

	var status *observable.Cell[api.Status]
	if cfg.StatusEqual != nil {
		status = observable.NewWithEqual(api.InitialStatus(), cfg.StatusEqual)
	} else {
		status = observable.New(api.InitialStatus())
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NewLoggingObserver(nil)
	}

	return &managerImpl{
		historyMode: cfg.HistoryMode,
		maxHistory:  cfg.MaxHistory,
		queue:       cfg.Queue,
		status:      status,
		observer:    obs,
	}, nil
}

func (m *managerImpl) Record(ctx context.Context, cmd api.Command) {
	if cmd == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.historyMode && len(m.future) > 0 {
		m.foldFuture(ctx)
	}
	m.future = nil

	e := newEntry(cmd, false)
	d, err := m.run(ctx, cmd.Operation)
	m.observer.OnRecord(ctx, e.info(), err, d)
	if err == nil {
		m.pushPast(e)
	}

	m.publish(ctx, api.ReasonDo)
}

// foldFuture appends the future stack to the past stack twice: first the
// entries as they are, top of future first, then their mirrors, bottom of
// future first. Undoing through the result replays the abandoned branch
// and then takes it back again, ending at the branch point.
func (m *managerImpl) foldFuture(ctx context.Context) {
	added := 0
	for i := len(m.future) - 1; i >= 0; i-- {
		m.past = append(m.past, m.future[i])
		added++
	}
	for i := 0; i < len(m.future); i++ {
		m.past = append(m.past, newEntry(api.Mirror(m.future[i].cmd), !m.future[i].mirrored))
		added++
	}
	m.evict()
	m.observer.OnHistoryFold(ctx, added)
}

func (m *managerImpl) Undo(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.past) == 0 {
		return
	}
	e := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]

	d, err := m.run(ctx, e.cmd.ReverseOperation)
	switch {
	case err == nil:
		m.future = append(m.future, e)
	case errors.Is(err, taskqueue.ErrNotStarted):
		// Never ran, so the store is untouched.
		m.past = append(m.past, e)
	}
	m.observer.OnUndo(ctx, e.info(), err, d)

	m.publish(ctx, api.ReasonUndo)
}

func (m *managerImpl) Redo(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.future) == 0 {
		return
	}
	e := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]

	d, err := m.run(ctx, e.cmd.Operation)
	switch {
	case err == nil:
		m.pushPast(e)
	case errors.Is(err, taskqueue.ErrNotStarted):
		m.future = append(m.future, e)
	}
	m.observer.OnRedo(ctx, e.info(), err, d)

	m.publish(ctx, api.ReasonRedo)
}

func (m *managerImpl) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.publish(ctx, api.ReasonNoChange)
}

func (m *managerImpl) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.past = nil
	m.future = nil
	m.publish(ctx, api.ReasonNoChange)
}

func (m *managerImpl) UndoRedoStatus() api.Status {
	return m.status.Get()
}

func (m *managerImpl) SubscribeToCanUndoRedoChange(fn func(api.Status)) func() {
	return m.status.Subscribe(fn)
}

func (m *managerImpl) Depth() (past, future int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.past), len(m.future)
}

// run executes op on the queue and waits for it to settle even if ctx is
// cancelled meanwhile: the stacks must reflect what really happened.
func (m *managerImpl) run(ctx context.Context, op api.OperationFunc) (time.Duration, error) {
	start := time.Now()
	err := m.queue.Submit(ctx, taskqueue.Task(op)).Err()
	return time.Since(start), err
}

func (m *managerImpl) pushPast(e entry) {
	m.past = append(m.past, e)
	m.evict()
}

func (m *managerImpl) evict() {
	if m.maxHistory <= 0 || len(m.past) <= m.maxHistory {
		return
	}
	drop := len(m.past) - m.maxHistory
	clear(m.past[:drop])
	m.past = m.past[drop:]
}

// publish prunes conflicting entries, then computes and publishes the
// status for reason.
func (m *managerImpl) publish(ctx context.Context, reason api.ChangeReason) {
	undoPruned, redoPruned := m.removeConflictingEntries(ctx)

	st := api.Status{
		CanUndoChangeReason: reason,
		CanRedoChangeReason: reason,
	}
	if undoPruned {
		st.CanUndoChangeReason = api.ReasonConflict
	}
	if redoPruned {
		st.CanRedoChangeReason = api.ReasonConflict
	}
	if n := len(m.past); n > 0 {
		st.CanUndo = true
		st.UndoDescription = m.past[n-1].cmd.ReverseDescription()
	}
	if n := len(m.future); n > 0 {
		st.CanRedo = true
		st.RedoDescription = m.future[n-1].cmd.Description()
	}

	if m.status.Set(st) {
		m.observer.OnStatusChange(ctx, st)
	}
}
