package manager

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/rewind/pkg/api"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

// doc is a tiny stand-in for the external store: an ordered list of applied
// labels plus a log of every mutation.
type doc struct {
	mu      sync.Mutex
	items   []string
	effects []string
}

func (d *doc) add(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, label)
	d.effects = append(d.effects, "+"+label)
}

func (d *doc) remove(label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.Index(d.items, label)
	if i < 0 {
		return errors.New("missing " + label)
	}
	d.items = slices.Delete(d.items, i, i+1)
	d.effects = append(d.effects, "-"+label)
	return nil
}

func (d *doc) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.items)
}

func (d *doc) log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.effects)
}

func addCmd(d *doc, label string) *api.FuncCommand {
	return &api.FuncCommand{
		Scope:       "item:" + label,
		Desc:        "Add " + label,
		ReverseDesc: "Remove " + label,
		Do: func(ctx context.Context) error {
			d.add(label)
			return nil
		},
		Undo: func(ctx context.Context) error {
			return d.remove(label)
		},
	}
}

// recordingObserver keeps every callback for assertions.
type recordingObserver struct {
	api.NoopObserver

	mu        sync.Mutex
	records   []error
	undos     []error
	redos     []error
	conflicts []conflictEvent
	folds     []int
	statuses  []api.Status
}

type conflictEvent struct {
	dir    api.Direction
	scope  string
	pruned int
	err    error
}

func (o *recordingObserver) OnRecord(ctx context.Context, e api.EntryInfo, err error, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, err)
}

func (o *recordingObserver) OnUndo(ctx context.Context, e api.EntryInfo, err error, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.undos = append(o.undos, err)
}

func (o *recordingObserver) OnRedo(ctx context.Context, e api.EntryInfo, err error, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.redos = append(o.redos, err)
}

func (o *recordingObserver) OnConflict(ctx context.Context, dir api.Direction, e api.EntryInfo, pruned int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts = append(o.conflicts, conflictEvent{dir: dir, scope: e.Scope, pruned: pruned, err: err})
}

func (o *recordingObserver) OnHistoryFold(ctx context.Context, added int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.folds = append(o.folds, added)
}

func (o *recordingObserver) OnStatusChange(ctx context.Context, st api.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, st)
}

func failures(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T, historyMode bool) (api.Manager, *recordingObserver) {
	t.Helper()

	obs := &recordingObserver{}
	m, err := New(Config{
		HistoryMode: historyMode,
		Queue:       taskqueue.NewSerialQueue(),
		Observer:    obs,
	})
	require.NoError(t, err)
	return m, obs
}
