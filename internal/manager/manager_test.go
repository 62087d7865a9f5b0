package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/rewind/pkg/api"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

func TestNew_RequiresQueue(t *testing.T) {
	m, err := New(Config{})
	require.ErrorIs(t, err, ErrMissingQueue)
	require.Nil(t, m)
}

func TestManager_InitialStatus(t *testing.T) {
	m, _ := newTestManager(t, false)

	require.Equal(t, api.InitialStatus(), m.UndoRedoStatus())
	past, future := m.Depth()
	require.Zero(t, past)
	require.Zero(t, future)
}

func TestManager_RecordUndoRedoScenario(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, obs := newTestManager(t, false)

	m.Record(ctx, addCmd(d, "A"))
	require.Equal(t, api.Status{
		CanUndo:             true,
		UndoDescription:     "Remove A",
		CanUndoChangeReason: api.ReasonDo,
		CanRedoChangeReason: api.ReasonDo,
	}, m.UndoRedoStatus())

	m.Undo(ctx)
	require.Equal(t, api.Status{
		CanRedo:             true,
		RedoDescription:     "Add A",
		CanUndoChangeReason: api.ReasonUndo,
		CanRedoChangeReason: api.ReasonUndo,
	}, m.UndoRedoStatus())

	m.Redo(ctx)
	require.Equal(t, api.Status{
		CanUndo:             true,
		UndoDescription:     "Remove A",
		CanUndoChangeReason: api.ReasonRedo,
		CanRedoChangeReason: api.ReasonRedo,
	}, m.UndoRedoStatus())

	require.Len(t, obs.statuses, 3)
	require.Equal(t, []string{"A"}, d.snapshot())
}

func TestManager_RecordFailureIsNotPushed(t *testing.T) {
	ctx := context.Background()
	m, obs := newTestManager(t, false)

	boom := errors.New("store rejected mutation")
	m.Record(ctx, &api.FuncCommand{
		Scope: "x",
		Desc:  "Break",
		Do:    func(ctx context.Context) error { return boom },
	})

	st := m.UndoRedoStatus()
	require.False(t, st.CanUndo)
	require.False(t, st.CanRedo)

	past, _ := m.Depth()
	require.Zero(t, past)

	require.Equal(t, 1, failures(obs.records), "failure must be reported exactly once")
	require.ErrorIs(t, obs.records[0], boom)
}

func TestManager_RecordNilIsIgnored(t *testing.T) {
	m, obs := newTestManager(t, false)

	m.Record(context.Background(), nil)

	require.Empty(t, obs.records)
	require.Equal(t, api.InitialStatus(), m.UndoRedoStatus())
}

func TestManager_UndoRedoOnEmptyStacksAreNoops(t *testing.T) {
	ctx := context.Background()
	m, obs := newTestManager(t, false)

	m.Undo(ctx)
	m.Redo(ctx)

	require.Empty(t, obs.undos)
	require.Empty(t, obs.redos)
	require.Empty(t, obs.statuses)
}

func TestManager_InverseLaw(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, _ := newTestManager(t, false)

	m.Record(ctx, addCmd(d, "A"))
	m.Undo(ctx)
	m.Redo(ctx)

	require.Equal(t, []string{"+A", "-A", "+A"}, d.log())
	require.Equal(t, []string{"A"}, d.snapshot(), "net effect equals a single forward operation")
}

func TestManager_SquashModeDiscardsFuture(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, obs := newTestManager(t, false)

	m.Record(ctx, addCmd(d, "A"))
	m.Undo(ctx)
	m.Record(ctx, addCmd(d, "B"))

	_, future := m.Depth()
	require.Zero(t, future)
	require.False(t, m.UndoRedoStatus().CanRedo)

	m.Redo(ctx)
	require.Empty(t, obs.redos, "redo must be a no-op")
	require.Equal(t, []string{"B"}, d.snapshot())
	require.Empty(t, obs.folds)
}

func TestManager_HistoryModeLinearizesAbandonedBranch(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, obs := newTestManager(t, true)

	m.Record(ctx, addCmd(d, "A"))
	m.Record(ctx, addCmd(d, "B"))
	m.Undo(ctx)
	m.Record(ctx, addCmd(d, "C"))

	require.Equal(t, []int{2}, obs.folds)
	past, future := m.Depth()
	require.Equal(t, 4, past, "A, B, mirror(B), C")
	require.Zero(t, future)
	require.Equal(t, []string{"A", "C"}, d.snapshot())

	m.Undo(ctx)
	require.Equal(t, []string{"A"}, d.snapshot(), "first undo reverses C")
	require.Equal(t, "Add B", m.UndoRedoStatus().UndoDescription, "next undo replays B")

	m.Undo(ctx)
	require.Equal(t, []string{"A", "B"}, d.snapshot(), "second undo restores B")
	require.Equal(t, "Remove B", m.UndoRedoStatus().UndoDescription)

	m.Undo(ctx)
	require.Equal(t, []string{"A"}, d.snapshot(), "third undo reverses B again")
	require.Equal(t, "Remove A", m.UndoRedoStatus().UndoDescription)

	require.Zero(t, failures(obs.undos))
}

func TestManager_HistoryModeFoldOrder(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, _ := newTestManager(t, true)

	m.Record(ctx, addCmd(d, "A"))
	m.Record(ctx, addCmd(d, "B"))
	m.Record(ctx, addCmd(d, "C"))
	m.Undo(ctx)
	m.Undo(ctx)
	// future is [C, B] (B on top); the state is just A.
	m.Record(ctx, addCmd(d, "D"))

	past, _ := m.Depth()
	require.Equal(t, 6, past, "A, B, C, mirror(C), mirror(B), D")

	var descriptions []string
	for i := 0; i < 5; i++ {
		descriptions = append(descriptions, m.UndoRedoStatus().UndoDescription)
		m.Undo(ctx)
	}

	require.Equal(t, []string{"Remove D", "Add B", "Add C", "Remove C", "Remove B"}, descriptions)
	require.Equal(t, []string{"A"}, d.snapshot())
	require.Equal(t, "Remove A", m.UndoRedoStatus().UndoDescription)
}

func TestManager_HistoryModeOffWithEmptyFutureDoesNotFold(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, obs := newTestManager(t, true)

	m.Record(ctx, addCmd(d, "A"))
	m.Record(ctx, addCmd(d, "B"))

	require.Empty(t, obs.folds)
	past, _ := m.Depth()
	require.Equal(t, 2, past)
}

func TestManager_FailedUndoDropsEntry(t *testing.T) {
	ctx := context.Background()
	m, obs := newTestManager(t, false)

	boom := errors.New("reverse rejected")
	m.Record(ctx, &api.FuncCommand{Scope: "a", Desc: "Do a", ReverseDesc: "Undo a"})
	m.Record(ctx, &api.FuncCommand{
		Scope:       "b",
		Desc:        "Do b",
		ReverseDesc: "Undo b",
		Undo:        func(ctx context.Context) error { return boom },
	})

	m.Undo(ctx)

	past, future := m.Depth()
	require.Equal(t, 1, past)
	require.Zero(t, future, "failed reverse is not redoable")
	require.Equal(t, "Undo a", m.UndoRedoStatus().UndoDescription)
	require.Equal(t, api.ReasonUndo, m.UndoRedoStatus().CanUndoChangeReason)
	require.Equal(t, 1, failures(obs.undos))
}

func TestManager_FailedRedoDropsEntry(t *testing.T) {
	ctx := context.Background()
	m, obs := newTestManager(t, false)

	calls := 0
	m.Record(ctx, &api.FuncCommand{
		Scope:       "a",
		Desc:        "Do a",
		ReverseDesc: "Undo a",
		Do: func(ctx context.Context) error {
			calls++
			if calls > 1 {
				return errors.New("second apply rejected")
			}
			return nil
		},
	})
	m.Undo(ctx)
	m.Redo(ctx)

	past, future := m.Depth()
	require.Zero(t, past)
	require.Zero(t, future)
	require.False(t, m.UndoRedoStatus().CanUndo)
	require.False(t, m.UndoRedoStatus().CanRedo)
	require.Equal(t, 1, failures(obs.redos))
}

func TestManager_CancelledContextKeepsEntry(t *testing.T) {
	d := &doc{}
	m, obs := newTestManager(t, false)

	m.Record(context.Background(), addCmd(d, "A"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Undo(ctx)

	past, future := m.Depth()
	require.Equal(t, 1, past, "an undo that never started must not lose the entry")
	require.Zero(t, future)
	require.Equal(t, []string{"A"}, d.snapshot())
	require.Len(t, obs.undos, 1)
	require.ErrorIs(t, obs.undos[0], taskqueue.ErrNotStarted)
}

func TestManager_SubscribeReplaysAndFollowsChanges(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, _ := newTestManager(t, false)

	m.Record(ctx, addCmd(d, "A"))

	var seen []api.Status
	unsubscribe := m.SubscribeToCanUndoRedoChange(func(st api.Status) { seen = append(seen, st) })

	require.Len(t, seen, 1, "exactly one synchronous replay")
	require.Equal(t, m.UndoRedoStatus(), seen[0])

	m.Undo(ctx)
	require.Len(t, seen, 2)
	require.True(t, seen[1].CanRedo)

	unsubscribe()
	m.Redo(ctx)
	require.Len(t, seen, 2)
}

func TestManager_StatusIsReturnedByValue(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, false)
	m.Record(ctx, &api.FuncCommand{Scope: "a", Desc: "Do a", ReverseDesc: "Undo a"})

	st := m.UndoRedoStatus()
	st.UndoDescription = "tampered"

	require.Equal(t, "Undo a", m.UndoRedoStatus().UndoDescription)
}

func TestManager_CustomStatusEquality(t *testing.T) {
	ctx := context.Background()
	m, err := New(Config{
		Queue:    taskqueue.NewSerialQueue(),
		Observer: api.NoopObserver{},
		StatusEqual: func(a, b api.Status) bool {
			return a.CanUndo == b.CanUndo && a.CanRedo == b.CanRedo
		},
	})
	require.NoError(t, err)

	var calls int
	m.SubscribeToCanUndoRedoChange(func(api.Status) { calls++ })

	m.Record(ctx, &api.FuncCommand{Scope: "a"})
	m.Record(ctx, &api.FuncCommand{Scope: "b"})
	m.Record(ctx, &api.FuncCommand{Scope: "c"})

	require.Equal(t, 2, calls, "replay + first availability change only")
}

func TestManager_MaxHistoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, err := New(Config{
		MaxHistory: 2,
		Queue:      taskqueue.NewSerialQueue(),
		Observer:   api.NoopObserver{},
	})
	require.NoError(t, err)

	for _, label := range []string{"A", "B", "C"} {
		m.Record(ctx, addCmd(d, label))
	}

	past, _ := m.Depth()
	require.Equal(t, 2, past)

	m.Undo(ctx)
	m.Undo(ctx)
	m.Undo(ctx)
	require.Equal(t, []string{"A"}, d.snapshot(), "A fell off the history")
	require.False(t, m.UndoRedoStatus().CanUndo)
}

func TestManager_ClearDropsBothStacks(t *testing.T) {
	ctx := context.Background()
	d := &doc{}
	m, _ := newTestManager(t, false)

	m.Record(ctx, addCmd(d, "A"))
	m.Record(ctx, addCmd(d, "B"))
	m.Undo(ctx)

	m.Clear(ctx)

	past, future := m.Depth()
	require.Zero(t, past)
	require.Zero(t, future)
	require.Equal(t, api.InitialStatus(), m.UndoRedoStatus())
	require.Equal(t, []string{"A"}, d.snapshot(), "Clear never touches the store")
}
