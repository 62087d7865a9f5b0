package api

import "context"

// Manager records commands and walks them backwards and forwards.
//
// None of the methods return errors. Operation failures are reported to
// the configured Observer and the affected entry leaves history, so UI code
// can call these fire-and-forget.
type Manager interface {
	// Record runs cmd's Operation and, on success, pushes it onto the past
	// stack. The future stack is cleared, after being folded into the past
	// stack first when history mode is enabled.
	Record(ctx context.Context, cmd Command)

	// Undo reverses the top entry of the past stack and moves it to the
	// future stack. A failed reverse drops the entry. No-op when there is
	// nothing to undo.
	Undo(ctx context.Context)

	// Redo re-applies the top entry of the future stack and moves it back to
	// the past stack. A failed redo drops the entry. No-op when there is
	// nothing to redo.
	Redo(ctx context.Context)

	// Refresh re-runs conflict pruning and publishes the resulting status.
	// Call it after observing remote changes to the external store.
	Refresh(ctx context.Context)

	// Clear drops both stacks.
	Clear(ctx context.Context)

	// UndoRedoStatus returns a copy of the last published status.
	UndoRedoStatus() Status

	// SubscribeToCanUndoRedoChange registers fn for status changes. fn is
	// called once immediately with the current status. The returned function
	// unsubscribes.
	SubscribeToCanUndoRedoChange(fn func(Status)) (unsubscribe func())

	// Depth returns the current sizes of the past and future stacks.
	Depth() (past, future int)
}
