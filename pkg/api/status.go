package api

// ChangeReason explains why a Status value was published.
type ChangeReason string

const (
	ReasonDo       ChangeReason = "Do"
	ReasonUndo     ChangeReason = "Undo"
	ReasonRedo     ChangeReason = "Redo"
	ReasonConflict ChangeReason = "Conflict"
	ReasonNoChange ChangeReason = "NoChange"
)

// Status is the undo/redo availability published by a Manager.
//
// CanUndo is false when the past stack is empty; otherwise UndoDescription
// is the reverse description of its top entry. CanRedo and RedoDescription
// mirror that for the future stack. Each reason is ReasonConflict when
// conflict pruning removed entries from its own stack while computing this
// value; otherwise it is the reason of the action that triggered the
// computation.
type Status struct {
	CanUndo         bool
	UndoDescription string

	CanRedo         bool
	RedoDescription string

	CanUndoChangeReason ChangeReason
	CanRedoChangeReason ChangeReason
}

// InitialStatus is the status of a manager with empty stacks.
func InitialStatus() Status {
	return Status{
		CanUndoChangeReason: ReasonNoChange,
		CanRedoChangeReason: ReasonNoChange,
	}
}
