package api

import "context"

// Command is a reversible action recorded by a Manager.
//
// Implementations are treated as immutable by the manager: it reads the
// scope and descriptions and calls the operations, but never modifies the
// command. Operations may block on I/O; the manager always runs them through
// its serial queue.
type Command interface {
	// ScopeName groups related commands. When the top entry of a stack is
	// found to conflict, every other entry with the same scope is pruned too.
	ScopeName() string

	// Description labels the forward action, e.g. "Rename task".
	Description() string

	// ReverseDescription labels the reverse action, e.g. "Undo rename task".
	ReverseDescription() string

	// Operation applies the forward effect.
	Operation(ctx context.Context) error

	// ReverseOperation takes the forward effect back.
	ReverseOperation(ctx context.Context) error
}

// UndoConflictChecker is implemented by commands that can tell whether they
// are still safe to reverse while sitting on top of the past stack.
type UndoConflictChecker interface {
	HasUndoConflict(ctx context.Context) (bool, error)
}

// RedoConflictChecker is implemented by commands that can tell whether they
// are still safe to re-apply while sitting on top of the future stack.
type RedoConflictChecker interface {
	HasRedoConflict(ctx context.Context) (bool, error)
}

// OperationFunc is the signature of a forward or reverse operation.
type OperationFunc func(ctx context.Context) error

// ConflictFunc is the signature of a conflict predicate.
type ConflictFunc func(ctx context.Context) (bool, error)

// FuncCommand is a Command assembled from functions. Nil conflict functions
// mean "never conflicts"; nil operations are no-ops.
type FuncCommand struct {
	Scope        string
	Desc         string
	ReverseDesc  string
	Do           OperationFunc
	Undo         OperationFunc
	UndoConflict ConflictFunc
	RedoConflict ConflictFunc
}

var (
	_ Command             = (*FuncCommand)(nil)
	_ UndoConflictChecker = (*FuncCommand)(nil)
	_ RedoConflictChecker = (*FuncCommand)(nil)
)

func (c *FuncCommand) ScopeName() string          { return c.Scope }
func (c *FuncCommand) Description() string        { return c.Desc }
func (c *FuncCommand) ReverseDescription() string { return c.ReverseDesc }

func (c *FuncCommand) Operation(ctx context.Context) error {
	if c.Do == nil {
		return nil
	}
	return c.Do(ctx)
}

func (c *FuncCommand) ReverseOperation(ctx context.Context) error {
	if c.Undo == nil {
		return nil
	}
	return c.Undo(ctx)
}

func (c *FuncCommand) HasUndoConflict(ctx context.Context) (bool, error) {
	if c.UndoConflict == nil {
		return false, nil
	}
	return c.UndoConflict(ctx)
}

func (c *FuncCommand) HasRedoConflict(ctx context.Context) (bool, error) {
	if c.RedoConflict == nil {
		return false, nil
	}
	return c.RedoConflict(ctx)
}

// Mirror returns a new command that runs cmd backwards: its Operation is
// cmd's ReverseOperation and vice versa, its undo conflict check is cmd's
// redo conflict check and vice versa, and its descriptions are swapped.
//
// The mirror holds method values bound to cmd, so it keeps calling the
// original behavior without sharing any state of its own with cmd.
func Mirror(cmd Command) *FuncCommand {
	m := &FuncCommand{
		Scope:       cmd.ScopeName(),
		Desc:        cmd.ReverseDescription(),
		ReverseDesc: cmd.Description(),
		Do:          cmd.ReverseOperation,
		Undo:        cmd.Operation,
	}
	if u, ok := cmd.(UndoConflictChecker); ok {
		m.RedoConflict = u.HasUndoConflict
	}
	if r, ok := cmd.(RedoConflictChecker); ok {
		m.UndoConflict = r.HasRedoConflict
	}
	return m
}

// UndoConflict runs cmd's undo conflict check, if it has one.
func UndoConflict(ctx context.Context, cmd Command) (bool, error) {
	if u, ok := cmd.(UndoConflictChecker); ok {
		return u.HasUndoConflict(ctx)
	}
	return false, nil
}

// RedoConflict runs cmd's redo conflict check, if it has one.
func RedoConflict(ctx context.Context, cmd Command) (bool, error) {
	if r, ok := cmd.(RedoConflictChecker); ok {
		return r.HasRedoConflict(ctx)
	}
	return false, nil
}
