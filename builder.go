package rewind

import (
	"github.com/petrijr/rewind/pkg/api"
)

// CommandBuilder provides a fluent API for assembling commands:
//
//	cmd := rewind.NewCommand("note:1").
//	    Describe("Edit note", "Undo edit note").
//	    Do(apply).
//	    Undo(revert).
//	    Build()
//
//	mgr.Record(ctx, cmd)
type CommandBuilder struct {
	cmd api.FuncCommand
}

// NewCommand creates a builder for a command in the given scope.
func NewCommand(scope string) *CommandBuilder {
	if scope == "" {
		panic("rewind: command scope must not be empty")
	}
	return &CommandBuilder{cmd: api.FuncCommand{Scope: scope}}
}

// Describe sets the forward and reverse descriptions.
func (b *CommandBuilder) Describe(desc, reverseDesc string) *CommandBuilder {
	b.cmd.Desc = desc
	b.cmd.ReverseDesc = reverseDesc
	return b
}

// Do sets the forward operation.
func (b *CommandBuilder) Do(fn OperationFunc) *CommandBuilder {
	b.cmd.Do = fn
	return b
}

// Undo sets the reverse operation.
func (b *CommandBuilder) Undo(fn OperationFunc) *CommandBuilder {
	b.cmd.Undo = fn
	return b
}

// UndoConflict sets the predicate checked while the command is on top of
// the past stack.
func (b *CommandBuilder) UndoConflict(fn ConflictFunc) *CommandBuilder {
	b.cmd.UndoConflict = fn
	return b
}

// RedoConflict sets the predicate checked while the command is on top of
// the future stack.
func (b *CommandBuilder) RedoConflict(fn ConflictFunc) *CommandBuilder {
	b.cmd.RedoConflict = fn
	return b
}

// Build returns the command. Both operations are required; Build panics
// when one is missing, like a malformed definition at init time.
//
// The builder may be reused; each call returns an independent command.
func (b *CommandBuilder) Build() Command {
	if b.cmd.Do == nil {
		panic("rewind: command " + b.cmd.Scope + " has nil Do function")
	}
	if b.cmd.Undo == nil {
		panic("rewind: command " + b.cmd.Scope + " has nil Undo function")
	}
	c := b.cmd
	return &c
}
