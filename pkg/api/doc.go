// Package api contains the contracts shared by the rewind undo/redo manager,
// its commands, and the code that observes it.
//
// Most users interact with the higher-level rewind package, which re-exports
// selected types and helpers from this package. The api package is intended
// for custom Command implementations, custom observers, and contributors
// extending the manager itself.
//
// # Commands
//
// A Command is a reversible unit of work: Operation applies an effect to
// external state and ReverseOperation takes it back. Commands carry a scope
// name, used to prune related entries together, and two human-readable
// descriptions that presentation layers show on undo/redo affordances.
//
// A command may additionally implement UndoConflictChecker and
// RedoConflictChecker. The manager consults them before publishing status
// and discards entries that are no longer safe to apply. Commands that do
// not implement them never conflict.
//
// FuncCommand is a closure-backed Command, and Mirror builds the inverted
// copy of a command that history mode stores when it linearizes an
// abandoned redo branch.
//
// # Status
//
// Status is the immutable value a Manager publishes after every change. It
// tells the UI whether undo/redo is available, what to call it, and why it
// changed (ChangeReason).
//
// # Observability
//
// The Observer interface receives manager lifecycle callbacks. Ready-made
// implementations cover structured logging (LoggingObserver), in-memory
// counters (BasicMetrics), and fan-out (NewCompositeObserver).
package api
