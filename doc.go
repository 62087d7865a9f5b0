// Package rewind provides an undo/redo manager for applications whose
// state lives in an external data store.
//
// Every user-visible change is wrapped in a Command that knows how to apply
// itself and how to take itself back. A Manager records commands on a past
// stack, moves them to a future stack on Undo and back again on Redo, and
// publishes a Status value that UI code can subscribe to.
//
// # Core Concepts
//
//  1. Command
//  2. Manager
//  3. Serial queue
//  4. Record stores and ready-made commands
//  5. Observers and the history journal
//  6. LocalRunner
//
// # Command
//
// A Command has a scope name, a description of its forward and reverse
// action, and the two operations themselves. Commands may also implement
// UndoConflictChecker or RedoConflictChecker to report that the data they
// touch was changed by someone else since they last ran.
//
// Commands are usually built with NewCommand:
//
//	cmd := rewind.NewCommand("task:42").
//	    Describe("Rename task", "Undo rename task").
//	    Do(rename).
//	    Undo(restoreName).
//	    UndoConflict(renamedElsewhere).
//	    Build()
//
// or, for a store-backed value, with SetRecord and DeleteRecord.
//
// # Manager
//
// Record runs a command and pushes it onto the past stack. Undo and Redo
// walk the stacks. Before publishing a new Status the manager asks the top
// entry of each stack whether it conflicts; a conflicting entry is removed
// together with every other entry of the same scope on that stack.
//
// In squash mode (the default) recording a new command discards the future
// stack. In history mode the abandoned future is folded into the past stack
// instead, so every state ever reached stays reachable through Undo.
//
// # Serial queue
//
// All operations and conflict checks run through a taskqueue.Queue, one at
// a time and in submission order. Managers that share a queue never run
// their commands concurrently.
//
// # Observers
//
// A Manager reports every operation, conflict and status change to an
// Observer. LoggingObserver writes log/slog records, BasicMetrics keeps
// counters, metrics.PrometheusObserver exports them to Prometheus and
// JournalObserver appends them to an EventStore.
//
// # LocalRunner
//
// LocalRunner bundles an in-memory store, a queue, a journal and a manager
// for development and tests.
//
// For examples, see the /examples directory.
package rewind
