package manager

import (
	"context"
	"errors"

	"github.com/petrijr/rewind/pkg/api"
	"github.com/petrijr/rewind/pkg/taskqueue"
)

// removeConflictingEntries asks the top of each stack whether it still
// applies and prunes it, together with every other entry of its scope on
// the same stack, until the top is safe or the stack is empty. It reports
// for each stack whether anything was pruned from it.
func (m *managerImpl) removeConflictingEntries(ctx context.Context) (undoPruned, redoPruned bool) {
	undoPruned = m.pruneStack(ctx, &m.past, api.DirectionUndo, api.UndoConflict)
	redoPruned = m.pruneStack(ctx, &m.future, api.DirectionRedo, api.RedoConflict)
	return undoPruned, redoPruned
}

type conflictCheck func(ctx context.Context, cmd api.Command) (bool, error)

func (m *managerImpl) pruneStack(ctx context.Context, stack *[]entry, dir api.Direction, check conflictCheck) bool {
	pruned := false
	for len(*stack) > 0 {
		top := (*stack)[len(*stack)-1]

		conflict, err := taskqueue.Do(ctx, m.queue, func(ctx context.Context) (bool, error) {
			return check(ctx, top.cmd)
		})
		if errors.Is(err, taskqueue.ErrNotStarted) || (err != nil && ctx.Err() != nil) {
			// The check never got a chance to run; keep the stack as is.
			return pruned
		}
		if err != nil {
			// An entry that cannot be shown to be safe is treated as stale.
			conflict = true
		}
		if !conflict {
			return pruned
		}

		*stack = (*stack)[:len(*stack)-1]
		removed := 1 + removeScope(stack, top.cmd.ScopeName())
		m.observer.OnConflict(ctx, dir, top.info(), removed, err)
		pruned = true
	}
	return pruned
}

// removeScope deletes every entry of scope from stack, preserving the order
// of the rest, and returns how many were removed.
func removeScope(stack *[]entry, scope string) int {
	kept := (*stack)[:0]
	for _, e := range *stack {
		if e.cmd.ScopeName() != scope {
			kept = append(kept, e)
		}
	}
	removed := len(*stack) - len(kept)
	clear((*stack)[len(kept):])
	*stack = kept
	return removed
}
