package rewind

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/petrijr/rewind/internal/persistence"
	"github.com/petrijr/rewind/pkg/api"
)

// RecordOption customizes a command built by SetRecord or DeleteRecord.
type RecordOption func(*recordCommand)

// WithScope overrides the default scope, which is "record:" + key.
func WithScope(scope string) RecordOption {
	return func(c *recordCommand) { c.scope = scope }
}

// WithEqual overrides how stored values are compared when checking for
// conflicts. The default is reflect.DeepEqual.
func WithEqual(equal func(a, b any) bool) RecordOption {
	return func(c *recordCommand) { c.equal = equal }
}

// WithDescriptions overrides the default forward and reverse descriptions.
func WithDescriptions(desc, reverseDesc string) RecordOption {
	return func(c *recordCommand) {
		c.desc = desc
		c.reverseDesc = reverseDesc
	}
}

// ErrRecordChanged is returned when a record command is reversed after
// something else changed its record.
var ErrRecordChanged = errors.New("rewind: record changed since the command ran")

// SetRecord returns a command that writes value under key in store and, on
// undo, puts back whatever the key held before (or deletes it again).
//
// The command reports an undo conflict when the record no longer holds
// value, and a redo conflict when it no longer holds what undo put back.
// Every write is version-checked against the record it just read.
func SetRecord(store RecordStore, key string, value any, opts ...RecordOption) Command {
	c := newRecordCommand(store, key, opts)
	c.value = value
	if c.desc == "" {
		c.desc = "Set " + key
		c.reverseDesc = "Revert " + key
	}
	return c
}

// DeleteRecord returns a command that deletes key from store and restores
// it on undo. Running it on a missing key fails with ErrRecordNotFound.
func DeleteRecord(store RecordStore, key string, opts ...RecordOption) Command {
	c := newRecordCommand(store, key, opts)
	c.delete = true
	if c.desc == "" {
		c.desc = "Delete " + key
		c.reverseDesc = "Restore " + key
	}
	return c
}

func newRecordCommand(store RecordStore, key string, opts []RecordOption) *recordCommand {
	if store == nil {
		panic("rewind: record command needs a store")
	}
	if key == "" {
		panic("rewind: record command needs a key")
	}
	c := &recordCommand{
		store: store,
		key:   key,
		equal: reflect.DeepEqual,
		scope: "record:" + key,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// recordCommand remembers what the key held before its last forward run,
// so it can put it back and tell whether someone else changed the record.
type recordCommand struct {
	store  RecordStore
	key    string
	value  any
	delete bool
	equal  func(a, b any) bool

	scope       string
	desc        string
	reverseDesc string

	mu     sync.Mutex
	before Record // record as the last forward run found it
}

var (
	_ api.UndoConflictChecker = (*recordCommand)(nil)
	_ api.RedoConflictChecker = (*recordCommand)(nil)
)

func (c *recordCommand) ScopeName() string          { return c.scope }
func (c *recordCommand) Description() string        { return c.desc }
func (c *recordCommand) ReverseDescription() string { return c.reverseDesc }

func (c *recordCommand) Operation(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.current(ctx)
	if err != nil {
		return err
	}
	if c.delete && !cur.Exists() {
		return fmt.Errorf("delete %q: %w", c.key, ErrRecordNotFound)
	}

	m := persistence.Mutation{
		Key:          c.key,
		Delete:       c.delete,
		CheckVersion: true,
		Version:      cur.Version,
	}
	if !c.delete {
		m.Value = c.value
	}

	if _, err := c.store.Apply(ctx, m); err != nil {
		return fmt.Errorf("apply %q: %w", c.key, err)
	}
	c.before = cur
	return nil
}

func (c *recordCommand) ReverseOperation(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.current(ctx)
	if err != nil {
		return err
	}
	if !c.isApplied(cur) {
		return fmt.Errorf("restore %q: %w", c.key, ErrRecordChanged)
	}

	m := persistence.Mutation{
		Name:         "restore",
		Key:          c.key,
		Delete:       !c.before.Exists(),
		CheckVersion: true,
		Version:      cur.Version,
	}
	if !m.Delete {
		m.Value = c.before.Value
	}

	if _, err := c.store.Apply(ctx, m); err != nil {
		return fmt.Errorf("restore %q: %w", c.key, err)
	}
	return nil
}

// HasUndoConflict reports whether the record no longer holds what the last
// forward run wrote.
func (c *recordCommand) HasUndoConflict(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	return !c.isApplied(cur), nil
}

// HasRedoConflict reports whether the record no longer holds what the last
// reverse run put back.
func (c *recordCommand) HasRedoConflict(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	return !c.holds(cur, c.before.Exists(), c.before.Value), nil
}

func (c *recordCommand) isApplied(cur Record) bool {
	return c.holds(cur, !c.delete, c.value)
}

func (c *recordCommand) holds(cur Record, exists bool, value any) bool {
	if cur.Exists() != exists {
		return false
	}
	return !exists || c.equal(cur.Value, value)
}

// current returns the stored record, or a zero-version record when the key
// was never written.
func (c *recordCommand) current(ctx context.Context) (Record, error) {
	rec, err := c.store.Get(ctx, c.key)
	if errors.Is(err, ErrRecordNotFound) {
		return Record{Key: c.key}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read %q: %w", c.key, err)
	}
	return rec, nil
}

// Batch returns a command that applies cmds in order as one undoable step
// and reverses them in the opposite order.
//
// If a child fails, the children already applied in that run are taken
// back again before the error is returned, so a failed batch leaves no
// partial effect behind when rollback succeeds. The batch conflicts when
// any child does.
//
// Record commands in one batch should touch distinct keys; a second write
// to the same key makes the first one report a conflict.
func Batch(scope, desc, reverseDesc string, cmds ...Command) Command {
	children := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		if c != nil {
			children = append(children, c)
		}
	}
	b := &batchCommand{children: children}
	return &api.FuncCommand{
		Scope:        scope,
		Desc:         desc,
		ReverseDesc:  reverseDesc,
		Do:           b.forward,
		Undo:         b.reverse,
		UndoConflict: b.undoConflict,
		RedoConflict: b.redoConflict,
	}
}

type batchCommand struct {
	children []Command
}

func (b *batchCommand) forward(ctx context.Context) error {
	for i, c := range b.children {
		if err := c.Operation(ctx); err != nil {
			err = fmt.Errorf("batch step %d (%s): %w", i, c.Description(), err)
			for j := i - 1; j >= 0; j-- {
				if rerr := b.children[j].ReverseOperation(ctx); rerr != nil {
					err = errors.Join(err, fmt.Errorf("rollback step %d: %w", j, rerr))
				}
			}
			return err
		}
	}
	return nil
}

func (b *batchCommand) reverse(ctx context.Context) error {
	for i := len(b.children) - 1; i >= 0; i-- {
		c := b.children[i]
		if err := c.ReverseOperation(ctx); err != nil {
			err = fmt.Errorf("batch step %d (%s): %w", i, c.ReverseDescription(), err)
			for j := i + 1; j < len(b.children); j++ {
				if rerr := b.children[j].Operation(ctx); rerr != nil {
					err = errors.Join(err, fmt.Errorf("rollback step %d: %w", j, rerr))
				}
			}
			return err
		}
	}
	return nil
}

func (b *batchCommand) undoConflict(ctx context.Context) (bool, error) {
	return b.anyConflict(ctx, api.UndoConflict)
}

func (b *batchCommand) redoConflict(ctx context.Context) (bool, error) {
	return b.anyConflict(ctx, api.RedoConflict)
}

func (b *batchCommand) anyConflict(ctx context.Context, check func(context.Context, api.Command) (bool, error)) (bool, error) {
	for _, c := range b.children {
		conflict, err := check(ctx, c)
		if err != nil || conflict {
			return conflict, err
		}
	}
	return false, nil
}
