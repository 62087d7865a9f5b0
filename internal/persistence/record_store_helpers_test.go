package persistence

import (
	"context"
	"encoding/gob"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type notePayload struct {
	Title string
	Body  string
}

func init() {
	gob.Register(notePayload{})
}

// runRecordStoreContract exercises the behaviour every RecordStore must share.
func runRecordStoreContract(t *testing.T, newStore func(t *testing.T) RecordStore) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "nope")
		require.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		rec, err := s.Apply(ctx, Mutation{Key: "note:1", Value: notePayload{Title: "hello"}})
		require.NoError(t, err)
		require.Equal(t, int64(1), rec.Version)
		require.Equal(t, "set", rec.LastMutation)
		require.True(t, rec.Exists())

		got, err := s.Get(ctx, "note:1")
		require.NoError(t, err)
		require.Equal(t, notePayload{Title: "hello"}, got.Value)
		require.Equal(t, int64(1), got.Version)
		require.False(t, got.Deleted)
	})

	t.Run("VersionsIncreaseAcrossDelete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Apply(ctx, Mutation{Key: "k", Value: "a"})
		require.NoError(t, err)
		del, err := s.Apply(ctx, Mutation{Key: "k", Delete: true})
		require.NoError(t, err)
		require.Equal(t, int64(2), del.Version)
		require.Equal(t, "delete", del.LastMutation)
		require.False(t, del.Exists())

		got, err := s.Get(ctx, "k")
		require.NoError(t, err, "tombstones stay readable")
		require.True(t, got.Deleted)
		require.Nil(t, got.Value)

		again, err := s.Apply(ctx, Mutation{Name: "restore", Key: "k", Value: "b"})
		require.NoError(t, err)
		require.Equal(t, int64(3), again.Version)
		require.Equal(t, "restore", again.LastMutation)
	})

	t.Run("CheckedMutation", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, err := s.Apply(ctx, Mutation{Key: "k", Value: "a", CheckVersion: true, Version: 0})
		require.NoError(t, err, "version 0 matches a key that was never written")

		_, err = s.Apply(ctx, Mutation{Key: "k", Value: "b", CheckVersion: true, Version: 0})
		require.True(t, errors.Is(err, ErrVersionMismatch), "expected ErrVersionMismatch, got %v", err)

		rec, err := s.Apply(ctx, Mutation{Key: "k", Value: "b", CheckVersion: true, Version: 1})
		require.NoError(t, err)
		require.Equal(t, int64(2), rec.Version)

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "b", got.Value)
	})

	t.Run("EmptyKeyRejected", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Apply(context.Background(), Mutation{Value: "x"})
		require.ErrorIs(t, err, ErrInvalidMutation)
	})
}
