package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/rewind/pkg/api"
)

func sampleEvents(journal string) []api.HistoryEvent {
	at := time.Unix(1_700_000_000, 0)
	return []api.HistoryEvent{
		{Journal: journal, At: at, Type: api.EventRecorded, EntryID: "e1", Scope: "note:1", Detail: "Edit note"},
		{Journal: journal, At: at.Add(time.Second), Type: api.EventFolded, Detail: "added=2"},
		{Journal: journal, At: at.Add(2 * time.Second), Type: api.EventUndone, EntryID: "e2", Scope: "note:1", Mirrored: true},
	}
}

func runEventStoreContract(t *testing.T, s EventStore) {
	t.Helper()
	ctx := context.Background()

	for _, ev := range sampleEvents("j1") {
		require.NoError(t, s.AppendEvent(ctx, ev))
	}
	require.NoError(t, s.AppendEvent(ctx, api.HistoryEvent{Journal: "j2", Type: api.EventPruned}))

	got, err := s.ListEvents(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := sampleEvents("j1")
	for i := range want {
		require.Equal(t, want[i].Type, got[i].Type)
		require.Equal(t, want[i].EntryID, got[i].EntryID)
		require.Equal(t, want[i].Scope, got[i].Scope)
		require.Equal(t, want[i].Mirrored, got[i].Mirrored)
		require.Equal(t, want[i].Detail, got[i].Detail)
		require.True(t, want[i].At.Equal(got[i].At), "event %d time mismatch", i)
	}

	other, err := s.ListEvents(ctx, "j2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.False(t, other[0].At.IsZero(), "zero timestamps are filled in")

	none, err := s.ListEvents(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func runEventTrimmerContract(t *testing.T, s interface {
	EventStore
	EventTrimmer
}) {
	t.Helper()
	ctx := context.Background()

	for _, ev := range sampleEvents("j") {
		require.NoError(t, s.AppendEvent(ctx, ev))
	}
	require.NoError(t, s.AppendEvent(ctx, api.HistoryEvent{Journal: "other", Type: api.EventRecorded}))

	n, err := s.TrimEvents(ctx, "j", 2)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.ListEvents(ctx, "j")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, api.EventFolded, got[0].Type, "oldest event is dropped first")

	n, err = s.TrimEvents(ctx, "j", 5)
	require.NoError(t, err)
	require.Zero(t, n)

	other, err := s.ListEvents(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1, "other journals are untouched")
}
