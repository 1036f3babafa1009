package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(ctx, Entry{Action: ActionDeleteModel, Framework: "tensorflow", Name: "my-model"}))
	require.NoError(t, store.Record(ctx, Entry{Action: ActionSetPriority, Framework: "tensorflow", Name: "my-model", Version: 7}))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, ActionSetPriority, entries[0].Action)
	require.Equal(t, int64(7), entries[0].Version)
}

func TestSQLiteStore_ListDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, Entry{Action: ActionDeleteModel, Framework: "tensorflow", Name: "m"}))
	}
	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}
