package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRecord(buildID, outcome string) PassRecord {
	now := time.Now().Truncate(time.Millisecond)
	return PassRecord{
		BuildID:          buildID,
		Started:          now.Add(-2 * time.Second),
		Finished:         now,
		Outcome:          outcome,
		Documents:        10,
		Tagged:           7,
		Tags:             3,
		PagesWritten:     4,
		PagesUnchanged:   1,
		IndexFingerprint: "fp-" + buildID,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "tagindex.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	rec := testRecord("b1", "success")
	require.NoError(t, store.RecordPass(ctx, rec))

	last, err := store.LastPass(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "b1", last.BuildID)
	require.Equal(t, "success", last.Outcome)
	require.Equal(t, 10, last.Documents)
	require.Equal(t, 7, last.Tagged)
	require.Equal(t, 3, last.Tags)
	require.Equal(t, 4, last.PagesWritten)
	require.Equal(t, 1, last.PagesUnchanged)
	require.Equal(t, "fp-b1", last.IndexFingerprint)
	require.Equal(t, rec.Started.UnixMilli(), last.Started.UnixMilli())
	require.Equal(t, rec.Finished.UnixMilli(), last.Finished.UnixMilli())
}

func TestStoreHistoryNewestFirst(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, store.RecordPass(ctx, testRecord(id, "success")))
	}

	recs, err := store.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "b3", recs[0].BuildID)
	require.Equal(t, "b2", recs[1].BuildID)
}

func TestStoreEmptyHistory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	last, err := store.LastPass(context.Background())
	require.NoError(t, err)
	require.Nil(t, last)

	recs, err := store.History(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagindex.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordPass(context.Background(), testRecord("b1", "partial")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	last, err := reopened.LastPass(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "b1", last.BuildID)
	require.Equal(t, "partial", last.Outcome)
}
