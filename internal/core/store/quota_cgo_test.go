//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
)

var _ engine.WindowStore = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.StoreConfig{
		Driver: "libsql",
		Path:   "file:" + t.TempDir() + "/routelens.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestRecordSendKeepsNewest(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, store.RecordSend(ctx, "api.example.org/abcd", base.Add(time.Duration(i)*time.Second), 3))
	}

	times, err := store.LoadSendTimes(ctx, "api.example.org/abcd", 10)
	require.NoError(t, err)
	require.Equal(t, []time.Time{
		base.Add(2 * time.Second),
		base.Add(3 * time.Second),
		base.Add(4 * time.Second),
	}, times)

	times, err = store.LoadSendTimes(ctx, "api.example.org/abcd", 2)
	require.NoError(t, err)
	require.Equal(t, []time.Time{base.Add(3 * time.Second), base.Add(4 * time.Second)}, times)
}

func TestLoadSendTimesUnknownScope(t *testing.T) {
	store := openTestStore(t)

	times, err := store.LoadSendTimes(context.Background(), "nobody", 5)
	require.NoError(t, err)
	require.Empty(t, times)

	_, err = store.LoadSendTimes(context.Background(), " ", 5)
	require.Error(t, err)
}

func TestScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.RecordSend(ctx, "a.example/1111", now, 2))
	require.NoError(t, store.RecordSend(ctx, "b.example/2222", now, 2))
	require.NoError(t, store.RecordSend(ctx, "b.example/2222", now.Add(time.Second), 2))

	a, err := store.LoadSendTimes(ctx, "a.example/1111", 2)
	require.NoError(t, err)
	require.Len(t, a, 1)

	b, err := store.LoadSendTimes(ctx, "b.example/2222", 2)
	require.NoError(t, err)
	require.Len(t, b, 2)
}

func TestQuotaAdmin(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.RecordSend(ctx, "api.openrouteservice.org/aaaa", now, 40))
	require.NoError(t, store.RecordSend(ctx, "api.openrouteservice.org/bbbb", now, 40))
	require.NoError(t, store.RecordSend(ctx, "localhost:8082", now, 2))

	_, err := store.ListQuotas(ctx, QuotaQuery{})
	require.Error(t, err)

	all, err := store.ListQuotas(ctx, QuotaQuery{All: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "api.openrouteservice.org/aaaa", all[0].Scope)
	require.Equal(t, 40, all[0].Capacity)
	require.Equal(t, []time.Time{now}, all[0].Sent)
	require.Equal(t, 1, all[0].InWindow(now))

	count, err := store.CountQuotas(ctx, QuotaQuery{Prefix: "api.openrouteservice.org/"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	removed, err := store.ResetQuotas(ctx, QuotaQuery{Scope: "localhost:8082"})
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	times, err := store.LoadSendTimes(ctx, "localhost:8082", 2)
	require.NoError(t, err)
	require.Empty(t, times)

	removed, err = store.ResetQuotas(ctx, QuotaQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}

func TestPruneBefore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.RecordSend(ctx, "s", now.Add(-2*time.Minute), 10))
	require.NoError(t, store.RecordSend(ctx, "s", now, 10))

	pruned, err := store.PruneBefore(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)
}

func TestSharedWindowAcrossClients(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordSend(ctx, "host/abcd", start, 2))
	require.NoError(t, store.RecordSend(ctx, "host/abcd", start.Add(10*time.Second), 2))

	times, err := store.LoadSendTimes(ctx, "host/abcd", 2)
	require.NoError(t, err)

	window := engine.NewSendWindow(2)
	window.Seed(times)
	require.Equal(t, 30*time.Second, window.Wait(start.Add(30*time.Second)))
}
