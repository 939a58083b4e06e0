//go:build cgo

package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/store"
)

func TestNewDispatcherSharesPersistedWindow(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	cfg := &config.Config{
		Client: config.ClientConfig{
			APIKey:           "shared-key",
			BaseURL:          upstream.URL,
			RetryTimeout:     time.Second,
			QueriesPerMinute: 5,
			PersistQuota:     true,
		},
		Store: config.StoreConfig{
			Driver: "libsql",
			Path:   filepath.Join(t.TempDir(), "quota.db"),
		},
	}
	ctx := context.Background()

	first, err := newDispatcher(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, first.store)
	_, err = first.client.Send(ctx, "/health", nil, nil)
	require.NoError(t, err)
	_, err = first.client.Send(ctx, "/health", nil, nil)
	require.NoError(t, err)
	first.Close()

	db, err := openStoreWith(ctx, cfg.Store)
	require.NoError(t, err)
	states, err := db.ListQuotas(ctx, store.QuotaQuery{All: true})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Len(t, states, 1)
	require.Len(t, states[0].Sent, 2)
	require.Equal(t, 5, states[0].Capacity)

	second, err := newDispatcher(ctx, cfg)
	require.NoError(t, err)
	defer second.Close()
	_, err = second.client.Send(ctx, "/health", nil, nil)
	require.NoError(t, err)
	require.Len(t, second.client.Window(), 3)
}
