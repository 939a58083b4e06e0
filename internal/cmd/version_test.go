package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
)

func TestVersionExtendedShowsUpstreamAndQuota(t *testing.T) {
	cfg := upstreamConfig("https://ors.example.org/")
	cfg.Client.QueriesPerMinute = 0
	cfg.Client.PersistQuota = true
	cfg.Store = config.StoreConfig{Driver: "libsql"}
	useConfig(t, cfg)

	prev := extended
	extended = true
	t.Cleanup(func() { extended = prev })

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.SetContext(context.Background())
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	require.NoError(t, versionCmd.RunE(versionCmd, nil))

	text := out.String()
	require.Contains(t, text, "Upstream: https://ors.example.org\n")
	require.Contains(t, text, "API key: set\n")
	require.Contains(t, text, "Quota: 40 queries/minute (scope "+engine.QuotaScope("https://ors.example.org", "cli-key")+")")
	require.Contains(t, text, "Quota store: libsql\n")
	require.NotContains(t, text, "cli-key")
}

func TestWriteUpstreamInfoDefaults(t *testing.T) {
	var out bytes.Buffer
	writeUpstreamInfo(&out, &config.Config{})

	text := out.String()
	require.Contains(t, text, "Upstream: "+engine.DefaultBaseURL+"\n")
	require.Contains(t, text, "API key: not set\n")
	require.Contains(t, text, "Quota store: in-process window\n")
}
