package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/output"
)

func TestQuotaOutputPath(t *testing.T) {
	path, err := quotaOutputPath(" report.json ", "", "quota.list", output.FormatJSON)
	require.NoError(t, err)
	require.Equal(t, "report.json", path)

	dir := t.TempDir()
	path, err = quotaOutputPath("", dir, "quota.list", output.FormatMarkdown)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "quota.list.md"), path)

	_, err = quotaOutputPath("a.json", dir, "quota.list", output.FormatJSON)
	require.Error(t, err)
}

func TestWriteQuotaResetResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeQuotaResetResult(output.FormatTable, &buf, 3, 0, true))
	require.Equal(t, "Would reset 3 quota scope(s)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeQuotaResetResult(output.FormatTable, &buf, 3, 2, false))
	require.Equal(t, "Reset 2/3 quota scope(s)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeQuotaResetResult(output.FormatJSON, &buf, 1, 1, false))
	var result map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Equal(t, float64(1), result["deleted"])
	require.Equal(t, false, result["dry_run"])
}

func TestQuotaCommandsReportStoreFailures(t *testing.T) {
	useConfig(t, &config.Config{Store: config.StoreConfig{Driver: "postgres"}})

	prev := quotaPruneOlderThan
	quotaPruneOlderThan = time.Hour
	t.Cleanup(func() { quotaPruneOlderThan = prev })

	cmd := &cobra.Command{Use: "prune"}
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})

	err := quotaPruneCmd.RunE(cmd, nil)
	require.Error(t, err)

	var envelope *errors.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	require.Equal(t, "DATABASE_ERROR", envelope.Code)
	require.Contains(t, envelope.Context["wrapped_error"], "unsupported store driver")
	require.Equal(t, foundry.ExitFailure, ExitCodeFor(err))
}

func TestQuotaResetRejectsEmptySelection(t *testing.T) {
	prevAll, prevScope, prevPrefix := quotaResetAll, quotaResetScope, quotaResetPrefix
	quotaResetAll, quotaResetScope, quotaResetPrefix = false, " ", ""
	t.Cleanup(func() { quotaResetAll, quotaResetScope, quotaResetPrefix = prevAll, prevScope, prevPrefix })

	cmd := &cobra.Command{Use: "reset"}
	cmd.SetContext(context.Background())

	err := quotaResetCmd.RunE(cmd, nil)
	var envelope *errors.ErrorEnvelope
	require.ErrorAs(t, err, &envelope)
	require.Equal(t, "INVALID_INPUT", envelope.Code)
}
