package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/core/store"
	errwrap "github.com/routelens/routelens/internal/errors"
	"github.com/routelens/routelens/internal/output"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect and manage persisted quota windows",
}

var (
	quotaListOutput  string
	quotaListOut     string
	quotaListOutDir  string
	quotaListAll     bool
	quotaListScope   string
	quotaListPrefix  string
	quotaListCurrent bool
)

var quotaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored quota windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		format, err := output.ParseFormat(quotaListOutput)
		if err != nil {
			return err
		}

		query := store.QuotaQuery{
			All:    quotaListAll,
			Scope:  strings.TrimSpace(quotaListScope),
			Prefix: strings.TrimSpace(quotaListPrefix),
		}
		if quotaListCurrent {
			cfg, err := currentConfig(ctx)
			if err != nil {
				return err
			}
			query = store.QuotaQuery{Scope: engine.QuotaScope(cfg.Client.BaseURL, cfg.Client.APIKey)}
		}
		if !query.All && query.Scope == "" && query.Prefix == "" {
			query.All = true
		}

		db, err := openStore(ctx)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "open quota store")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		states, err := db.ListQuotas(ctx, query)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "list quota windows")
		}

		outPath, err := quotaOutputPath(quotaListOut, quotaListOutDir, "quota.list", format)
		if err != nil {
			return err
		}
		sink, err := openSink(outPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		rendered, err := output.NewFormatter(format).FormatQuotas(states, time.Now())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(sink.writer, rendered)
		return err
	},
}

var (
	quotaResetAll    bool
	quotaResetScope  string
	quotaResetPrefix string
	quotaResetYes    bool
	quotaResetOutput string
	quotaResetOut    string
	quotaResetOutDir string
)

var quotaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget stored send times",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		format, err := output.ParseFormat(quotaResetOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		query := store.QuotaQuery{
			All:    quotaResetAll,
			Scope:  strings.TrimSpace(quotaResetScope),
			Prefix: strings.TrimSpace(quotaResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return errwrap.WrapInvalidInput(ctx, err, err.Error())
		}

		if query.All && !quotaResetYes && !dryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := openStore(ctx)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "open quota store")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountQuotas(ctx, query)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "count quota windows")
		}

		outPath, err := quotaOutputPath(quotaResetOut, quotaResetOutDir, "quota.reset", format)
		if err != nil {
			return err
		}
		sink, err := openSink(outPath, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if dryRun {
			return writeQuotaResetResult(format, sink.writer, matched, 0, true)
		}

		deleted, err := db.ResetQuotas(ctx, query)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "reset quota windows")
		}

		return writeQuotaResetResult(format, sink.writer, matched, deleted, false)
	},
}

var quotaPruneOlderThan time.Duration

var quotaPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete send times older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		if quotaPruneOlderThan < time.Minute {
			return fmt.Errorf("--older-than must be at least %s", time.Minute)
		}

		db, err := openStore(ctx)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "open quota store")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		deleted, err := db.PruneBefore(ctx, time.Now().Add(-quotaPruneOlderThan))
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "prune send times")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d send time(s)\n", deleted)
		return err
	},
}

func quotaOutputPath(outPath, outDir, name string, format output.Format) (string, error) {
	outPath = strings.TrimSpace(outPath)
	outDir = strings.TrimSpace(outDir)
	if outPath != "" && outDir != "" {
		return "", fmt.Errorf("--out and --out-dir are mutually exclusive")
	}
	if outDir == "" {
		return outPath, nil
	}

	dir, err := ensureOutDir(outDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", name, outputExtension(format))), nil
}

func writeQuotaResetResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	result := map[string]any{
		"matched": matched,
		"deleted": deleted,
		"dry_run": dryRun,
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	if dryRun {
		_, err := fmt.Fprintf(w, "Would reset %d quota scope(s)\n", matched)
		return err
	}
	_, err := fmt.Fprintf(w, "Reset %d/%d quota scope(s)\n", deleted, matched)
	return err
}

func init() {
	quotaListCmd.Flags().StringVar(&quotaListOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	quotaListCmd.Flags().StringVar(&quotaListOut, "out", "", "Write output to a file (default stdout)")
	quotaListCmd.Flags().StringVar(&quotaListOutDir, "out-dir", "", "Write output to a directory")
	quotaListCmd.Flags().BoolVar(&quotaListAll, "all", false, "List all scopes")
	quotaListCmd.Flags().StringVar(&quotaListScope, "scope", "", "List a single scope (exact match)")
	quotaListCmd.Flags().StringVar(&quotaListPrefix, "prefix", "", "List scopes with matching prefix")
	quotaListCmd.Flags().BoolVar(&quotaListCurrent, "current", false, "List the scope of the configured base URL and key")

	quotaResetCmd.Flags().BoolVar(&quotaResetAll, "all", false, "Reset all scopes")
	quotaResetCmd.Flags().StringVar(&quotaResetScope, "scope", "", "Reset a single scope (exact match)")
	quotaResetCmd.Flags().StringVar(&quotaResetPrefix, "prefix", "", "Reset scopes with matching prefix")
	quotaResetCmd.Flags().BoolVar(&quotaResetYes, "yes", false, "Confirm destructive reset")
	quotaResetCmd.Flags().StringVar(&quotaResetOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	quotaResetCmd.Flags().StringVar(&quotaResetOut, "out", "", "Write output to a file (default stdout)")
	quotaResetCmd.Flags().StringVar(&quotaResetOutDir, "out-dir", "", "Write output to a directory")

	quotaPruneCmd.Flags().DurationVar(&quotaPruneOlderThan, "older-than", 24*time.Hour, "Delete send times older than this")

	quotaCmd.AddCommand(quotaListCmd)
	quotaCmd.AddCommand(quotaResetCmd)
	quotaCmd.AddCommand(quotaPruneCmd)
	rootCmd.AddCommand(quotaCmd)
}
