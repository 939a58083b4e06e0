package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended to also show the build toolchain and the upstream API and quota this configuration dispatches to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		identity := GetAppIdentity()
		_, _ = fmt.Fprintf(out, "%s %s\n", identity.BinaryName, versionInfo.Version)
		if !extended {
			return nil
		}

		_, _ = fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
		_, _ = fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
		_, _ = fmt.Fprintf(out, "Go: %s\n", runtime.Version())
		version := crucible.GetVersion()
		_, _ = fmt.Fprintf(out, "Gofulmen: %s\n", version.Gofulmen)
		_, _ = fmt.Fprintf(out, "Crucible: %s\n", version.Crucible)

		// Version must work without a usable config file.
		if cfg, err := currentConfig(cmd.Context()); err == nil {
			_, _ = fmt.Fprintln(out)
			writeUpstreamInfo(out, cfg)
		}
		return nil
	},
}

// writeUpstreamInfo prints where requests go and which quota they draw from.
// The API key itself is never shown.
func writeUpstreamInfo(out io.Writer, cfg *config.Config) {
	baseURL := strings.TrimRight(cfg.Client.BaseURL, "/")
	if baseURL == "" {
		baseURL = engine.DefaultBaseURL
	}
	qpm := cfg.Client.QueriesPerMinute
	if qpm <= 0 {
		qpm = engine.DefaultQueriesPerMinute
	}
	key := "not set"
	if cfg.Client.APIKey != "" {
		key = "set"
	}
	store := "in-process window"
	if cfg.Client.PersistQuota && cfg.Store.Driver != "" {
		store = cfg.Store.Driver
	}

	_, _ = fmt.Fprintf(out, "Upstream: %s\n", baseURL)
	_, _ = fmt.Fprintf(out, "API key: %s\n", key)
	_, _ = fmt.Fprintf(out, "Quota: %d queries/minute (scope %s)\n", qpm, engine.QuotaScope(baseURL, cfg.Client.APIKey))
	_, _ = fmt.Fprintf(out, "Quota store: %s\n", store)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show build, upstream and quota details")
}
