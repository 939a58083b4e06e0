package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/core/store"
	"github.com/routelens/routelens/internal/observability"
)

var (
	doctorResetConfig bool
	doctorResetData   bool
	doctorResetAll    bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the installation, configuration and quota store.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext(cmd)
		identity := GetAppIdentity()
		observability.CLILogger.Info("=== " + identity.BinaryName + " doctor ===")
		observability.CLILogger.Info("")

		allChecks := true
		totalChecks := 6
		step := func(n int) string { return fmt.Sprintf("[%d/%d]", n, totalChecks) }

		// Check 1: Go version
		goVersion := runtime.Version()
		observability.CLILogger.Info(step(1)+" Checking Go runtime... ✅ "+goVersion,
			zap.String("go_version", goVersion),
			zap.String("os", runtime.GOOS),
			zap.String("arch", runtime.GOARCH))

		// Check 2: Gofulmen and Crucible
		version := crucible.GetVersion()
		if version.Gofulmen != "" && version.Crucible != "" {
			observability.CLILogger.Info(fmt.Sprintf("%s Checking Gofulmen/Crucible... ✅ v%s / v%s", step(2), version.Gofulmen, version.Crucible))
		} else {
			observability.CLILogger.Warn(step(2) + " Checking Gofulmen/Crucible... ⚠️  version metadata unavailable")
			allChecks = false
		}

		// Check 3: Config
		cfg, cfgErr := currentConfig(ctx)
		if cfgErr != nil {
			observability.CLILogger.Error(step(3)+" Checking configuration... ❌ "+cfgErr.Error(), zap.Error(cfgErr))
			observability.CLILogger.Warn("⚠️  Remaining checks skipped.")
			return
		}
		if used := config.ConfigFileUsed(cfgFile); used != "" {
			observability.CLILogger.Info(step(3)+" Checking configuration... ✅ "+used, zap.String("config_file", used))
		} else {
			observability.CLILogger.Info(step(3) + " Checking configuration... ✅ defaults and environment (no file)")
		}

		// Check 4: API key
		hosted := strings.TrimRight(cfg.Client.BaseURL, "/") == engine.DefaultBaseURL
		switch {
		case cfg.Client.APIKey != "":
			observability.CLILogger.Info(step(4) + " Checking API key... ✅ " + cfg.Redacted().Client.APIKey)
		case hosted:
			observability.CLILogger.Error(step(4)+" Checking API key... ❌ required for "+engine.DefaultBaseURL,
				zap.String("env", identity.EnvPrefix+"API_KEY"))
			allChecks = false
		default:
			observability.CLILogger.Info(step(4) + " Checking API key... ✅ not required for " + cfg.Client.BaseURL)
		}

		// Check 5: Quota store
		if !cfg.Client.PersistQuota {
			observability.CLILogger.Info(step(5) + " Checking quota store... ✅ disabled (in-process window)")
		} else if db, err := openStoreWith(ctx, cfg.Store); err != nil {
			observability.CLILogger.Warn(step(5)+" Checking quota store... ⚠️  cannot open store", zap.Error(err))
			allChecks = false
		} else {
			defer db.Close() //nolint:errcheck
			observability.CLILogger.Info(step(5) + " Checking quota store... ✅ " + describeStore(cfg.Store))

			// Check 6: Current window
			if !reportWindow(ctx, db, cfg, step(6)) {
				allChecks = false
			}
		}
		if !cfg.Client.PersistQuota {
			observability.CLILogger.Info(step(6) + " Checking current window... ✅ skipped (nothing persisted)")
		}

		observability.CLILogger.Info("")
		if allChecks {
			observability.CLILogger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", identity.BinaryName))
		} else {
			observability.CLILogger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		observability.CLILogger.Info("=== End Diagnostics ===")
	},
}

func reportWindow(ctx context.Context, db *store.Store, cfg *config.Config, label string) bool {
	scope := engine.QuotaScope(cfg.Client.BaseURL, cfg.Client.APIKey)
	states, err := db.ListQuotas(ctx, store.QuotaQuery{Scope: scope})
	if err != nil {
		observability.CLILogger.Warn(label+" Checking current window... ⚠️  cannot read quota state", zap.Error(err))
		return false
	}
	if len(states) == 0 {
		observability.CLILogger.Info(label + " Checking current window... ✅ no sends recorded")
		return true
	}

	now := time.Now()
	state := states[0]
	last := "never"
	if n := len(state.Sent); n > 0 {
		last = formatTimeAgo(state.Sent[n-1])
	}
	observability.CLILogger.Info(fmt.Sprintf("%s Checking current window... ✅ %d/%d used, last send %s",
		label, state.InWindow(now), cfg.Client.QueriesPerMinute, last),
		zap.String("scope", scope))
	return true
}

func describeStore(cfg config.StoreConfig) string {
	if cfg.URL != "" {
		return cfg.URL + " (remote)"
	}
	absPath, _ := filepath.Abs(cfg.Path)
	if info, err := os.Stat(absPath); err == nil {
		return fmt.Sprintf("%s (%s)", absPath, formatFileSize(info.Size()))
	}
	return absPath
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset user configuration and/or data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}

		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			configPath := config.DefaultConfigPath()
			if configPath == "" {
				observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			} else if err := os.Remove(configPath); err == nil {
				observability.CLILogger.Info("Config removed", zap.String("path", configPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
			} else {
				return fmt.Errorf("remove config file: %w", err)
			}
		}

		if doctorResetData {
			cfg, err := currentConfig(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; use 'quota reset --all --yes' instead")
			}

			absPath, _ := filepath.Abs(cfg.Store.Path)
			if err := os.Remove(absPath); err == nil {
				observability.CLILogger.Info("Database removed", zap.String("path", absPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Database already removed", zap.String("path", absPath))
			} else {
				return fmt.Errorf("remove database: %w", err)
			}
		}

		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.ConfigFileUsed(cfgFile)
		if configPath == "" {
			return fmt.Errorf("config file not found: %s", config.DefaultConfigPath())
		}

		if _, err := config.LoadWithOptions(commandContext(cmd), config.Options{File: configPath}); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// formatTimeAgo returns a human-readable relative time
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
