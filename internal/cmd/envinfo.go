package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== RouteLens Environment Information ===")
		observability.CLILogger.Info("")

		// Application Info
		identity := GetAppIdentity()
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + identity.BinaryName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := currentConfig(commandContext(cmd))
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			observability.CLILogger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			observability.CLILogger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		configFile := config.ConfigFileUsed(cfgFile)
		if configFile == "" {
			configFile = "(none)"
		}
		observability.CLILogger.Info("  Config File:    "+configFile, zap.String("config_file", configFile))
		observability.CLILogger.Info("")

		// Client Configuration
		observability.CLILogger.Info("Client:")
		observability.CLILogger.Info("  Base URL:       "+cfg.Client.BaseURL, zap.String("base_url", cfg.Client.BaseURL))
		observability.CLILogger.Info("  API Key:        "+keyStatus(cfg.Redacted().Client.APIKey))
		observability.CLILogger.Info(fmt.Sprintf("  Quota:          %d/min", cfg.Client.QueriesPerMinute), zap.Int("queries_per_minute", cfg.Client.QueriesPerMinute))
		observability.CLILogger.Info(fmt.Sprintf("  Retry 429:      %t", cfg.Client.RetryOverQueryLimit))
		observability.CLILogger.Info("  Retry Timeout:  " + cfg.Client.RetryTimeout.String())
		observability.CLILogger.Info("  Timeout:        " + cfg.Client.Timeout.String())
		observability.CLILogger.Info(fmt.Sprintf("  Persist Quota:  %t", cfg.Client.PersistQuota))
		if cfg.Client.ProxyURL != "" {
			observability.CLILogger.Info("  Proxy:          " + cfg.Client.ProxyURL)
		}
		observability.CLILogger.Info("  Scope:          " + engine.QuotaScope(cfg.Client.BaseURL, cfg.Client.APIKey))
		observability.CLILogger.Info("")

		// Relay Configuration
		observability.CLILogger.Info("Relay:")
		observability.CLILogger.Info(fmt.Sprintf("  Per-Client Rate:  %.2f/s (burst %d)", cfg.Relay.PerClientRate, cfg.Relay.PerClientBurst))
		observability.CLILogger.Info("  Client Header:    " + cfg.Relay.ClientHeader)
		observability.CLILogger.Info(fmt.Sprintf("  Max Body:         %s", formatFileSize(cfg.Relay.MaxBodyBytes)))
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func keyStatus(redacted string) string {
	if redacted == "" {
		return "(not set)"
	}
	return redacted
}
