package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routelens/routelens/internal/appid"
	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/observability"
)

var (
	cfgFile   string
	verbose   bool
	traceFile string
	dryRun    bool
	apiKey    string
	baseURL   string

	// App identity, from ROUTELENS app.yaml when present or the built-in default
	appIdentity *appidentity.Identity

	// Loaded once per invocation by initConfig
	appConfig *config.Config

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	if appIdentity == nil {
		return appid.Builtin()
	}
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Rate-aware client and relay for the openrouteservice API",
	Long: `Rate-aware client and relay for the openrouteservice API.

Requests share a per-key sliding window so the configured queries-per-minute
quota is never exceeded, even across processes when the quota store is enabled.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early to prevent config loading from emitting
	// metrics to stdout. Server mode will initialize proper telemetry later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Load app identity early for help text (before cobra processes --help)
	if identity, err := appid.Get(context.Background()); err == nil && identity != nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/routelens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "trace API requests/responses to NDJSON file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print requests instead of sending them")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (overrides config and environment)")
}

func applyIdentity(identity *appidentity.Identity) {
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig resolves identity, loads layered configuration and sets up the
// CLI logger.
func initConfig() {
	ctx := context.Background()
	identity, err := appid.Get(ctx)
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity", err)
	}
	applyIdentity(identity)

	cfg, err := config.LoadWithOptions(ctx, config.Options{
		File:      cfgFile,
		Overrides: flagOverrides(),
	})
	if err != nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to load configuration", err)
	}
	appConfig = cfg

	observability.InitCLILogger(identity.BinaryName, cfg.Logging.Level, verbose)
	observability.CLILogger.Debug("Configuration loaded",
		zap.String("config_file", config.ConfigFileUsed(cfgFile)),
		zap.String("base_url", cfg.Client.BaseURL),
		zap.Int("queries_per_minute", cfg.Client.QueriesPerMinute))

	if traceFile != "" {
		cleanup, err := engine.EnableTracing(traceFile)
		if err != nil {
			observability.CLILogger.Warn("Failed to enable tracing", zap.Error(err))
		} else {
			observability.CLILogger.Debug("Request tracing enabled", zap.String("file", traceFile))
			// The trace file stays open for the whole session
			_ = cleanup
		}
	}
}

// flagOverrides maps global flags onto the runtime override layer.
func flagOverrides() []map[string]any {
	client := map[string]any{}
	if key := strings.TrimSpace(apiKey); key != "" {
		client["api_key"] = key
	}
	if url := strings.TrimSpace(baseURL); url != "" {
		client["base_url"] = url
	}
	if len(client) == 0 {
		return nil
	}
	return []map[string]any{{"client": client}}
}

// currentConfig returns the configuration loaded by initConfig, loading it
// on demand when a command runs outside the cobra lifecycle.
func currentConfig(ctx context.Context) (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	cfg, err := config.LoadWithOptions(ctx, config.Options{File: cfgFile, Overrides: flagOverrides()})
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}
