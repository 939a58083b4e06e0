package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routelens/routelens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and inspect configuration",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Long: `Write the effective configuration as a starter YAML file.

The API key is never written; set it with ROUTELENS_API_KEY or edit the file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		path := config.DefaultConfigPath()
		if len(args) == 1 {
			path = strings.TrimSpace(args[0])
		}
		if path == "" {
			return fmt.Errorf("config path not resolved")
		}

		cfg, err := currentConfig(ctx)
		if err != nil {
			return err
		}

		if err := config.WriteStarter(path, *cfg, configInitForce); err != nil {
			if errors.Is(err, config.ErrConfigExists) {
				return fmt.Errorf("%w (use --force to overwrite)", err)
			}
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig(commandContext(cmd))
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg.Redacted())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		used := config.ConfigFileUsed(cfgFile)
		if used == "" {
			used = config.DefaultConfigPath() + " (not present)"
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), used)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
