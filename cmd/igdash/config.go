package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igdash/pkg/config"
	"igdash/pkg/ui"
)

const masked = "********"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igdash configuration.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file holding every option at its default value.

The file is created as 'igdash.yaml' in the current directory unless a
different path is given with --config.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging all sources. Secrets are masked.`,
	Run:   runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Run:   runConfigValidate,
}

// envCmd represents the config env command
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables igdash reads",
	Run:   runConfigEnv,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
	configCmd.AddCommand(envCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "igdash.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Fprintf(ui.Output, "\nTo overwrite, first remove the existing file:\n  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to write configuration", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Configuration written to " + configPath)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(config.Overrides{})
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(maskSecrets(*cfg))
	if err != nil {
		ui.PrintError("Failed to encode configuration", err.Error())
		os.Exit(1)
	}
	fmt.Fprint(os.Stdout, string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if _, err := loadConfig(config.Overrides{}); err != nil {
		ui.PrintError("Configuration is invalid", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Configuration is valid")
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	desc, err := config.DefaultConfig().EnvDescription()
	if err != nil {
		ui.PrintError("Failed to describe environment", err.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, desc)
}

// maskSecrets returns a copy of cfg with credentials replaced
func maskSecrets(cfg config.Config) config.Config {
	if cfg.Storage.Postgres.Pass != "" {
		cfg.Storage.Postgres.Pass = masked
	}
	if cfg.Sentry.DSN != "" {
		cfg.Sentry.DSN = masked
	}
	return cfg
}
