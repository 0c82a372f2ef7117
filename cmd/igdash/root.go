package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igdash/pkg/config"
	"igdash/pkg/logger"
	"igdash/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igdash",
	Short: "Instagram profile ingestion backend for the dashboard",
	Long: `igdash collects the public posts of an Instagram profile, normalizes them
into dashboard records and serves them over a small JSON API.

Commands:
  serve     run the HTTP API the dashboard talks to
  scrape    fetch and print a profile's posts from the terminal
  profile   print a profile summary
  migrate   manage the postgres schema
  config    create, inspect and validate configuration`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || jsonOutput {
			ui.SetQuietMode(true)
		}

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./igdash.yaml or ~/.config/igdash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs")

	rootCmd.SetVersionTemplate(`igdash {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the global flags into overrides and loads configuration
func loadConfig(overrides config.Overrides) (*config.Config, error) {
	if overrides.LogLevel == "" {
		overrides.LogLevel = logLevel
	}
	if verbose {
		overrides.LogLevel = "debug"
	}
	return config.Load(configFile, overrides)
}

// mustSetup loads configuration and initializes the global logger, exiting on
// failure
func mustSetup(overrides config.Overrides) (*config.Config, logger.Logger) {
	cfg, err := loadConfig(overrides)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	log, err := logger.Initialize(&cfg.Logging)
	if err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	return cfg, log
}
