package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igdash/pkg/config"
	"igdash/pkg/instagram"
	"igdash/pkg/ratelimit"
	"igdash/pkg/scraper"
	"igdash/pkg/ui"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:     "profile [handle]",
	Short:   "Print the summary of a profile",
	Example: `  igdash profile natgeo --json`,
	Args:    cobra.ExactArgs(1),
	Run:     runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
}

func runProfile(cmd *cobra.Command, args []string) {
	cfg, log := mustSetup(config.Overrides{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle := instagram.SanitizeUsername(args[0])

	s := scraper.New(
		instagram.NewClient(cfg.Instagram, log),
		nil,
		ratelimit.NewFixedDelay(cfg.Pagination.InterRequestDelay),
		cfg.Pagination,
		log,
	)

	summary, err := s.Profile(ctx, handle)
	if err != nil {
		fail(log, handle, err)
	}

	if jsonOutput {
		printJSON(summary)
		return
	}
	fmt.Fprint(ui.Output, ui.RenderProfile(handle, *summary))
}
