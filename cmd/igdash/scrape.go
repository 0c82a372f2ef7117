package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igdash/pkg/config"
	"igdash/pkg/instagram"
	"igdash/pkg/logger"
	"igdash/pkg/ratelimit"
	"igdash/pkg/scraper"
	"igdash/pkg/storage"
	"igdash/pkg/ui"
)

var (
	maxPosts   int
	pageSize   int
	delay      time.Duration
	storePosts bool
	jsonOutput bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [handle]",
	Short: "Fetch and normalize the posts of a profile",
	Long: `Fetch the timeline of an Instagram profile page by page, normalize every
post and print the result as a table or JSON.

With --store the posts are also appended to the configured storage driver.`,
	Example: `  igdash scrape natgeo
  igdash scrape natgeo --max-posts 20 --json
  igdash scrape natgeo --store --storage file`,
	Args: cobra.ExactArgs(1),
	Run:  runScrape,
}

var scrapeStorage string

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&maxPosts, "max-posts", "n", 0, "maximum posts to collect (default 200)")
	scrapeCmd.Flags().IntVar(&pageSize, "page-size", 0, "posts requested per page, at most 50")
	scrapeCmd.Flags().DurationVar(&delay, "delay", time.Second, "delay between page requests")
	scrapeCmd.Flags().BoolVar(&storePosts, "store", false, "append the posts to the configured storage")
	scrapeCmd.Flags().StringVar(&scrapeStorage, "storage", "", "storage driver used with --store (postgres, file)")
	scrapeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
}

func runScrape(cmd *cobra.Command, args []string) {
	overrides := config.Overrides{
		MaxPosts:      maxPosts,
		PageSize:      pageSize,
		StorageDriver: scrapeStorage,
	}
	if cmd.Flags().Changed("delay") {
		overrides.InterRequestDelay = &delay
	}
	cfg, log := mustSetup(overrides)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle := instagram.SanitizeUsername(args[0])
	ui.PrintInfo("Target Profile", handle)

	var writer scraper.PostWriter
	if storePosts {
		store, closeStore, err := openStore(ctx, cfg, log)
		if err != nil {
			ui.PrintError("Failed to open storage", err.Error())
			os.Exit(1)
		}
		defer closeStore()
		writer = store
	}

	s := scraper.New(
		instagram.NewClient(cfg.Instagram, log),
		writer,
		ratelimit.NewFixedDelay(cfg.Pagination.InterRequestDelay),
		cfg.Pagination,
		log,
	)

	if storePosts {
		result, err := s.Ingest(ctx, handle)
		if err != nil {
			fail(log, handle, err)
		}
		if jsonOutput {
			printJSON(result)
			return
		}
		fmt.Fprint(ui.Output, ui.RenderPosts(result.Posts))
		ui.PrintSuccess(fmt.Sprintf("Stored %d posts for %s", result.Inserted, result.Username))
		return
	}

	posts, err := s.Scrape(ctx, handle)
	if err != nil {
		fail(log, handle, err)
	}
	if jsonOutput {
		printJSON(posts)
		return
	}
	fmt.Fprint(ui.Output, ui.RenderPosts(posts))
	ui.PrintSuccess(fmt.Sprintf("Collected %d posts", len(posts)))
}

// openStore opens the configured storage driver for a one-shot command
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		store, err := storage.NewFileStore(cfg.Storage.Directory, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.StorageDriverPostgres:
		if cfg.Storage.AutoMigrate {
			if err := storage.Migrate(ctx, cfg.Storage.Postgres.DSN(), storage.MigrateUp, log); err != nil {
				return nil, nil, err
			}
		}
		pool, err := storage.NewPool(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgres(pool, log), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("storage driver %q cannot store posts", cfg.Storage.Driver)
	}
}

func fail(log logger.Logger, handle string, err error) {
	log.WithError(err).WithField("username", handle).Error("scrape failed")
	ui.PrintError("SCRAPE FAILED", err.Error())
	os.Exit(1)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		ui.PrintError("Failed to encode output", err.Error())
		os.Exit(1)
	}
}
