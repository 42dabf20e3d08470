package main

import (
	"context"
	"fmt"
	"iter"
	"os"

	"github.com/joho/godotenv"
	"github.com/push-ai/mta-rtf/internal/common/config"
	"github.com/push-ai/mta-rtf/internal/common/fetch"
	"github.com/push-ai/mta-rtf/internal/common/logger"
	"github.com/push-ai/mta-rtf/internal/common/notify"
	"github.com/push-ai/mta-rtf/internal/realtime"
	"github.com/push-ai/mta-rtf/internal/static"
	"github.com/push-ai/mta-rtf/internal/warehouse"
	"github.com/spf13/pflag"
)

type options struct {
	feeds        []string
	dataset      string
	fullStatic   bool
	skipStatic   bool
	skipRealtime bool
	strict       bool
	dryRun       bool
	dumpDir      string
}

func main() {
	var opts options
	pflag.StringSliceVar(&opts.feeds, "feeds", nil, "subset of feeds to pull, e.g. ace,bdfm (default: all)")
	pflag.StringVar(&opts.dataset, "dataset", "mta_subway", "destination schema name")
	pflag.BoolVar(&opts.fullStatic, "full-static", false, "load all reference tables, not just dimension tables")
	pflag.BoolVar(&opts.skipStatic, "skip-static", false, "skip the static GTFS archive")
	pflag.BoolVar(&opts.skipRealtime, "skip-realtime", false, "skip the realtime feeds")
	pflag.BoolVar(&opts.strict, "strict", false, "treat any single feed failure as a run failure (default: log and skip)")
	pflag.BoolVar(&opts.dryRun, "dry-run", false, "count rows instead of loading them")
	pflag.StringVar(&opts.dumpDir, "dump-dir", "", "write raw feed payloads to this directory and exit")
	pflag.Parse()

	// Load .env if present; environment-only setups are fine too.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.NewWithLevel(
		logger.ParseLogLevel(cfg.Logging.Level),
		logger.ConsoleWriter(),
		logger.FileWriter(cfg.Logging.FilePath),
	)

	if err := run(context.Background(), cfg, opts, log); err != nil {
		log.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log logger.Logger) error {
	if len(opts.feeds) == 0 {
		opts.feeds = cfg.Realtime.Feeds
	}

	fetcher := realtime.NewFetcher(cfg.Realtime.APIKey, cfg.Realtime.FetchTimeout, log)

	if opts.dumpDir != "" {
		return dumpRawPayloads(ctx, fetcher, opts.feeds, opts.dumpDir, log)
	}

	var loader *warehouse.Loader
	if opts.dryRun || !cfg.Database.Configured() {
		log.Info("Counting rows only", "dry_run", opts.dryRun, "db_configured", cfg.Database.Configured())
	} else {
		if err := cfg.Database.Validate(); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
		db, err := warehouse.New(cfg.Database.ConnectionString(), log)
		if err != nil {
			return fmt.Errorf("connecting to warehouse: %w", err)
		}
		defer db.Close()
		loader = warehouse.NewLoader(db, opts.dataset, log)
	}

	var resources []warehouse.Resource
	var feedErrors []string

	if !opts.skipStatic {
		staticResources, err := buildStaticResources(ctx, cfg, opts, log)
		if err != nil {
			return err
		}
		resources = append(resources, staticResources...)
	}

	if !opts.skipRealtime {
		rtResources, failed, err := buildRealtimeResources(ctx, fetcher, opts, log)
		if err != nil {
			return err
		}
		resources = append(resources, rtResources...)
		feedErrors = failed
	}

	var totalRows int64
	var runErr error
	for _, res := range resources {
		var rows int64
		var err error
		if loader != nil {
			rows, err = loader.Load(ctx, res)
		} else {
			rows, err = res.Count()
			if err == nil {
				log.Info("Counted resource", "resource", res.Name, "rows", rows)
			}
		}
		if err != nil {
			runErr = fmt.Errorf("resource %s: %w", res.Name, err)
			break
		}
		totalRows += rows
	}

	notifier := notify.NewClient(cfg.Notify.WebhookURL)
	if err := notifier.SendRunSummary(notify.RunSummary{
		Resources:  len(resources),
		Rows:       totalRows,
		FeedErrors: feedErrors,
		Err:        runErr,
	}); err != nil {
		log.Warn("Failed to send run notification", "error", err)
	}

	if runErr != nil {
		return runErr
	}

	log.Info("Extraction run completed",
		"resources", len(resources), "rows", totalRows, "failed_feeds", len(feedErrors))
	return nil
}

// buildStaticResources downloads the reference archive once and derives a
// lazy resource per table. Default is the dimension tables; --full-static
// adds stop_times and calendar, mirroring the archive's full contents.
func buildStaticResources(ctx context.Context, cfg *config.Config, opts options, log logger.Logger) ([]warehouse.Resource, error) {
	url := cfg.Static.ZipURL
	if url == "" {
		url = static.DefaultArchiveURL
	}

	log.Info("Fetching static GTFS archive", "url", url)
	archive, err := static.FetchArchive(ctx, fetch.NewClient(cfg.Static.FetchTimeout), url)
	if err != nil {
		return nil, fmt.Errorf("fetching static archive: %w", err)
	}

	tables := static.DimensionTables
	if opts.fullStatic {
		tables = static.KnownTables()
	}

	resources := make([]warehouse.Resource, 0, len(tables))
	for _, table := range tables {
		policy, err := static.PolicyFor(table)
		if err != nil {
			return nil, err
		}
		resources = append(resources, warehouse.Resource{
			Name:        policy.Table,
			PrimaryKey:  policy.PrimaryKey,
			Disposition: policy.Disposition,
			Rows:        static.Extract(archive, policy.Member()),
		})
	}
	return resources, nil
}

// buildRealtimeResources pulls every selected feed exactly once, then fans
// the shared snapshots out into one resource per entity kind. Records from
// one feed therefore carry a single as_of across all three kinds. Failed
// feeds are reported by name; their absence never silently shrinks a
// healthy feed's output.
func buildRealtimeResources(ctx context.Context, fetcher *realtime.Fetcher, opts options, log logger.Logger) ([]warehouse.Resource, []string, error) {
	feeds, err := realtime.Resolve(opts.feeds)
	if err != nil {
		return nil, nil, err
	}

	source := realtime.NewSource(fetcher, log)
	results := source.PullAll(ctx, feeds)

	var pulled []realtime.PullResult
	var failed []string
	for _, result := range results {
		if result.Err != nil {
			log.Error("Feed pull failed", "feed", result.Feed.Name, "error", result.Err)
			failed = append(failed, result.Feed.Name)
			continue
		}
		pulled = append(pulled, result)
	}
	if opts.strict && len(failed) > 0 {
		return nil, failed, fmt.Errorf("%d feed(s) failed: %v", len(failed), failed)
	}

	resources := make([]warehouse.Resource, 0, len(realtime.Kinds))
	for _, kind := range realtime.Kinds {
		sequences := make([]iter.Seq2[warehouse.Row, error], 0, len(pulled))
		for _, result := range pulled {
			sequences = append(sequences, realtime.Rows(result.Snapshot, result.Feed.Name, kind, result.AsOf))
		}
		resources = append(resources, warehouse.Resource{
			Name:        kind.Resource(),
			Disposition: static.Append,
			Rows:        concatRows(sequences...),
		})
	}
	return resources, failed, nil
}

// concatRows chains row sequences into one, preserving order.
func concatRows(sequences ...iter.Seq2[warehouse.Row, error]) iter.Seq2[warehouse.Row, error] {
	return func(yield func(warehouse.Row, error) bool) {
		for _, seq := range sequences {
			for row, err := range seq {
				if !yield(row, err) {
					return
				}
			}
		}
	}
}
