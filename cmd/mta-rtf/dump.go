package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/push-ai/mta-rtf/internal/common/logger"
	"github.com/push-ai/mta-rtf/internal/realtime"
)

// dumpRawPayloads fetches raw protobuf payloads and writes them to disk for
// inspection, one .pb file per feed. Alongside the registry feeds it also
// accepts the dedicated "alerts" endpoint, which is not part of regular
// extraction.
func dumpRawPayloads(ctx context.Context, fetcher *realtime.Fetcher, names []string, dir string, log logger.Logger) error {
	var feeds []realtime.Feed
	var regular []string
	for _, name := range names {
		if name == realtime.AlertsFeed.Name {
			feeds = append(feeds, realtime.AlertsFeed)
			continue
		}
		regular = append(regular, name)
	}
	if len(regular) > 0 || len(names) == 0 {
		resolved, err := realtime.Resolve(regular)
		if err != nil {
			return err
		}
		feeds = append(feeds, resolved...)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating dump directory: %w", err)
	}

	for _, feed := range feeds {
		data, err := fetcher.Fetch(ctx, feed.URL)
		if err != nil {
			return fmt.Errorf("fetching feed %s: %w", feed.Name, err)
		}

		timestamp := time.Now().UTC().Format("20060102T150405Z")
		path := filepath.Join(dir, fmt.Sprintf("gtfs_raw_%s_%s.pb", feed.Name, timestamp))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing payload for %s: %w", feed.Name, err)
		}

		log.Info("Wrote raw payload", "feed", feed.Name, "path", path, "bytes", len(data))
	}
	return nil
}
