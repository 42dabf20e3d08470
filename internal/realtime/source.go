package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/push-ai/mta-rtf/internal/common/logger"
)

// Source ties the registry, fetcher and decoder together. Each feed is
// fetched and decoded exactly once per run; all entity kinds are then
// derived from that shared snapshot, so every record from one feed carries
// the same as_of.
type Source struct {
	fetcher *Fetcher
	logger  logger.Logger
	clock   func() time.Time
}

// PullResult is the outcome of extracting one feed. Err is set when the
// fetch or decode failed; a snapshot with zero entities is a valid result,
// distinct from failure.
type PullResult struct {
	Feed     Feed
	AsOf     time.Time
	Snapshot *Snapshot
	Err      error
}

func NewSource(fetcher *Fetcher, log logger.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		logger:  log,
		clock:   time.Now,
	}
}

// Pull fetches and decodes a single feed. AsOf is stamped at fetch time in
// UTC and is shared by every record later derived from the snapshot.
func (s *Source) Pull(ctx context.Context, feed Feed) PullResult {
	asOf := s.clock().UTC()

	raw, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return PullResult{Feed: feed, AsOf: asOf, Err: err}
	}

	snap, err := Decode(raw)
	if err != nil {
		return PullResult{Feed: feed, AsOf: asOf, Err: err}
	}

	if skipped := snap.Unclassified(); skipped > 0 {
		s.logger.Warn("Skipping entities with no recognized variant",
			"feed", feed.Name, "skipped", skipped, "total", snap.Len())
	}

	s.logger.Debug("Pulled feed snapshot",
		"feed", feed.Name, "entities", snap.Len(), "as_of", asOf)
	return PullResult{Feed: feed, AsOf: asOf, Snapshot: snap}
}

// PullAll extracts every feed concurrently. The fetches are independent
// read-only calls with no shared state; results come back in the input
// order, one per feed, each carrying its own error so one bad feed never
// blocks or corrupts the others.
func (s *Source) PullAll(ctx context.Context, feeds []Feed) []PullResult {
	results := make([]PullResult, len(feeds))

	var wg sync.WaitGroup
	for i, feed := range feeds {
		wg.Add(1)
		go func(i int, feed Feed) {
			defer wg.Done()
			results[i] = s.Pull(ctx, feed)
		}(i, feed)
	}
	wg.Wait()

	return results
}
