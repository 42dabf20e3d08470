package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/push-ai/mta-rtf/internal/common/fetch"
	"github.com/push-ai/mta-rtf/internal/common/logger"
)

// HeaderAPIKey is the header the MTA API reads the key from.
const HeaderAPIKey = "x-api-key"

// Fetcher downloads raw GTFS-realtime protobuf payloads. It makes exactly
// one attempt per call; retry policy belongs to the caller.
type Fetcher struct {
	client *http.Client
	apiKey string
	logger logger.Logger
}

// NewFetcher creates a Fetcher. An empty apiKey means requests go out
// unauthenticated. The key itself is never logged.
func NewFetcher(apiKey string, timeout time.Duration, log logger.Logger) *Fetcher {
	return &Fetcher{
		client: fetch.NewClient(timeout),
		apiKey: apiKey,
		logger: log,
	}
}

// Fetch GETs one feed URL and returns the raw response bytes. Network
// failures surface as *fetch.TransportError, non-success responses as
// *fetch.UpstreamError; in neither case is a body handed back.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	header := http.Header{}
	header.Set("Accept", "application/x-protobuf")
	if f.apiKey != "" {
		header.Set(HeaderAPIKey, f.apiKey)
	}

	body, err := fetch.Get(ctx, f.client, url, header)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched realtime feed", "url", url, "bytes", len(body))
	return body, nil
}
