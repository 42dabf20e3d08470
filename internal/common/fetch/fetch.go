package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// UserAgent identifies this extractor to upstream servers
	UserAgent = "mta-rtf/1.0"

	// bodyExcerptLimit bounds how much of an error response body is kept
	// for diagnostics
	bodyExcerptLimit = 512
)

// TransportError indicates a network-level failure: no usable HTTP response
// was received (connection refused, DNS failure, timeout, truncated body).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError indicates the server answered with a non-success status.
// BodyExcerpt holds at most the first 512 bytes of the response body.
type UpstreamError struct {
	URL         string
	Status      int
	BodyExcerpt string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.Status, e.URL)
}

// NewClient returns an HTTP client with the given overall request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// Get performs a single GET request and returns the full response body.
// Extra headers are applied on top of the default User-Agent. A failed
// request yields a TransportError; a non-2xx response yields an
// UpstreamError and the body is never returned to the caller.
func Get(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit))
		return nil, &UpstreamError{
			URL:         url,
			Status:      resp.StatusCode,
			BodyExcerpt: string(excerpt),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return body, nil
}
