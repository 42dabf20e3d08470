package static

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/push-ai/mta-rtf/internal/common/fetch"
)

// DefaultArchiveURL is the public, supplemented GTFS static bundle per MTA.
const DefaultArchiveURL = "https://rrgtfsfeeds.s3.amazonaws.com/gtfs_supplemented.zip"

// MissingMemberError indicates the archive lacks an expected table file.
type MissingMemberError struct {
	Member string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("archive has no member %q", e.Member)
}

// Archive is a fetched GTFS static bundle held in memory. Members can be
// opened by name any number of times.
type Archive struct {
	zr *zip.Reader
}

// NewArchive wraps raw zip bytes in an Archive.
func NewArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading zip archive: %w", err)
	}
	return &Archive{zr: zr}, nil
}

// FetchArchive downloads the compressed bundle from url. Transport and
// upstream failures surface with the same taxonomy as the realtime fetcher.
func FetchArchive(ctx context.Context, client *http.Client, url string) (*Archive, error) {
	data, err := fetch.Get(ctx, client, url, nil)
	if err != nil {
		return nil, err
	}
	return NewArchive(data)
}

// Open returns a reader over the named member.
func (a *Archive) Open(member string) (io.ReadCloser, error) {
	for _, f := range a.zr.File {
		if f.Name == member {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening member %q: %w", member, err)
			}
			return rc, nil
		}
	}
	return nil, &MissingMemberError{Member: member}
}
