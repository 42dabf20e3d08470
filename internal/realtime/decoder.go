package realtime

import (
	"fmt"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// MalformedFeedError indicates the payload did not parse as a GTFS-realtime
// FeedMessage: truncated, corrupt, or a different schema entirely.
type MalformedFeedError struct {
	Err error
}

func (e *MalformedFeedError) Error() string {
	return fmt.Sprintf("malformed GTFS-realtime payload: %v", e.Err)
}

func (e *MalformedFeedError) Unwrap() error {
	return e.Err
}

// Snapshot is the decoded result of one fetch against one feed. It lives
// only for the duration of a normalization pass and is never persisted.
type Snapshot struct {
	msg *gtfsrt.FeedMessage
}

// Decode parses raw protobuf bytes into a Snapshot. Decoding is pure:
// identical bytes always produce an identical snapshot.
func Decode(raw []byte) (*Snapshot, error) {
	msg := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(raw, msg); err != nil {
		return nil, &MalformedFeedError{Err: err}
	}
	return &Snapshot{msg: msg}, nil
}

// Len returns the number of entities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.msg.Entity)
}

// HeaderTimestamp returns the upstream-reported generation time, or the
// zero time if the header carries none. Note this is upstream's clock, not
// the fetch time used for as_of.
func (s *Snapshot) HeaderTimestamp() time.Time {
	if s.msg.Header == nil || s.msg.Header.Timestamp == nil {
		return time.Time{}
	}
	return time.Unix(int64(s.msg.Header.GetTimestamp()), 0).UTC()
}

// Unclassified counts entities carrying none of the three recognized
// sub-messages. These are skipped during normalization; the count exists so
// callers can log upstream drift instead of losing it silently.
func (s *Snapshot) Unclassified() int {
	n := 0
	for _, e := range s.msg.Entity {
		if e.GetTripUpdate() == nil && e.GetVehicle() == nil && e.GetAlert() == nil {
			n++
		}
	}
	return n
}

// Count returns how many entities carry the sub-message for kind.
func (s *Snapshot) Count(kind Kind) int {
	n := 0
	for _, e := range s.msg.Entity {
		if kind.submessage(e) != nil {
			n++
		}
	}
	return n
}
