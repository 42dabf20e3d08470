package realtime

import (
	"errors"
	"testing"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

// testFeedMessage mixes all three entity kinds plus one entity with no
// recognized variant, the way a live subway feed does.
func testFeedMessage() *gtfsrt.FeedMessage {
	return &gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1700000000),
		},
		Entity: []*gtfsrt.FeedEntity{
			{
				Id: proto.String("E1"),
				TripUpdate: &gtfsrt.TripUpdate{
					Trip: &gtfsrt.TripDescriptor{
						TripId:  proto.String("T1"),
						RouteId: proto.String("A"),
					},
					StopTimeUpdate: []*gtfsrt.TripUpdate_StopTimeUpdate{
						{
							StopId:  proto.String("S1"),
							Arrival: &gtfsrt.TripUpdate_StopTimeEvent{Time: proto.Int64(1700000100)},
						},
						{
							StopId:    proto.String("S2"),
							Departure: &gtfsrt.TripUpdate_StopTimeEvent{Time: proto.Int64(1700000200)},
						},
					},
				},
			},
			{
				Id: proto.String("E2"),
				Vehicle: &gtfsrt.VehiclePosition{
					Trip: &gtfsrt.TripDescriptor{TripId: proto.String("T1")},
					Position: &gtfsrt.Position{
						Latitude:  proto.Float32(40.7128),
						Longitude: proto.Float32(-74.0060),
					},
				},
			},
			{
				Id: proto.String("E3"),
				Alert: &gtfsrt.Alert{
					HeaderText: &gtfsrt.TranslatedString{
						Translation: []*gtfsrt.TranslatedString_Translation{
							{Text: proto.String("Trains delayed in both directions")},
						},
					},
				},
			},
			{
				// No variant populated at all.
				Id: proto.String("E4"),
			},
			{
				Id: proto.String("E5"),
				TripUpdate: &gtfsrt.TripUpdate{
					Trip: &gtfsrt.TripDescriptor{TripId: proto.String("T2")},
				},
			},
		},
	}
}

func mustDecode(t *testing.T, msg *gtfsrt.FeedMessage) *Snapshot {
	t.Helper()
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)
	snap, err := Decode(raw)
	require.NoError(t, err)
	return snap
}

func collect(t *testing.T, snap *Snapshot, feed string, kind Kind, asOf time.Time) []Record {
	t.Helper()
	var out []Record
	for rec, err := range Normalize(snap, feed, kind, asOf) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte{0xde, 0xad, 0xbe, 0xef, 0xff})
	require.Error(t, err)

	var malformed *MalformedFeedError
	require.True(t, errors.As(err, &malformed))
}

func TestDecodeDeterministic(t *testing.T) {
	raw, err := proto.Marshal(testFeedMessage())
	require.NoError(t, err)

	first, err := Decode(raw)
	require.NoError(t, err)
	second, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, first.Len(), second.Len())
	assert.True(t, proto.Equal(first.msg, second.msg))
}

func TestSnapshotCounts(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())

	assert.Equal(t, 5, snap.Len())
	assert.Equal(t, 2, snap.Count(TripUpdates))
	assert.Equal(t, 1, snap.Count(VehiclePositions))
	assert.Equal(t, 1, snap.Count(Alerts))
	assert.Equal(t, 1, snap.Unclassified())
}

func TestNormalizeFiltersByKind(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())
	asOf := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	for _, kind := range Kinds {
		records := collect(t, snap, "ace", kind, asOf)
		assert.Len(t, records, snap.Count(kind), "kind %s", kind)
		for _, rec := range records {
			assert.Equal(t, "ace", rec.Feed)
			assert.Equal(t, kind, rec.Kind)
			assert.Equal(t, asOf, rec.AsOf)
		}
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())
	records := collect(t, snap, "ace", TripUpdates, time.Now().UTC())

	require.Len(t, records, 2)
	assert.Equal(t, "E1", records[0].EntityID)
	assert.Equal(t, "E5", records[1].EntityID)
}

func TestNormalizeRoundTripPayload(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())
	records := collect(t, snap, "ace", TripUpdates, time.Now().UTC())

	require.NotEmpty(t, records)
	rec := records[0]
	assert.Equal(t, "E1", rec.EntityID)

	// Proto field names survive the conversion untouched.
	trip, ok := rec.Payload["trip"].(map[string]any)
	require.True(t, ok, "payload: %#v", rec.Payload)
	assert.Equal(t, "T1", trip["trip_id"])
	assert.Equal(t, "A", trip["route_id"])

	updates, ok := rec.Payload["stop_time_update"].([]any)
	require.True(t, ok)
	require.Len(t, updates, 2)
	first := updates[0].(map[string]any)
	assert.Equal(t, "S1", first["stop_id"])
	arrival := first["arrival"].(map[string]any)
	// protojson renders 64-bit integers as strings.
	assert.Equal(t, "1700000100", arrival["time"])
}

func TestNormalizeEmptyKind(t *testing.T) {
	msg := testFeedMessage()
	msg.Entity = msg.Entity[:2] // trip update + vehicle only
	snap := mustDecode(t, msg)

	records := collect(t, snap, "g", Alerts, time.Now().UTC())
	assert.Empty(t, records, "no matching entities is an empty sequence, not an error")
}

func TestNormalizeRestartable(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())
	asOf := time.Now().UTC()

	first := collect(t, snap, "ace", TripUpdates, asOf)
	second := collect(t, snap, "ace", TripUpdates, asOf)
	assert.Equal(t, first, second)
}

func TestRecordRow(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())
	asOf := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	records := collect(t, snap, "bdfm", VehiclePositions, asOf)
	require.Len(t, records, 1)

	row := records[0].Row()
	assert.Equal(t, "bdfm", row["feed"])
	assert.Equal(t, "E2", row["entity_id"])
	assert.Equal(t, "2023-11-14T22:13:20Z", row["as_of"])
	require.Contains(t, row, "vehicle")
	assert.NotContains(t, row, "trip_update")
}

func TestHeaderTimestamp(t *testing.T) {
	snap := mustDecode(t, testFeedMessage())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), snap.HeaderTimestamp())
}
