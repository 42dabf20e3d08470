package realtime

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// Kind selects which entity variant a normalization pass extracts.
type Kind int

const (
	TripUpdates Kind = iota
	VehiclePositions
	Alerts
)

// Kinds lists every extractable kind in a fixed order.
var Kinds = []Kind{TripUpdates, VehiclePositions, Alerts}

// Field returns the payload column name for the kind, matching the
// GTFS-realtime field that carried the sub-message.
func (k Kind) Field() string {
	switch k {
	case TripUpdates:
		return "trip_update"
	case VehiclePositions:
		return "vehicle"
	case Alerts:
		return "alert"
	}
	return "unknown"
}

// Resource returns the destination table name for the kind.
func (k Kind) Resource() string {
	switch k {
	case TripUpdates:
		return "trip_updates"
	case VehiclePositions:
		return "vehicle_positions"
	case Alerts:
		return "alerts"
	}
	return "unknown"
}

func (k Kind) String() string {
	return k.Resource()
}

// submessage returns the entity's sub-message for this kind, or nil when
// the entity is of a different kind.
func (k Kind) submessage(e *gtfsrt.FeedEntity) proto.Message {
	switch k {
	case TripUpdates:
		if tu := e.GetTripUpdate(); tu != nil {
			return tu
		}
	case VehiclePositions:
		if v := e.GetVehicle(); v != nil {
			return v
		}
	case Alerts:
		if a := e.GetAlert(); a != nil {
			return a
		}
	}
	return nil
}

// Record is one flattened entity, the unit handed to the loader.
type Record struct {
	Feed     string
	EntityID string
	AsOf     time.Time
	Kind     Kind
	Payload  map[string]any
}

// Row flattens the record into a loader row. as_of is rendered as an
// ISO-8601 UTC timestamp of the fetch, not of the upstream data.
func (r Record) Row() map[string]any {
	return map[string]any{
		"feed":         r.Feed,
		"entity_id":    r.EntityID,
		"as_of":        r.AsOf.UTC().Format(time.RFC3339),
		r.Kind.Field(): r.Payload,
	}
}

// Normalize yields one Record per entity of the snapshot whose populated
// variant matches kind, in the snapshot's original order. Entities of other
// kinds, and entities with no recognized variant, are excluded; use
// Snapshot.Unclassified to observe the latter. The sequence is lazy and
// restartable: re-ranging re-derives everything from the same snapshot.
func Normalize(snap *Snapshot, feedName string, kind Kind, asOf time.Time) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, entity := range snap.msg.Entity {
			sub := kind.submessage(entity)
			if sub == nil {
				continue
			}

			payload, err := payloadMap(sub)
			if err != nil {
				yield(Record{}, fmt.Errorf("converting %s entity %s: %w", kind.Field(), entity.GetId(), err))
				return
			}

			rec := Record{
				Feed:     feedName,
				EntityID: entity.GetId(),
				AsOf:     asOf,
				Kind:     kind,
				Payload:  payload,
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Rows adapts Normalize to the loader's row-shaped contract.
func Rows(snap *Snapshot, feedName string, kind Kind, asOf time.Time) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for rec, err := range Normalize(snap, feedName, kind, asOf) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec.Row(), nil) {
				return
			}
		}
	}
}

// payloadMap converts a decoded sub-message into a generic nested map,
// preserving the original proto field names. Arrays stay ordered sequences,
// embedded messages become nested maps. No renaming, no unit or timezone
// conversion.
func payloadMap(msg proto.Message) (map[string]any, error) {
	raw, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
