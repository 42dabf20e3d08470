package static

import "fmt"

// Disposition is the load discipline the warehouse applies to a table.
type Disposition string

const (
	// Merge replaces-or-inserts rows by primary key.
	Merge Disposition = "merge"
	// Append always inserts, never deduplicates.
	Append Disposition = "append"
)

// Policy carries a table's load discipline and, for merge tables, its
// natural key column. It travels as metadata next to the rows, never inside
// them.
type Policy struct {
	Table       string
	PrimaryKey  string
	Disposition Disposition
}

// Member returns the archive member holding the table.
func (p Policy) Member() string {
	return p.Table + ".txt"
}

// UnknownTableError is returned for table names outside the fixed set.
type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown reference table %q", e.Table)
}

// stop_times has no unique key at row grain, so it loads append-only; the
// dimension tables merge on their natural ids.
var policies = map[string]Policy{
	"routes":     {Table: "routes", PrimaryKey: "route_id", Disposition: Merge},
	"stops":      {Table: "stops", PrimaryKey: "stop_id", Disposition: Merge},
	"trips":      {Table: "trips", PrimaryKey: "trip_id", Disposition: Merge},
	"stop_times": {Table: "stop_times", Disposition: Append},
	"calendar":   {Table: "calendar", PrimaryKey: "service_id", Disposition: Merge},
}

// tableOrder fixes the enumeration order of the reference tables.
var tableOrder = []string{"routes", "stops", "trips", "stop_times", "calendar"}

// DimensionTables are the reference tables loaded by default; the full set
// adds the bulky stop_times fact table and the calendar.
var DimensionTables = []string{"routes", "stops", "trips"}

// PolicyFor looks up the load policy for a reference table.
func PolicyFor(table string) (Policy, error) {
	policy, ok := policies[table]
	if !ok {
		return Policy{}, &UnknownTableError{Table: table}
	}
	return policy, nil
}

// KnownTables returns every classified table name in enumeration order.
func KnownTables() []string {
	out := make([]string, len(tableOrder))
	copy(out, tableOrder)
	return out
}
