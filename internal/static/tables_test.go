package static

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyForMergeTables(t *testing.T) {
	cases := map[string]string{
		"routes":   "route_id",
		"stops":    "stop_id",
		"trips":    "trip_id",
		"calendar": "service_id",
	}

	for table, key := range cases {
		policy, err := PolicyFor(table)
		require.NoError(t, err, table)
		assert.Equal(t, Merge, policy.Disposition, table)
		assert.Equal(t, key, policy.PrimaryKey, table)
		assert.Equal(t, table+".txt", policy.Member(), table)
	}
}

func TestPolicyForStopTimes(t *testing.T) {
	policy, err := PolicyFor("stop_times")
	require.NoError(t, err)
	assert.Equal(t, Append, policy.Disposition)
	assert.Empty(t, policy.PrimaryKey)
}

func TestPolicyForUnknownTable(t *testing.T) {
	_, err := PolicyFor("unknown_table")
	require.Error(t, err)

	var unknown *UnknownTableError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "unknown_table", unknown.Table)
}

func TestKnownTables(t *testing.T) {
	tables := KnownTables()
	assert.Equal(t, []string{"routes", "stops", "trips", "stop_times", "calendar"}, tables)

	for _, table := range tables {
		_, err := PolicyFor(table)
		assert.NoError(t, err)
	}
}

func TestDimensionTablesAreKnown(t *testing.T) {
	for _, table := range DimensionTables {
		policy, err := PolicyFor(table)
		require.NoError(t, err)
		assert.Equal(t, Merge, policy.Disposition)
	}
}
