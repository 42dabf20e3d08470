package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	payload, err := proto.Marshal(testFeedMessage())
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xff, 0x00, 0xff})
	})
	return httptest.NewServer(mux)
}

func TestPullSharesAsOfAcrossKinds(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	source := NewSource(NewFetcher("", time.Second, testLogger()), testLogger())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source.clock = func() time.Time { return fixed }

	result := source.Pull(context.Background(), Feed{Name: "ace", URL: server.URL + "/ok"})
	require.NoError(t, result.Err)
	assert.Equal(t, fixed, result.AsOf)

	// Every kind derives from the one snapshot, so every record carries
	// the same capture time.
	for _, kind := range Kinds {
		for rec, err := range Normalize(result.Snapshot, result.Feed.Name, kind, result.AsOf) {
			require.NoError(t, err)
			assert.Equal(t, fixed, rec.AsOf)
		}
	}
}

func TestPullAllIsolatesFailures(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	source := NewSource(NewFetcher("", time.Second, testLogger()), testLogger())
	feeds := []Feed{
		{Name: "ace", URL: server.URL + "/ok"},
		{Name: "bdfm", URL: server.URL + "/broken"},
		{Name: "g", URL: server.URL + "/ok"},
	}

	results := source.PullAll(context.Background(), feeds)
	require.Len(t, results, 3)

	// Results come back in input order regardless of completion order.
	assert.Equal(t, "ace", results[0].Feed.Name)
	assert.Equal(t, "bdfm", results[1].Feed.Name)
	assert.Equal(t, "g", results[2].Feed.Name)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	assert.Equal(t, 5, results[0].Snapshot.Len())
	assert.Equal(t, 5, results[2].Snapshot.Len())
}

func TestPullDecodeFailure(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	source := NewSource(NewFetcher("", time.Second, testLogger()), testLogger())
	result := source.Pull(context.Background(), Feed{Name: "l", URL: server.URL + "/garbage"})

	require.Error(t, result.Err)
	assert.Nil(t, result.Snapshot)
}
