package realtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAllFeeds(t *testing.T) {
	feeds, err := Resolve(nil)
	require.NoError(t, err)
	require.Len(t, feeds, len(KnownFeeds()))

	seen := map[string]bool{}
	for i, feed := range feeds {
		assert.Equal(t, KnownFeeds()[i], feed.Name)
		assert.False(t, seen[feed.Name], "feed %s returned twice", feed.Name)
		assert.Equal(t, feedURLs[feed.Name], feed.URL)
		seen[feed.Name] = true
	}
}

func TestResolveSubset(t *testing.T) {
	feeds, err := Resolve([]string{"ace"})
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "ace", feeds[0].Name)
	assert.Equal(t, "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace", feeds[0].URL)
}

func TestResolveCollapsesDuplicates(t *testing.T) {
	feeds, err := Resolve([]string{"l", "g", "l"})
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "l", feeds[0].Name)
	assert.Equal(t, "g", feeds[1].Name)
}

func TestResolveUnknownFeed(t *testing.T) {
	_, err := Resolve([]string{"ace", "7train"})
	require.Error(t, err)

	var unknown *UnknownFeedError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "7train", unknown.Name)
}

func TestAlertsFeedOutsideRegistry(t *testing.T) {
	_, err := Resolve([]string{AlertsFeed.Name})
	var unknown *UnknownFeedError
	require.True(t, errors.As(err, &unknown))
}
