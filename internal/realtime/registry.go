package realtime

import "fmt"

// Feed is one upstream GTFS-realtime endpoint, identified by a short name.
type Feed struct {
	Name string
	URL  string
}

// Subway GTFS-realtime feeds per MTA.
// See: https://api.mta.info/#/subwayRealTimeFeeds
var feedURLs = map[string]string{
	// A C E + Rockaway Shuttle
	"ace": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace",
	// B D F M + SF
	"bdfm": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-bdfm",
	// G
	"g": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-g",
	// J Z
	"jz": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-jz",
	// L
	"l": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-l",
	// N Q R W
	"nqrw": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-nqrw",
	// 1 2 3 4 5 6 7 + S (Times Sq Shuttle)
	"main": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs",
	// Staten Island Railway
	"sir": "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-si",
}

// feedOrder fixes the enumeration order returned by Resolve.
var feedOrder = []string{"ace", "bdfm", "g", "jz", "l", "nqrw", "main", "sir"}

// AlertsFeed is the dedicated service-alerts endpoint. It is not part of the
// regular extraction set; only the raw payload dump utility requests it.
var AlertsFeed = Feed{
	Name: "alerts",
	URL:  "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/camsys%2Fsubway-alerts",
}

// UnknownFeedError is returned when a requested feed name is not in the
// registry.
type UnknownFeedError struct {
	Name string
}

func (e *UnknownFeedError) Error() string {
	return fmt.Sprintf("unknown feed %q", e.Name)
}

// Resolve maps feed names to Feeds. An empty argument selects every known
// feed in a fixed order. Duplicate names collapse to the first occurrence;
// an unrecognized name fails the whole call.
func Resolve(names []string) ([]Feed, error) {
	if len(names) == 0 {
		names = feedOrder
	}

	feeds := make([]Feed, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		url, ok := feedURLs[name]
		if !ok {
			return nil, &UnknownFeedError{Name: name}
		}
		feeds = append(feeds, Feed{Name: name, URL: url})
	}
	return feeds, nil
}

// KnownFeeds returns the names of every registered feed in resolution order.
func KnownFeeds() []string {
	out := make([]string, len(feedOrder))
	copy(out, feedOrder)
	return out
}
