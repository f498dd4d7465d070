package domain

import "context"

// Feed names one of the four source CSV files.
type Feed string

const (
	FeedLookup    Feed = "lookup"
	FeedConfirmed Feed = "confirmed"
	FeedDeaths    Feed = "deaths"
	FeedRecovered Feed = "recovered"
)

// Feeds lists the feeds in fetch order.
var Feeds = [...]Feed{FeedLookup, FeedConfirmed, FeedDeaths, FeedRecovered}

const baseURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/"

// Default feed locations in the JHU CSSE repository.
const (
	DefaultLookupURL    = baseURL + "UID_ISO_FIPS_LookUp_Table.csv"
	DefaultConfirmedURL = baseURL + "csse_covid_19_time_series/time_series_covid19_confirmed_global.csv"
	DefaultDeathsURL    = baseURL + "csse_covid_19_time_series/time_series_covid19_deaths_global.csv"
	DefaultRecoveredURL = baseURL + "csse_covid_19_time_series/time_series_covid19_recovered_global.csv"
)

// FeedURLs holds the source location of every feed.
type FeedURLs struct {
	Lookup    string
	Confirmed string
	Deaths    string
	Recovered string
}

// DefaultFeedURLs returns the JHU CSSE locations.
func DefaultFeedURLs() FeedURLs {
	return FeedURLs{
		Lookup:    DefaultLookupURL,
		Confirmed: DefaultConfirmedURL,
		Deaths:    DefaultDeathsURL,
		Recovered: DefaultRecoveredURL,
	}
}

// URL returns the location of feed f.
func (u FeedURLs) URL(f Feed) string {
	switch f {
	case FeedLookup:
		return u.Lookup
	case FeedConfirmed:
		return u.Confirmed
	case FeedDeaths:
		return u.Deaths
	case FeedRecovered:
		return u.Recovered
	default:
		return ""
	}
}

// FetchOptions are the request options passed to a Fetcher.
type FetchOptions struct {
	Method  string
	Headers map[string]string
}

// Fetcher retrieves a feed's body as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (string, error)
}
