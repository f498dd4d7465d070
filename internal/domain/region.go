package domain

import (
	"cmp"
	"errors"
	"slices"
)

var (
	// ErrInvalidNumber is returned when a numeric cell holds something other
	// than an integer or decimal.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrInvalidDate is returned when a time series header matches no known
	// column and is not an M/D/YY date either.
	ErrInvalidDate = errors.New("invalid date column")
)

// RawRow is one tokenized CSV row keyed by column header.
type RawRow map[string]string

// Table is a tokenized CSV file. Header keeps the source column order, which
// a row map cannot.
type Table struct {
	Header []string
	Rows   []RawRow
}

// RegionKey identifies a reporting region. State is empty for country level rows.
type RegionKey struct {
	Country string `json:"country"`
	State   string `json:"state,omitempty"`
}

// Compare orders keys by country, then state. Both comparisons are
// case-sensitive byte order, so an empty state sorts first.
func (k RegionKey) Compare(other RegionKey) int {
	if c := cmp.Compare(k.Country, other.Country); c != 0 {
		return c
	}
	return cmp.Compare(k.State, other.State)
}

// ID renders the key as "country" or "country|state".
func (k RegionKey) ID() string {
	if k.State == "" {
		return k.Country
	}
	return k.Country + "|" + k.State
}

// Lookup is a row of the UID/ISO/FIPS lookup table. Only Population feeds the
// metric engine; the identifiers are carried for completeness.
type Lookup struct {
	RegionKey
	Population int64
	Lat        int64
	Lon        int64
	UID        int64
	ISO2       string
	ISO3       string
	Code3      int64
	FIPS       int64
	Admin2     string
}

// Point is one date column of a time series row.
type Point struct {
	Timestamp int64 // epoch millis, UTC midnight
	Value     int64
}

// TimeSeriesRow is one region of a confirmed, deaths or recovered table.
type TimeSeriesRow struct {
	RegionKey
	Lat    int64
	Lon    int64
	Values []Point
}

// DailyRaw holds the joined cumulative counts for one day.
type DailyRaw struct {
	Timestamp int64
	Confirmed int64
	Deaths    int64
	Recovered int64
}

// MergedRow is a confirmed region joined with its deaths, recovered and
// lookup counterparts.
type MergedRow struct {
	RegionKey
	Lat        int64
	Lon        int64
	Population int64
	Values     []DailyRaw
}

// region is implemented by every keyed row type.
type region interface {
	Key() RegionKey
}

// Key returns the region key.
func (k RegionKey) Key() RegionKey { return k }

// SortRegions stably sorts rows ascending by country, then state.
func SortRegions[T region](rows []T) {
	slices.SortStableFunc(rows, func(a, b T) int {
		return a.Key().Compare(b.Key())
	})
}
