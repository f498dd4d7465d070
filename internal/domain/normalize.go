package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the M/D/YY form of time series date headers.
const dateLayout = "1/2/06"

// column maps a header pattern to the Lookup field it fills.
type column struct {
	name    string
	pattern *regexp.Regexp
	set     func(l *Lookup, value string) error
}

// fieldTable lists the recognized columns in priority order. The first
// pattern matching a header wins. The geography columns come first and are
// the only ones recognized in time series tables.
var fieldTable = []column{
	{name: "state", pattern: regexp.MustCompile(`State`), set: func(l *Lookup, v string) error {
		l.State = v
		return nil
	}},
	{name: "country", pattern: regexp.MustCompile(`Country`), set: func(l *Lookup, v string) error {
		l.Country = normalizeCountry(v)
		return nil
	}},
	{name: "lat", pattern: regexp.MustCompile(`Lat`), set: intSetter(func(l *Lookup) *int64 { return &l.Lat })},
	{name: "long", pattern: regexp.MustCompile(`Long`), set: intSetter(func(l *Lookup) *int64 { return &l.Lon })},
	{name: "population", pattern: regexp.MustCompile(`Population`), set: intSetter(func(l *Lookup) *int64 { return &l.Population })},
	{name: "uid", pattern: regexp.MustCompile(`UID`), set: intSetter(func(l *Lookup) *int64 { return &l.UID })},
	{name: "iso2", pattern: regexp.MustCompile(`iso2`), set: func(l *Lookup, v string) error {
		l.ISO2 = v
		return nil
	}},
	{name: "iso3", pattern: regexp.MustCompile(`iso3`), set: func(l *Lookup, v string) error {
		l.ISO3 = v
		return nil
	}},
	{name: "code3", pattern: regexp.MustCompile(`code3`), set: intSetter(func(l *Lookup) *int64 { return &l.Code3 })},
	{name: "fips", pattern: regexp.MustCompile(`FIPS`), set: intSetter(func(l *Lookup) *int64 { return &l.FIPS })},
	{name: "admin2", pattern: regexp.MustCompile(`Admin2`), set: func(l *Lookup, v string) error {
		l.Admin2 = v
		return nil
	}},
}

// seriesColumns are the columns recognized in time series tables.
var seriesColumns = fieldTable[:4]

func intSetter(field func(l *Lookup) *int64) func(l *Lookup, value string) error {
	return func(l *Lookup, value string) error {
		v, err := parseInteger(value)
		if err != nil {
			return err
		}
		*field(l) = v
		return nil
	}
}

// matchColumn returns the first column in table whose pattern matches header.
func matchColumn(table []column, header string) (column, bool) {
	for _, c := range table {
		if c.pattern.MatchString(header) {
			return c, true
		}
	}
	return column{}, false
}

// NormalizeLookups converts lookup table rows into Lookups sorted by region.
// Headers matching no known column are ignored.
func NormalizeLookups(t Table) ([]Lookup, error) {
	type bound struct {
		header string
		col    column
	}
	var cols []bound
	for _, h := range t.Header {
		if c, ok := matchColumn(fieldTable, h); ok {
			cols = append(cols, bound{header: h, col: c})
		}
	}

	out := make([]Lookup, 0, len(t.Rows))
	for i, row := range t.Rows {
		var l Lookup
		for _, b := range cols {
			if err := b.col.set(&l, row[b.header]); err != nil {
				return nil, fmt.Errorf("lookup row %d column %q: %w", i+1, b.header, err)
			}
		}
		out = append(out, l)
	}

	SortRegions(out)
	return out, nil
}

// NormalizeSeries converts time series rows into TimeSeriesRows sorted by
// region. Every header that is not a geography column must be an M/D/YY date;
// its cells become the row's points in header order.
func NormalizeSeries(t Table) ([]TimeSeriesRow, error) {
	type dateColumn struct {
		header    string
		timestamp int64
	}
	var (
		geo   []column
		geoHs []string
		dates []dateColumn
	)
	for _, h := range t.Header {
		if c, ok := matchColumn(seriesColumns, h); ok {
			geo = append(geo, c)
			geoHs = append(geoHs, h)
			continue
		}
		ts, err := parseDate(h)
		if err != nil {
			return nil, err
		}
		dates = append(dates, dateColumn{header: h, timestamp: ts})
	}

	out := make([]TimeSeriesRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		var l Lookup
		for j, c := range geo {
			if err := c.set(&l, row[geoHs[j]]); err != nil {
				return nil, fmt.Errorf("series row %d column %q: %w", i+1, geoHs[j], err)
			}
		}

		points := make([]Point, 0, len(dates))
		for _, d := range dates {
			v, err := parseInteger(row[d.header])
			if err != nil {
				return nil, fmt.Errorf("series row %d column %q: %w", i+1, d.header, err)
			}
			points = append(points, Point{Timestamp: d.timestamp, Value: v})
		}

		out = append(out, TimeSeriesRow{
			RegionKey: l.RegionKey,
			Lat:       l.Lat,
			Lon:       l.Lon,
			Values:    points,
		})
	}

	SortRegions(out)
	return out, nil
}

// normalizeCountry strips the revision marker from names like "Taiwan*".
func normalizeCountry(value string) string {
	return strings.TrimSuffix(value, "*")
}

// parseDate converts an M/D/YY header into epoch milliseconds at UTC midnight.
func parseDate(header string) (int64, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(header))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, header)
	}
	return t.UnixMilli(), nil
}

// parseInteger reads an integer cell. Decimals are truncated toward zero and
// an empty cell reads as 0.
func parseInteger(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return int64(f), nil
}
