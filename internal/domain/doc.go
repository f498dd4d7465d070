// Package domain models the Johns Hopkins CSSE COVID-19 time series and the
// per-region analytics derived from them.
//
// # Data Source
//
// Four CSV files from https://github.com/CSSEGISandData/COVID-19 feed one
// collection run: the UID/ISO/FIPS lookup table (population and identifiers)
// and the global confirmed, deaths and recovered time series. Each file is
// fetched as text, tokenized into header-keyed rows ([RawRow]) and normalized
// here.
//
// # CSV Conventions
//
// Column recognition:
//
//	Headers are matched in priority order against a fixed pattern table
//	(State, Country, Lat, Long, Population, UID, iso2, iso3, code3, FIPS,
//	Admin2). "Province/State" and "Province_State" both match State,
//	"Long_" matches Long. See [fieldTable].
//
// Date columns:
//
//	In time series tables every unmatched header is a calendar date in
//	M/D/YY form ("1/22/20"), converted to epoch milliseconds at UTC midnight.
//	Column order is kept; the feeds publish dates chronologically.
//
// Country names:
//
//	A trailing "*" marks a metadata revision upstream ("Taiwan*") and is
//	stripped.
//
// Numbers:
//
//	Integer cells parse as int64. Decimal cells (real coordinates) are
//	truncated toward zero. Empty cells are absent and read as 0. Anything
//	else fails with [ErrInvalidNumber].
//
// # Join Rules
//
// The confirmed series defines the output regions. Deaths, recovered and
// lookup rows are matched by country, then by state when the target has one.
// A target without a state takes the first row of that country in sorted
// order, whatever its state. Missing regions or dates read as 0. See [Join].
//
// # Derived Metrics
//
// For every day: active = confirmed - dead - recovered (unclamped), the
// day-over-day diff, rolling averages over 5, 7, 14, 21 and 28 days, and
// ratios per 100,000 population. Rolling averages divide by the window size
// even when fewer days are available, and day 0 carries the raw values.
// See [Derive].
package domain
