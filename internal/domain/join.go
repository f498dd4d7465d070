package domain

// regionIndex finds rows by country and state with the same tie-break as a
// linear scan over sorted rows: a target without a state takes the first row
// of its country, a target with a state needs an exact state match.
type regionIndex[T region] struct {
	firstByCountry map[string]int
	byKey          map[RegionKey]int
	rows           []T
}

func newRegionIndex[T region](rows []T) regionIndex[T] {
	idx := regionIndex[T]{
		firstByCountry: make(map[string]int, len(rows)),
		byKey:          make(map[RegionKey]int, len(rows)),
		rows:           rows,
	}
	for i, r := range rows {
		k := r.Key()
		if _, ok := idx.firstByCountry[k.Country]; !ok {
			idx.firstByCountry[k.Country] = i
		}
		if _, ok := idx.byKey[k]; !ok {
			idx.byKey[k] = i
		}
	}
	return idx
}

func (idx regionIndex[T]) find(target RegionKey) (T, bool) {
	var (
		i  int
		ok bool
	)
	if target.State == "" {
		i, ok = idx.firstByCountry[target.Country]
	} else {
		i, ok = idx.byKey[target]
	}
	if !ok {
		var zero T
		return zero, false
	}
	return idx.rows[i], true
}

// Join merges the normalized feeds into one row per confirmed region, in
// confirmed order. Regions only present in deaths, recovered or lookups are
// dropped. A missing lookup gives population 0; a missing region or date in
// deaths or recovered gives 0 for that day.
func Join(confirmed, deaths, recovered []TimeSeriesRow, lookups []Lookup) []MergedRow {
	deathIdx := newRegionIndex(deaths)
	recoveredIdx := newRegionIndex(recovered)
	lookupIdx := newRegionIndex(lookups)

	out := make([]MergedRow, 0, len(confirmed))
	for _, c := range confirmed {
		var population int64
		if l, ok := lookupIdx.find(c.RegionKey); ok {
			population = l.Population
		}

		d, _ := deathIdx.find(c.RegionKey)
		r, _ := recoveredIdx.find(c.RegionKey)
		deathsAt := valuesByTimestamp(d.Values)
		recoveredAt := valuesByTimestamp(r.Values)

		days := make([]DailyRaw, len(c.Values))
		for i, p := range c.Values {
			days[i] = DailyRaw{
				Timestamp: p.Timestamp,
				Confirmed: p.Value,
				Deaths:    deathsAt[p.Timestamp],
				Recovered: recoveredAt[p.Timestamp],
			}
		}

		out = append(out, MergedRow{
			RegionKey:  c.RegionKey,
			Lat:        c.Lat,
			Lon:        c.Lon,
			Population: population,
			Values:     days,
		})
	}
	return out
}

// valuesByTimestamp indexes a series by timestamp. The first point wins when
// a timestamp repeats.
func valuesByTimestamp(points []Point) map[int64]int64 {
	m := make(map[int64]int64, len(points))
	for _, p := range points {
		if _, ok := m[p.Timestamp]; !ok {
			m[p.Timestamp] = p.Value
		}
	}
	return m
}
