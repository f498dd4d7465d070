package domain

// Derive computes the daily metrics of a merged row, index-aligned with its
// values.
//
// Rolling averages at day i > 0 sum the diffs of days i down to
// max(1, i-w+1) and divide by w, even when fewer than w diffs exist. Day 0
// has no diff, so every window carries the raw day-0 values instead.
func Derive(row MergedRow) []Metric {
	n := len(row.Values)
	if n == 0 {
		return []Metric{}
	}

	bases := make([]Values, n)
	diffs := make([]Values, n)
	for i, d := range row.Values {
		bases[i] = baseValues(d)
		if i > 0 {
			diffs[i] = bases[i].sub(bases[i-1])
		}
	}

	factor := populationFactor(row.Population)
	metrics := make([]Metric, n)
	for i := range row.Values {
		avrg := rollingAverages(bases, diffs, i)
		metrics[i] = Metric{
			Values: bases[i],
			Diff:   diffs[i],
			Avrg:   avrg,
			Ratio: Ratio{
				Values: bases[i].scale(factor),
				Diff:   diffs[i].scale(factor),
				Avrg:   avrg.scale(factor),
			},
			Timestamp: row.Values[i].Timestamp,
		}
	}
	return metrics
}

// BuildModel derives the output model of one merged row.
func BuildModel(row MergedRow) Model {
	return Model{
		Country:    row.Country,
		State:      row.State,
		Population: row.Population,
		Metrics:    Derive(row),
	}
}

// BuildModels derives models for all rows, keeping their order.
func BuildModels(rows []MergedRow) []Model {
	out := make([]Model, len(rows))
	for i, row := range rows {
		out[i] = BuildModel(row)
	}
	return out
}

// baseValues converts a day's counts; active is not clamped at zero.
func baseValues(d DailyRaw) Values {
	return Values{
		Confirmed: float64(d.Confirmed),
		Dead:      float64(d.Deaths),
		Recovered: float64(d.Recovered),
		Active:    float64(d.Confirmed - d.Deaths - d.Recovered),
	}
}

func rollingAverages(bases, diffs []Values, i int) Averages {
	var out Averages
	for _, w := range AverageWindows {
		if i == 0 {
			out.set(w, bases[0])
			continue
		}
		var sum Values
		for j := i; j > i-w && j > 0; j-- {
			sum = sum.add(diffs[j])
		}
		out.set(w, sum.scale(float64(w)))
	}
	return out
}

// populationFactor is the divisor turning a value into a per-100k ratio.
// Without a population the ratio equals the value.
func populationFactor(population int64) float64 {
	if population > 0 {
		return float64(population) / perCapita
	}
	return 1
}
