package domain

import (
	"fmt"
	"time"
)

// AverageWindows are the rolling average window sizes in days.
var AverageWindows = [...]int{5, 7, 14, 21, 28}

// perCapita is the population base of ratio values.
const perCapita = 100_000

// Values is the four-field metric vector used for counts, diffs, averages
// and ratios alike.
type Values struct {
	Confirmed float64 `json:"confirmed"`
	Dead      float64 `json:"dead"`
	Recovered float64 `json:"recovered"`
	Active    float64 `json:"active"`
}

func (v Values) sub(o Values) Values {
	return Values{
		Confirmed: v.Confirmed - o.Confirmed,
		Dead:      v.Dead - o.Dead,
		Recovered: v.Recovered - o.Recovered,
		Active:    v.Active - o.Active,
	}
}

func (v Values) add(o Values) Values {
	return Values{
		Confirmed: v.Confirmed + o.Confirmed,
		Dead:      v.Dead + o.Dead,
		Recovered: v.Recovered + o.Recovered,
		Active:    v.Active + o.Active,
	}
}

// scale divides every field by divisor; zero fields stay exactly zero.
func (v Values) scale(divisor float64) Values {
	return Values{
		Confirmed: safeDiv(v.Confirmed, divisor),
		Dead:      safeDiv(v.Dead, divisor),
		Recovered: safeDiv(v.Recovered, divisor),
		Active:    safeDiv(v.Active, divisor),
	}
}

// Averages holds one rolling average per window in AverageWindows.
type Averages struct {
	Days5  Values `json:"5"`
	Days7  Values `json:"7"`
	Days14 Values `json:"14"`
	Days21 Values `json:"21"`
	Days28 Values `json:"28"`
}

// Window returns the average for window w. It panics if w is not one of
// AverageWindows.
func (a Averages) Window(w int) Values {
	switch w {
	case 5:
		return a.Days5
	case 7:
		return a.Days7
	case 14:
		return a.Days14
	case 21:
		return a.Days21
	case 28:
		return a.Days28
	default:
		panic(fmt.Sprintf("domain: unknown average window %d", w))
	}
}

func (a *Averages) set(w int, v Values) {
	switch w {
	case 5:
		a.Days5 = v
	case 7:
		a.Days7 = v
	case 14:
		a.Days14 = v
	case 21:
		a.Days21 = v
	case 28:
		a.Days28 = v
	}
}

func (a Averages) scale(divisor float64) Averages {
	var out Averages
	for _, w := range AverageWindows {
		out.set(w, a.Window(w).scale(divisor))
	}
	return out
}

// Ratio mirrors a Metric's values normalized per 100,000 population.
type Ratio struct {
	Values
	Diff Values   `json:"diff"`
	Avrg Averages `json:"avrg"`
}

// Metric is one day of derived values for a region.
type Metric struct {
	Values
	Diff      Values   `json:"diff"`
	Avrg      Averages `json:"avrg"`
	Ratio     Ratio    `json:"ratio"`
	Timestamp int64    `json:"timestamp"`
}

// Model is the derived output for one region.
type Model struct {
	Country    string   `json:"country"`
	State      string   `json:"state,omitempty"`
	Population int64    `json:"population"`
	Metrics    []Metric `json:"metrics"`
}

// Key returns the model's region key.
func (m Model) Key() RegionKey {
	return RegionKey{Country: m.Country, State: m.State}
}

// Snapshot is the output of one collection run.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Regions     []Model   `json:"regions"`
}

// NewSnapshot stamps models with the current time.
func NewSnapshot(models []Model) Snapshot {
	if models == nil {
		models = []Model{}
	}
	return Snapshot{
		GeneratedAt: clock.Now().UTC(),
		Regions:     models,
	}
}

func safeDiv(value, divisor float64) float64 {
	if value == 0 {
		return 0
	}
	return value / divisor
}
