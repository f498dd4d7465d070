// Command validate checks the integrity of a snapshot JSON file written by
// cmd/snapshot or served from /snapshot. It verifies region ordering, the
// active-case identity, first-day values, ratio scaling, and finally
// re-derives every region from its raw daily counts and compares the result.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/snapshot.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// tolerance absorbs float rounding from JSON round trips and summation order.
const tolerance = 1e-9

// maxErrorsShown caps the detail printed per phase.
const maxErrorsShown = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("snapshot", "", "path to snapshot JSON")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== COVID Snapshot Integrity Validation ===")
	fmt.Println()

	snapshot, err := loadSnapshot(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshot: %v\n", err)
		return 1
	}

	phases := validate(snapshot)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Regions: %d, metrics: %d\n", len(snapshot.Regions), countMetrics(snapshot))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrorsShown {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxErrorsShown)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(s domain.Snapshot) []*phase {
	return []*phase{
		validateOrdering(s.Regions),
		validateActiveIdentity(s.Regions),
		validateFirstDay(s.Regions),
		validateRatios(s.Regions),
		validateRederivation(s.Regions),
	}
}

// ── Data loading ──

func loadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	var s domain.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Snapshot{}, err
	}
	return s, nil
}

func countMetrics(s domain.Snapshot) int {
	n := 0
	for _, m := range s.Regions {
		n += len(m.Metrics)
	}
	return n
}

// ── Phase 1: Ordering ──
// Regions must be ordered by country, then state.

func validateOrdering(regions []domain.Model) *phase {
	p := &phase{name: "Phase 1: Region Ordering"}
	for i := 1; i < len(regions); i++ {
		prev, cur := regions[i-1].Key(), regions[i].Key()
		if prev.Compare(cur) > 0 {
			p.errorf("region %d %q sorts after region %d %q", i-1, prev.ID(), i, cur.ID())
		}
	}
	return p
}

// ── Phase 2: Active Identity ──
// active = confirmed - dead - recovered for values and diffs.

func validateActiveIdentity(regions []domain.Model) *phase {
	p := &phase{name: "Phase 2: Active Identity"}
	for _, m := range regions {
		for i, day := range m.Metrics {
			if !activeHolds(day.Values) {
				p.errorf("%s day %d: values active %g != %g", m.Key().ID(), i, day.Active, day.Confirmed-day.Dead-day.Recovered)
			}
			if !activeHolds(day.Diff) {
				p.errorf("%s day %d: diff active %g != %g", m.Key().ID(), i, day.Diff.Active, day.Diff.Confirmed-day.Diff.Dead-day.Diff.Recovered)
			}
		}
	}
	return p
}

func activeHolds(v domain.Values) bool {
	return floatEq(v.Active, v.Confirmed-v.Dead-v.Recovered)
}

// ── Phase 3: First Day ──
// Day 0 has a zero diff and every average equals the raw values.

func validateFirstDay(regions []domain.Model) *phase {
	p := &phase{name: "Phase 3: First Day"}
	for _, m := range regions {
		if len(m.Metrics) == 0 {
			continue
		}
		day := m.Metrics[0]
		if day.Diff != (domain.Values{}) {
			p.errorf("%s: first-day diff is %+v, want zero", m.Key().ID(), day.Diff)
		}
		for _, w := range domain.AverageWindows {
			if !valuesEq(day.Avrg.Window(w), day.Values) {
				p.errorf("%s: first-day %d-day average %+v, want raw values %+v", m.Key().ID(), w, day.Avrg.Window(w), day.Values)
			}
		}
	}
	return p
}

// ── Phase 4: Ratios ──
// Ratios scale values by population/100000, and zero stays exactly zero.

func validateRatios(regions []domain.Model) *phase {
	p := &phase{name: "Phase 4: Per-Capita Ratios"}
	for _, m := range regions {
		factor := 1.0
		if m.Population > 0 {
			factor = float64(m.Population) / 100_000
		}
		for i, day := range m.Metrics {
			checkRatio(p, fmt.Sprintf("%s day %d values", m.Key().ID(), i), day.Values, day.Ratio.Values, factor)
			checkRatio(p, fmt.Sprintf("%s day %d diff", m.Key().ID(), i), day.Diff, day.Ratio.Diff, factor)
		}
	}
	return p
}

func checkRatio(p *phase, label string, values, ratio domain.Values, factor float64) {
	pairs := []struct {
		field    string
		value, r float64
	}{
		{"confirmed", values.Confirmed, ratio.Confirmed},
		{"dead", values.Dead, ratio.Dead},
		{"recovered", values.Recovered, ratio.Recovered},
		{"active", values.Active, ratio.Active},
	}
	for _, pr := range pairs {
		if pr.value == 0 {
			if pr.r != 0 {
				p.errorf("%s %s: ratio %g for zero value", label, pr.field, pr.r)
			}
			continue
		}
		if !floatEq(pr.r, pr.value/factor) {
			p.errorf("%s %s: ratio %g, want %g", label, pr.field, pr.r, pr.value/factor)
		}
	}
}

// ── Phase 5: Re-derivation ──
// Rebuilds each region from its raw daily counts and compares the result.

func validateRederivation(regions []domain.Model) *phase {
	p := &phase{name: "Phase 5: Re-derivation"}
	opt := cmpopts.EquateApprox(0, tolerance)
	for _, m := range regions {
		want := domain.BuildModel(rawRow(m))
		if diff := cmp.Diff(want, m, opt, cmpopts.EquateEmpty()); diff != "" {
			p.errorf("%s: derived metrics mismatch (-want +got):\n%s", m.Key().ID(), diff)
		}
	}
	return p
}

// rawRow recovers the joined input of a model from its daily counts.
func rawRow(m domain.Model) domain.MergedRow {
	days := make([]domain.DailyRaw, len(m.Metrics))
	for i, day := range m.Metrics {
		days[i] = domain.DailyRaw{
			Timestamp: day.Timestamp,
			Confirmed: int64(day.Confirmed),
			Deaths:    int64(day.Dead),
			Recovered: int64(day.Recovered),
		}
	}
	return domain.MergedRow{
		RegionKey:  m.Key(),
		Population: m.Population,
		Values:     days,
	}
}

func valuesEq(a, b domain.Values) bool {
	return floatEq(a.Confirmed, b.Confirmed) &&
		floatEq(a.Dead, b.Dead) &&
		floatEq(a.Recovered, b.Recovered) &&
		floatEq(a.Active, b.Active)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
