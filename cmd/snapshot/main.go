// Command snapshot runs a single collection and writes the resulting snapshot
// as JSON. Feeds may be URLs or local CSV paths, which makes it the tool for
// producing reproducible fixtures from a checked-in copy of the JHU data.
//
// Usage:
//
//	go run ./cmd/snapshot \
//	  -lookup testdata/UID_ISO_FIPS_LookUp_Table.csv \
//	  -confirmed testdata/confirmed.csv \
//	  -deaths testdata/deaths.csv \
//	  -recovered testdata/recovered.csv \
//	  -fixed-time 2021-03-01T00:00:00Z \
//	  -out data/snapshot.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvparse"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/feed"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lookup := flag.String("lookup", cfg.Feeds.Lookup, "lookup table URL or path")
	confirmed := flag.String("confirmed", cfg.Feeds.Confirmed, "confirmed series URL or path")
	deaths := flag.String("deaths", cfg.Feeds.Deaths, "deaths series URL or path")
	recovered := flag.String("recovered", cfg.Feeds.Recovered, "recovered series URL or path")
	out := flag.String("out", "", "output path for snapshot JSON (default stdout)")
	fixedTime := flag.String("fixed-time", "", "RFC3339 time stamped on the snapshot for reproducible output")
	flag.Parse()

	if *fixedTime != "" {
		ts, err := time.Parse(time.RFC3339, *fixedTime)
		if err != nil {
			return fmt.Errorf("invalid -fixed-time: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	// stdout may carry the snapshot, so diagnostics go to stderr.
	logger := observability.NewLogger(os.Stderr, cfg)

	urls := domain.FeedURLs{Lookup: *lookup, Confirmed: *confirmed, Deaths: *deaths, Recovered: *recovered}
	collector := pipeline.NewCollector(feed.NewClient(cfg.FetchTimeout, logger), csvparse.New(), urls, logger, observability.NewUnregisteredMetrics())
	runner := pipeline.NewRunner(collector, nil, logger, observability.NewUnregisteredMetrics(), cfg.Schedule, false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshot, err := runner.RunOnce(ctx)
	if err != nil {
		return err
	}

	if *out == "" {
		if err := encode(os.Stdout, snapshot); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	} else {
		if err := writeJSON(*out, snapshot); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		log.Printf("wrote snapshot: %s", *out)
	}

	printStats(snapshot)
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := encode(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printStats reports a summary on stderr so it never mixes with stdout JSON.
func printStats(s domain.Snapshot) {
	countries := make(map[string]struct{})
	var states, days int
	var first, last int64
	for _, m := range s.Regions {
		countries[m.Country] = struct{}{}
		if m.State != "" {
			states++
		}
		if n := len(m.Metrics); n > 0 {
			days = max(days, n)
			if first == 0 || m.Metrics[0].Timestamp < first {
				first = m.Metrics[0].Timestamp
			}
			last = max(last, m.Metrics[n-1].Timestamp)
		}
	}

	log.Printf("regions: %d (%d countries, %d states)", len(s.Regions), len(countries), states)
	if days > 0 {
		log.Printf("days: %d (%s to %s)", days,
			time.UnixMilli(first).UTC().Format(time.DateOnly),
			time.UnixMilli(last).UTC().Format(time.DateOnly))
	}
	log.Printf("generated at: %s", s.GeneratedAt.Format(time.RFC3339))
}
