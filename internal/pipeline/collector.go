package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// acceptEncoding is sent with every feed request.
const acceptEncoding = "br, gzip, deflate"

// Tokenizer splits CSV text into a header-keyed table.
type Tokenizer interface {
	Parse(text string) (domain.Table, error)
}

// Collector fetches the four feeds and turns them into per-region models.
// It keeps no state between calls.
type Collector struct {
	fetcher   domain.Fetcher
	tokenizer Tokenizer
	urls      domain.FeedURLs
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCollector creates a Collector reading feeds from urls.
func NewCollector(f domain.Fetcher, t Tokenizer, urls domain.FeedURLs, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		fetcher:   f,
		tokenizer: t,
		urls:      urls,
		logger:    logger,
		metrics:   metrics,
	}
}

// Collect fetches lookup, confirmed, deaths and recovered in that order,
// normalizes and joins them, and derives the metrics of every confirmed
// region. Any fetch or parse failure aborts the run with no partial result.
func (c *Collector) Collect(ctx context.Context) ([]domain.Model, error) {
	lookupTable, err := c.fetchTable(ctx, domain.FeedLookup)
	if err != nil {
		return nil, err
	}
	lookups, err := domain.NormalizeLookups(lookupTable)
	if err != nil {
		return nil, fmt.Errorf("normalize %s feed: %w", domain.FeedLookup, err)
	}

	confirmed, err := c.fetchSeries(ctx, domain.FeedConfirmed)
	if err != nil {
		return nil, err
	}
	deaths, err := c.fetchSeries(ctx, domain.FeedDeaths)
	if err != nil {
		return nil, err
	}
	recovered, err := c.fetchSeries(ctx, domain.FeedRecovered)
	if err != nil {
		return nil, err
	}

	merged := domain.Join(confirmed, deaths, recovered, lookups)
	return domain.BuildModels(merged), nil
}

func (c *Collector) fetchSeries(ctx context.Context, feed domain.Feed) ([]domain.TimeSeriesRow, error) {
	table, err := c.fetchTable(ctx, feed)
	if err != nil {
		return nil, err
	}
	rows, err := domain.NormalizeSeries(table)
	if err != nil {
		return nil, fmt.Errorf("normalize %s feed: %w", feed, err)
	}
	return rows, nil
}

func (c *Collector) fetchTable(ctx context.Context, feed domain.Feed) (domain.Table, error) {
	url := c.urls.URL(feed)

	start := time.Now()
	text, err := c.fetcher.Fetch(ctx, url, domain.FetchOptions{
		Method:  http.MethodGet,
		Headers: map[string]string{"Accept-Encoding": acceptEncoding},
	})
	if err != nil {
		return domain.Table{}, fmt.Errorf("fetch %s feed: %w", feed, err)
	}
	c.metrics.FeedFetchDuration.WithLabelValues(string(feed)).Observe(time.Since(start).Seconds())

	table, err := c.tokenizer.Parse(text)
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse %s feed: %w", feed, err)
	}
	c.metrics.FeedRows.WithLabelValues(string(feed)).Set(float64(len(table.Rows)))

	c.logger.Debug("feed parsed", "feed", feed, "url", url, "bytes", len(text), "rows", len(table.Rows))
	return table, nil
}
