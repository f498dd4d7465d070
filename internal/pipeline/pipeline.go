package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/robfig/cron/v3"
)

// Source produces the per-region models of one collection run.
type Source interface {
	Collect(ctx context.Context) ([]domain.Model, error)
}

// Publisher delivers a snapshot to its destination.
type Publisher interface {
	Publish(ctx context.Context, snapshot domain.Snapshot) error
}

// Runner executes collection runs on a cron schedule.
type Runner struct {
	source     Source
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	schedule   string
	runOnStart bool
	latest     atomic.Pointer[domain.Snapshot]
}

// NewRunner creates a Runner. A nil publisher skips publishing.
func NewRunner(s Source, p Publisher, logger *slog.Logger, metrics *observability.Metrics, schedule string, runOnStart bool) *Runner {
	return &Runner{
		source:     s,
		publisher:  p,
		logger:     logger,
		metrics:    metrics,
		schedule:   schedule,
		runOnStart: runOnStart,
	}
}

// CheckReadiness returns nil once a run has completed successfully,
// or an error describing why the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if r.latest.Load() == nil {
		return errors.New("no collection run has completed yet")
	}
	return nil
}

// Latest returns the snapshot of the most recent successful run.
func (r *Runner) Latest() (domain.Snapshot, bool) {
	s := r.latest.Load()
	if s == nil {
		return domain.Snapshot{}, false
	}
	return *s, true
}

// Run schedules collection runs until the context is cancelled. A failed run
// is logged and the next scheduled run starts from scratch; runs never overlap.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(r.schedule, func() { r.runLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule collection %q: %w", r.schedule, err)
	}

	r.logger.Info("pipeline started", "schedule", r.schedule, "run_on_start", r.runOnStart)
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	if r.runOnStart {
		r.runLogged(ctx)
	}

	c.Start()
	<-ctx.Done()
	r.logger.Info("pipeline stopping", "reason", ctx.Err())

	// Wait for an in-flight run to observe the cancellation.
	<-c.Stop().Done()
	return nil
}

func (r *Runner) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("collection run failed", "error", err)
	}
}

// RunOnce performs one collect-derive-publish cycle and returns its snapshot.
func (r *Runner) RunOnce(ctx context.Context) (domain.Snapshot, error) {
	start := time.Now()

	models, err := r.source.Collect(ctx)
	if err != nil {
		r.metrics.RunsTotal.WithLabelValues("error").Inc()
		return domain.Snapshot{}, fmt.Errorf("collect: %w", err)
	}

	snapshot := domain.NewSnapshot(models)

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, snapshot); err != nil {
			r.metrics.RunsTotal.WithLabelValues("error").Inc()
			return domain.Snapshot{}, fmt.Errorf("publish: %w", err)
		}
		r.metrics.MessagesProduced.Add(float64(len(snapshot.Regions)))
	}

	elapsed := time.Since(start)
	r.metrics.RunsTotal.WithLabelValues("success").Inc()
	r.metrics.RunDuration.Observe(elapsed.Seconds())
	r.metrics.RegionsDerived.Set(float64(len(snapshot.Regions)))
	r.latest.Store(&snapshot)

	r.logger.Info("collection run complete",
		"regions", len(snapshot.Regions),
		"generated_at", snapshot.GeneratedAt,
		"duration", elapsed,
	)
	return snapshot, nil
}
