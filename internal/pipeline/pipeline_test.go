package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	models []domain.Model
	err    error
	calls  atomic.Int64
}

func (m *mockSource) Collect(_ context.Context) ([]domain.Model, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.models, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, s domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snapshots = append(m.snapshots, s)
	return nil
}

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	fixed := time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })
	return fixed
}

func testModels() []domain.Model {
	return []domain.Model{
		{Country: "A", Population: 10, Metrics: []domain.Metric{{Timestamp: jan01}}},
		{Country: "A", State: "X", Population: 5, Metrics: []domain.Metric{{Timestamp: jan01}}},
	}
}

// --- tests ---

func TestRunner_RunOnce_PublishesSnapshot(t *testing.T) {
	fixed := freezeClock(t)
	src := &mockSource{models: testModels()}
	pub := &mockPublisher{}
	metrics := newTestMetrics()

	r := pipeline.NewRunner(src, pub, slog.Default(), metrics, "@every 1h", false)
	require.Error(t, r.CheckReadiness(context.Background()))

	snap, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	want := domain.Snapshot{GeneratedAt: fixed, Regions: testModels()}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, pub.snapshots, 1)
	assert.Equal(t, snap, pub.snapshots[0])

	require.NoError(t, r.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RegionsDerived))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesProduced))
}

func TestRunner_RunOnce_NilPublisher(t *testing.T) {
	freezeClock(t)
	metrics := newTestMetrics()
	r := pipeline.NewRunner(&mockSource{models: testModels()}, nil, slog.Default(), metrics, "@every 1h", false)

	snap, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Regions, 2)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.MessagesProduced))
}

func TestRunner_RunOnce_EmptyRun(t *testing.T) {
	freezeClock(t)
	r := pipeline.NewRunner(&mockSource{}, nil, slog.Default(), newTestMetrics(), "@every 1h", false)

	snap, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Regions)
	assert.Empty(t, snap.Regions)
}

func TestRunner_RunOnce_CollectError(t *testing.T) {
	errFeed := errors.New("feed unavailable")
	pub := &mockPublisher{}
	metrics := newTestMetrics()
	r := pipeline.NewRunner(&mockSource{err: errFeed}, pub, slog.Default(), metrics, "@every 1h", false)

	_, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errFeed)
	assert.Empty(t, pub.snapshots)
	assert.Error(t, r.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("error")))
}

func TestRunner_RunOnce_PublishError(t *testing.T) {
	errSink := errors.New("broker down")
	metrics := newTestMetrics()
	r := pipeline.NewRunner(&mockSource{models: testModels()}, &mockPublisher{err: errSink}, slog.Default(), metrics, "@every 1h", false)

	_, err := r.RunOnce(context.Background())
	require.ErrorIs(t, err, errSink)
	assert.Error(t, r.CheckReadiness(context.Background()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.MessagesProduced))
}

func TestRunner_Run_CollectsOnStart(t *testing.T) {
	src := &mockSource{models: testModels()}
	pub := &mockPublisher{}
	metrics := newTestMetrics()
	r := pipeline.NewRunner(src, pub, slog.Default(), metrics, "@every 1h", true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return r.CheckReadiness(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PipelineRunning))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}

	assert.Equal(t, int64(1), src.calls.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestRunner_Run_FailedRunKeepsRunning(t *testing.T) {
	src := &mockSource{err: errors.New("boom")}
	r := pipeline.NewRunner(src, nil, slog.Default(), newTestMetrics(), "@every 1h", true)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, int64(1), src.calls.Load())
	assert.Error(t, r.CheckReadiness(context.Background()))
}

func TestRunner_Run_CancelledBeforeStart(t *testing.T) {
	src := &mockSource{models: testModels()}
	r := pipeline.NewRunner(src, nil, slog.Default(), newTestMetrics(), "@every 1h", true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
	assert.Equal(t, int64(0), src.calls.Load())
}

func TestRunner_Run_InvalidSchedule(t *testing.T) {
	r := pipeline.NewRunner(&mockSource{}, nil, slog.Default(), newTestMetrics(), "whenever", true)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whenever")
}

func TestRunner_Latest(t *testing.T) {
	fixed := freezeClock(t)
	r := pipeline.NewRunner(&mockSource{models: testModels()}, nil, slog.Default(), newTestMetrics(), "@every 1h", false)

	_, ok := r.Latest()
	assert.False(t, ok)

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, fixed, latest.GeneratedAt)
	assert.Len(t, latest.Regions, 2)
}
