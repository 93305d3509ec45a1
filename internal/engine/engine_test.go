package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/domain"
	"github.com/couchcryptid/aurora-sight/internal/engine"
	"github.com/couchcryptid/aurora-sight/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	snapshots []domain.RawSnapshot
	index     atomic.Int64
}

func (m *mockSource) Extract(ctx context.Context) (domain.RawSnapshot, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.snapshots) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return domain.RawSnapshot{}, ctx.Err()
	}
	return m.snapshots[i], nil
}

type mockPublisher struct {
	err       error
	published []domain.Outlook
}

func (m *mockPublisher) Publish(_ context.Context, outlook domain.Outlook) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, outlook)
	return nil
}

type mockResolver struct {
	name  string
	delay time.Duration
	calls atomic.Int64
}

func (m *mockResolver) ResolveName(ctx context.Context, _, _ float64) (string, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.name, nil
}

// marshalingPublisher serializes each outlook on delivery, like the Kafka
// writer does, so the race detector sees the same reads the real publish
// path performs.
type marshalingPublisher struct {
	mu        sync.Mutex
	published []domain.Outlook
}

func (m *marshalingPublisher) Publish(_ context.Context, outlook domain.Outlook) error {
	if _, err := json.Marshal(outlook); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, outlook)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

var fairbanks = domain.Observer{Latitude: 64.84, Longitude: -147.72, AltitudeMeters: 136}

func testParams() domain.OutlookParams {
	return domain.OutlookParams{TargetAltMeters: 110_000, MaxHighlights: 10, MinProbability: 5}
}

// --- tests ---

func TestEngine_Run_HappyPath(t *testing.T) {
	raw := makeRawSnapshot(t, "[[210,65,80],[18,69,60],[140,-68,70]]")
	commitCalled := false
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	src := &mockSource{snapshots: []domain.RawSnapshot{raw}}
	pub := &mockPublisher{}
	site := fairbanks

	e := engine.New(src, pub, nil, &site, testParams(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.True(t, commitCalled)
	assert.True(t, e.Ready())
	assert.NoError(t, e.CheckReadiness(context.Background()))

	outlook := pub.published[0]
	if diff := cmp.Diff(fairbanks, outlook.Observer); diff != "" {
		t.Fatalf("observer mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, outlook.NorthBest)
	assert.Equal(t, 65.0, outlook.NorthBest.Point.Latitude)
	require.NotNil(t, outlook.SouthBest)
	assert.Len(t, outlook.Highlights, 2, "highlights come from the observer's hemisphere")
}

func TestEngine_Run_ContextCancellation(t *testing.T) {
	src := &mockSource{} // no snapshots, will block
	pub := &mockPublisher{}

	e := engine.New(src, pub, nil, &fairbanks, testParams(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := e.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub.published)
	assert.False(t, e.Ready())
}

func TestEngine_Run_ParseErrorSkipsAndCommits(t *testing.T) {
	raw := domain.RawSnapshot{Value: []byte("not json"), Topic: "ovation-forecasts"}
	commitCalled := false
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	src := &mockSource{snapshots: []domain.RawSnapshot{raw}}
	pub := &mockPublisher{}

	e := engine.New(src, pub, nil, &fairbanks, testParams(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub.published)
	assert.True(t, commitCalled, "a permanently bad message must not be redelivered")
	assert.False(t, e.Ready())
}

func TestEngine_Run_PublishErrorLeavesOffsetUncommitted(t *testing.T) {
	raw := makeRawSnapshot(t, "[[210,65,80]]")
	commitCalled := false
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	src := &mockSource{snapshots: []domain.RawSnapshot{raw}}
	pub := &mockPublisher{err: errors.New("broker unavailable")}

	e := engine.New(src, pub, nil, &fairbanks, testParams(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.NoError(t, err)
	assert.False(t, commitCalled)
	assert.False(t, e.Ready())
}

func TestEngine_Run_NoSiteObserver(t *testing.T) {
	raw := makeRawSnapshot(t, "[[210,65,80]]")

	src := &mockSource{snapshots: []domain.RawSnapshot{raw}}
	pub := &mockPublisher{}

	e := engine.New(src, pub, nil, nil, testParams(), slog.Default(), newTestMetrics())

	_, ok := e.SiteObserver()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, pub.published, "nothing to publish without a site observer")
	assert.True(t, e.Ready(), "snapshots are still retained for ad-hoc queries")

	outlook, ok := e.Outlook(fairbanks)
	require.True(t, ok)
	require.NotNil(t, outlook.NorthBest)
	assert.Equal(t, 65.0, outlook.NorthBest.Point.Latitude)
}

func TestEngine_Run_ResolvesHighlightNames(t *testing.T) {
	raw := makeRawSnapshot(t, "[[210,65,80],[18,69,60]]")

	src := &mockSource{snapshots: []domain.RawSnapshot{raw}}
	pub := &mockPublisher{}
	resolver := &mockResolver{name: "Somewhere North"}

	e := engine.New(src, pub, resolver, &fairbanks, testParams(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// Run drains in-flight resolutions before returning.
	err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resolver.calls.Load())

	outlook, ok := e.Outlook(fairbanks)
	require.True(t, ok)
	require.NotEmpty(t, outlook.Highlights)
	for _, h := range outlook.Highlights {
		assert.Equal(t, "Somewhere North", h.Point.Name)
	}
}

func TestEngine_Run_LateNamesDoNotMutatePublishedOutlooks(t *testing.T) {
	// Two refreshes over the same grid cells, so the second publishes and
	// serves while the first refresh's name resolution is still in flight.
	// Point IDs are coordinate hashes, so the resolutions target the same
	// identities the published outlooks carry.
	coords := "[[210,65,80],[18,69,60]]"
	src := &mockSource{snapshots: []domain.RawSnapshot{
		makeRawSnapshot(t, coords),
		makeRawSnapshot(t, coords),
	}}
	pub := &marshalingPublisher{}
	resolver := &mockResolver{name: "Somewhere North", delay: 20 * time.Millisecond}

	e := engine.New(src, pub, resolver, &fairbanks, testParams(), slog.Default(), newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	require.NoError(t, err)
	require.Len(t, pub.published, 2)

	// The published outlooks hold point copies made before resolution, so
	// names applied to the retained snapshot never reach them.
	for i, outlook := range pub.published {
		for _, h := range outlook.Highlights {
			assert.Empty(t, h.Point.Name, "published outlook %d mutated after publish", i)
		}
	}

	// The retained snapshot did pick up the names.
	outlook, ok := e.Outlook(fairbanks)
	require.True(t, ok)
	require.NotEmpty(t, outlook.Highlights)
	for _, h := range outlook.Highlights {
		assert.Equal(t, "Somewhere North", h.Point.Name)
	}
}

func TestEngine_Outlook_NoSnapshotYet(t *testing.T) {
	e := engine.New(&mockSource{}, &mockPublisher{}, nil, nil, testParams(), slog.Default(), newTestMetrics())

	_, ok := e.Outlook(fairbanks)
	assert.False(t, ok)
	assert.Error(t, e.CheckReadiness(context.Background()))
}

// --- helpers ---

func makeRawSnapshot(t *testing.T, coordinates string) domain.RawSnapshot {
	t.Helper()
	value := fmt.Sprintf(`{"Forecast Time":"2026-03-14T09:35:00Z","coordinates":%s}`, coordinates)
	return domain.RawSnapshot{
		Value:     []byte(value),
		Topic:     "ovation-forecasts",
		Timestamp: time.Date(2026, 3, 14, 9, 36, 0, 0, time.UTC),
	}
}
