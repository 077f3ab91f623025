package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sjsage522/dealmonitor/config"
	"sjsage522/dealmonitor/internal/crawler"
	"sjsage522/dealmonitor/services/publisher"
	"sjsage522/dealmonitor/services/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StubCollector implements crawler.Collector with canned results
type StubCollector struct {
	deals map[string][]crawler.Deal
	calls int
}

var _ crawler.Collector = (*StubCollector)(nil)

func (s *StubCollector) CollectForTerm(ctx context.Context, term string) []crawler.Deal {
	s.calls++
	return s.deals[term]
}

// MockPublisher implements publisher.Publisher, recording published deals
type MockPublisher struct {
	published []string
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(term string, message []byte) error {
	m.published = append(m.published, string(message))
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		SearchTerms:   []string{"充电宝"},
		CheckInterval: 10 * time.Minute,
		DBPath:        filepath.Join(t.TempDir(), "database", "deals.db"),
		SafetyPageCap: 50,
	}
}

func qualifyingDeal(id string) crawler.Deal {
	return crawler.Deal{
		ID:         id,
		Title:      "Deal " + id,
		Price:      "99元",
		Likes:      1,
		Comments:   2,
		Platform:   "京东",
		Link:       "https://www.smzdm.com/p/" + id + "/",
		TimeText:   "刚刚",
		SearchTerm: "充电宝",
	}
}

func TestRunOneRoundForTerm(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, store.Init(cfg.DBPath))

	collector := &StubCollector{deals: map[string][]crawler.Deal{
		"充电宝": {qualifyingDeal("A"), qualifyingDeal("B")},
	}}
	pub := &MockPublisher{}

	w := NewWorker(context.Background(), cfg, collector, pub, nil)

	// Fresh storage: both deals are new
	assert.Equal(t, 2, w.RunOneRoundForTerm("充电宝"))
	assert.Len(t, pub.published, 2)

	// Identical round: nothing new, storage unchanged
	assert.Equal(t, 0, w.RunOneRoundForTerm("充电宝"))
	assert.Len(t, pub.published, 2)

	count, err := store.CountDeals(cfg.DBPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRoundSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, store.Init(cfg.DBPath))

	collector := &StubCollector{deals: map[string][]crawler.Deal{
		"充电宝": {qualifyingDeal("A"), qualifyingDeal("B")},
	}}

	w := NewWorker(context.Background(), cfg, collector, nil, nil)
	assert.Equal(t, 2, w.RunOneRoundForTerm("充电宝"))

	// Simulated restart: a new worker seeded from the store sees no new deals
	seen, err := store.LoadSeenIDs(cfg.DBPath)
	require.NoError(t, err)

	w2 := NewWorker(context.Background(), cfg, collector, nil, seen)
	assert.Equal(t, 0, w2.RunOneRoundForTerm("充电宝"))

	count, err := store.CountDeals(cfg.DBPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSeenSetSkipsInsert(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, store.Init(cfg.DBPath))

	collector := &StubCollector{deals: map[string][]crawler.Deal{
		"充电宝": {qualifyingDeal("A")},
	}}

	seen := map[string]struct{}{"A": {}}
	w := NewWorker(context.Background(), cfg, collector, nil, seen)

	assert.Equal(t, 0, w.RunOneRoundForTerm("充电宝"))

	count, err := store.CountDeals(cfg.DBPath)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInsertOrderIsOldestFirst(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, store.Init(cfg.DBPath))

	// Pages list newest first; insertion must reverse that
	collector := &StubCollector{deals: map[string][]crawler.Deal{
		"充电宝": {qualifyingDeal("newest"), qualifyingDeal("oldest")},
	}}
	pub := &MockPublisher{}

	w := NewWorker(context.Background(), cfg, collector, pub, nil)
	assert.Equal(t, 2, w.RunOneRoundForTerm("充电宝"))

	require.Len(t, pub.published, 2)
	assert.Contains(t, pub.published[0], "oldest")
	assert.Contains(t, pub.published[1], "newest")
}

func TestStorageFailureDoesNotCrashRound(t *testing.T) {
	cfg := testConfig(t)
	// No store.Init: every insert fails

	collector := &StubCollector{deals: map[string][]crawler.Deal{
		"充电宝": {qualifyingDeal("A")},
	}}

	w := NewWorker(context.Background(), cfg, collector, nil, nil)
	assert.Equal(t, 0, w.RunOneRoundForTerm("充电宝"))
}

func TestStartStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, store.Init(cfg.DBPath))

	collector := &StubCollector{}
	ctx, cancel := context.WithCancel(context.Background())

	w := NewWorker(ctx, cfg, collector, nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- w.Start()
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
