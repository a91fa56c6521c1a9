package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/model"
	"github.com/sells-group/wine-cli/internal/store"
)

// mockLister implements RunLister for testing.
type mockLister struct {
	runs    []model.Run
	listErr error
}

func (m *mockLister) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var filtered []model.Run
	for _, r := range m.runs {
		if !filter.CreatedAfter.IsZero() && r.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

func TestCollector_Collect(t *testing.T) {
	now := time.Now().UTC()
	st := &mockLister{runs: []model.Run{
		{ID: "1", Status: model.RunStatusComplete, Pages: 10, Result: &model.RunResult{Records: 90, Skipped: 1}, CreatedAt: now},
		{ID: "2", Status: model.RunStatusComplete, Pages: 10, Result: &model.RunResult{Records: 0, Skipped: 10}, CreatedAt: now},
		{ID: "3", Status: model.RunStatusFailed, Pages: 20, Result: &model.RunResult{Skipped: 4, Error: "disk full"}, CreatedAt: now},
		{ID: "4", Status: model.RunStatusRunning, Pages: 400, CreatedAt: now},
		{ID: "old", Status: model.RunStatusFailed, Pages: 5, CreatedAt: now.Add(-48 * time.Hour)},
	}}

	snap, err := NewCollector(st).Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.RunsTotal)
	assert.Equal(t, 2, snap.RunsComplete)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.Equal(t, 1, snap.RunsRunning)
	assert.InDelta(t, 1.0/3.0, snap.FailRate, 1e-9)
	assert.Equal(t, 40, snap.PagesRequested)
	assert.Equal(t, 15, snap.PagesSkipped)
	assert.InDelta(t, 15.0/40.0, snap.SkipRate, 1e-9)
	assert.Equal(t, 90, snap.Records)
	assert.Equal(t, []string{"2"}, snap.EmptyRuns)
	assert.Equal(t, 24, snap.LookbackHours)
}

func TestCollector_ListError(t *testing.T) {
	_, err := NewCollector(&mockLister{listErr: errors.New("db down")}).Collect(context.Background(), 24)
	assert.Error(t, err)
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10, SkipRateThreshold: 0.25})
	alerts := a.Evaluate(&MetricsSnapshot{
		RunsTotal:      10,
		RunsComplete:   10,
		PagesRequested: 100,
		PagesSkipped:   2,
		SkipRate:       0.02,
		LookbackHours:  24,
	})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_FailureRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10})
	alerts := a.Evaluate(&MetricsSnapshot{
		RunsComplete:  8,
		RunsFailed:    2,
		FailRate:      0.2,
		LookbackHours: 24,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertRunFailureRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "20.0%")
}

func TestAlerter_Evaluate_MinimumRunsRequired(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10})

	// Only 3 finished runs, below the minimum for a failure rate alert.
	alerts := a.Evaluate(&MetricsSnapshot{
		RunsComplete:  1,
		RunsFailed:    2,
		FailRate:      0.666,
		LookbackHours: 24,
	})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_SkipRateAndEmptyRuns(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.10, SkipRateThreshold: 0.25})
	alerts := a.Evaluate(&MetricsSnapshot{
		RunsComplete:   2,
		PagesRequested: 20,
		PagesSkipped:   11,
		SkipRate:       0.55,
		EmptyRuns:      []string{"2"},
		LookbackHours:  24,
	})
	require.Len(t, alerts, 2)

	types := make(map[AlertType]bool)
	for _, a := range alerts {
		types[a.Type] = true
	}
	assert.True(t, types[AlertPageSkipRate])
	assert.True(t, types[AlertEmptyRun])
}

func TestAlerter_Evaluate_ZeroSkipThreshold(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{SkipRateThreshold: 0}) // disabled
	alerts := a.Evaluate(&MetricsSnapshot{PagesRequested: 10, PagesSkipped: 10, SkipRate: 1})
	assert.Empty(t, alerts)
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		err := json.NewDecoder(r.Body).Decode(&alert)
		require.NoError(t, err)
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})
	alerts := []Alert{
		{Type: AlertRunFailureRate, Severity: "high", Message: "test alert 1"},
		{Type: AlertEmptyRun, Severity: "high", Message: "test alert 2"},
	}

	sent := a.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertEmptyRun}}))

	a = NewAlerter(config.MonitoringConfig{WebhookURL: "http://example.com"})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), nil))
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertEmptyRun, Message: "test"}})
	assert.Equal(t, 0, sent)
}

func TestChecker_Check(t *testing.T) {
	now := time.Now().UTC()
	st := &mockLister{runs: []model.Run{
		{ID: "e", Status: model.RunStatusComplete, Pages: 1, Result: &model.RunResult{}, CreatedAt: now},
	}}
	cfg := config.MonitoringConfig{LookbackWindowHours: 24}
	checker := NewChecker(NewCollector(st), NewAlerter(cfg), cfg)

	snap, alerts := checker.Check(context.Background())
	require.NotNil(t, snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertEmptyRun, alerts[0].Type)
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, LookbackWindowHours: 24}
	checker := NewChecker(NewCollector(&mockLister{}), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}
