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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/config"
	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockRuns struct{ mock.Mock }

func (m *mockRuns) ListRuns(ctx context.Context, filter store.RunFilter) ([]store.Run, error) {
	args := m.Called(ctx, filter)
	if r := args.Get(0); r != nil {
		return r.([]store.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

var collectedAt = time.Date(2026, 10, 17, 22, 0, 0, 0, time.UTC)

func runWith(total float64, created time.Time, statuses map[string]model.PhaseStatus) store.Run {
	var phases []model.PhaseResult
	for _, name := range model.PhaseOrder {
		if s, ok := statuses[name]; ok {
			phases = append(phases, model.PhaseResult{Name: name, Status: s})
		}
	}
	return store.Run{Total: total, CreatedAt: created, Record: model.FinalRecord{Phases: phases}}
}

func TestCollector_Collect(t *testing.T) {
	runs := &mockRuns{}
	runs.On("ListRuns", mock.Anything, store.RunFilter{Limit: 50}).Return([]store.Run{
		runWith(60, collectedAt.Add(-time.Hour), map[string]model.PhaseStatus{
			model.PhaseIdentity:     model.PhaseStatusComplete,
			model.PhaseFundamentals: model.PhaseStatusFailed,
			model.PhaseMacro:        model.PhaseStatusSkipped,
		}),
		runWith(40, collectedAt.Add(-2*time.Hour), map[string]model.PhaseStatus{
			model.PhaseIdentity:     model.PhaseStatusComplete,
			model.PhaseFundamentals: model.PhaseStatusComplete,
			model.PhaseMacro:        model.PhaseStatusSkipped,
		}),
	}, nil)

	c := NewCollector(runs)
	c.now = func() time.Time { return collectedAt }

	snap, err := c.Collect(context.Background(), 50)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Runs)
	assert.InDelta(t, 50.0, snap.AvgTotal, 0.001)
	assert.Equal(t, collectedAt.Add(-time.Hour), snap.Newest)
	assert.Equal(t, collectedAt, snap.CollectedAt)

	assert.Equal(t, PhaseStats{Complete: 2}, snap.Phases[model.PhaseIdentity])
	assert.Equal(t, PhaseStats{Complete: 1, Failed: 1, FailRate: 0.5}, snap.Phases[model.PhaseFundamentals])
	assert.Equal(t, PhaseStats{Skipped: 2}, snap.Phases[model.PhaseMacro], "skips are not failures")
	runs.AssertExpectations(t)
}

func TestCollector_Empty(t *testing.T) {
	runs := &mockRuns{}
	runs.On("ListRuns", mock.Anything, mock.Anything).Return([]store.Run{}, nil)

	snap, err := NewCollector(runs).Collect(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, snap.Runs)
	assert.Zero(t, snap.AvgTotal)
	assert.Empty(t, snap.Phases)
}

func TestCollector_Error(t *testing.T) {
	runs := &mockRuns{}
	runs.On("ListRuns", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := NewCollector(runs).Collect(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")
}

func monitorCfg(url string) config.MonitorConfig {
	return config.MonitorConfig{WebhookURL: url, FailureRateThreshold: 0.25, LookbackRuns: 100, MinRuns: 5}
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(monitorCfg(""))
	snap := &Snapshot{
		Runs: 20,
		Phases: map[string]PhaseStats{
			model.PhaseFilings: {Complete: 18, Failed: 2, FailRate: 0.1},
			model.PhaseMacro:   {Skipped: 20},
		},
		Newest:      collectedAt.Add(-time.Hour),
		CollectedAt: collectedAt,
	}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_PhaseFailureRate(t *testing.T) {
	a := NewAlerter(monitorCfg(""))
	snap := &Snapshot{
		Runs: 10,
		Phases: map[string]PhaseStats{
			model.PhaseQualitative:  {Complete: 6, Failed: 4, FailRate: 0.4},
			model.PhaseFundamentals: {Complete: 2, Failed: 2, FailRate: 0.5},
		},
		Newest:      collectedAt,
		CollectedAt: collectedAt,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1, "fundamentals is below the minimum sample")
	assert.Equal(t, AlertPhaseFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "6_qualitative")
	assert.Contains(t, alerts[0].Message, "40.0%")
}

func TestAlerter_Evaluate_StaleRuns(t *testing.T) {
	a := NewAlerter(monitorCfg(""))
	snap := &Snapshot{
		Runs:        3,
		Phases:      map[string]PhaseStats{},
		Newest:      collectedAt.Add(-96 * time.Hour),
		CollectedAt: collectedAt,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStaleRuns, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "2026-10-13 22:00:00")
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if alert.Type == AlertStaleRuns {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(monitorCfg(srv.URL))
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertPhaseFailureRate, Severity: "high"},
		{Type: AlertStaleRuns, Severity: "medium"},
	})
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(monitorCfg(""))
	assert.Zero(t, a.SendAlerts(context.Background(), []Alert{{Type: AlertStaleRuns}}))
}

func TestChecker_Check(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var list []store.Run
	for i := 0; i < 6; i++ {
		status := model.PhaseStatusComplete
		if i%2 == 0 {
			status = model.PhaseStatusFailed
		}
		list = append(list, runWith(50, collectedAt, map[string]model.PhaseStatus{model.PhaseFilings: status}))
	}
	runs := &mockRuns{}
	runs.On("ListRuns", mock.Anything, store.RunFilter{Limit: 100}).Return(list, nil)

	collector := NewCollector(runs)
	collector.now = func() time.Time { return collectedAt }
	cfg := monitorCfg(srv.URL)

	alerts := NewChecker(collector, NewAlerter(cfg), cfg).Check(context.Background())
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertPhaseFailureRate, alerts[0].Type)
	assert.Equal(t, int32(1), hits.Load())
}

func TestChecker_CollectFailure(t *testing.T) {
	runs := &mockRuns{}
	runs.On("ListRuns", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	cfg := monitorCfg("")

	assert.Nil(t, NewChecker(NewCollector(runs), NewAlerter(cfg), cfg).Check(context.Background()))
}
