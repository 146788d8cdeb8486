package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/config"
	"github.com/sells-group/quality-cli/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertPhaseFailureRate AlertType = "phase_failure_rate"
	AlertStaleRuns        AlertType = "stale_runs"
)

// staleAfter is how old the newest run may get before AlertStaleRuns.
const staleAfter = 72 * time.Hour

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook.
type Alerter struct {
	cfg    config.MonitorConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitorConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts,
// in phase order.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert

	for _, name := range model.PhaseOrder {
		st, ok := snap.Phases[name]
		if !ok {
			continue
		}
		attempted := st.Complete + st.Failed
		if attempted < a.cfg.MinRuns || st.FailRate <= a.cfg.FailureRateThreshold {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     AlertPhaseFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Phase %s failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d attempted in last %d runs)",
				name, st.FailRate*100, a.cfg.FailureRateThreshold*100,
				st.Failed, attempted, snap.Runs,
			),
			Details: map[string]any{
				"phase":        name,
				"failure_rate": st.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       st.Failed,
				"attempted":    attempted,
			},
			Timestamp: snap.CollectedAt,
		})
	}

	if snap.Runs > 0 && snap.CollectedAt.Sub(snap.Newest) > staleAfter {
		alerts = append(alerts, Alert{
			Type:     AlertStaleRuns,
			Severity: "medium",
			Message: fmt.Sprintf("No scoring run since %s",
				snap.Newest.UTC().Format(time.DateTime)),
			Details: map[string]any{
				"newest": snap.Newest,
			},
			Timestamp: snap.CollectedAt,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
