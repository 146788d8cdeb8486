// Package monitoring watches phase health across recent scoring runs and
// posts webhook alerts when a source keeps failing.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/store"
)

// PhaseStats counts outcomes for one fusion phase.
type PhaseStats struct {
	Complete int     `json:"complete"`
	Skipped  int     `json:"skipped"`
	Failed   int     `json:"failed"`
	FailRate float64 `json:"fail_rate"`
}

// Snapshot is a point-in-time view of recent runs.
type Snapshot struct {
	Runs        int                   `json:"runs"`
	Phases      map[string]PhaseStats `json:"phases"`
	AvgTotal    float64               `json:"avg_total"`
	Newest      time.Time             `json:"newest,omitempty"`
	CollectedAt time.Time             `json:"collected_at"`
}

// RunLister is the store method the collector needs.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]store.Run, error)
}

// Collector gathers phase statistics from the run history.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a collector over runs.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes the newest lookback runs. Skipped phases do not count
// toward the failure rate: a source without credentials is not unhealthy.
func (c *Collector) Collect(ctx context.Context, lookback int) (*Snapshot, error) {
	runs, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: lookback})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap := &Snapshot{
		Runs:        len(runs),
		Phases:      make(map[string]PhaseStats, len(model.PhaseOrder)),
		CollectedAt: c.now().UTC(),
	}

	var total float64
	for _, r := range runs {
		total += r.Total
		if r.CreatedAt.After(snap.Newest) {
			snap.Newest = r.CreatedAt
		}
		for _, p := range r.Record.Phases {
			st := snap.Phases[p.Name]
			switch p.Status {
			case model.PhaseStatusComplete:
				st.Complete++
			case model.PhaseStatusSkipped:
				st.Skipped++
			case model.PhaseStatusFailed:
				st.Failed++
			}
			snap.Phases[p.Name] = st
		}
	}
	if len(runs) > 0 {
		snap.AvgTotal = total / float64(len(runs))
	}

	for name, st := range snap.Phases {
		if attempted := st.Complete + st.Failed; attempted > 0 {
			st.FailRate = float64(st.Failed) / float64(attempted)
		}
		snap.Phases[name] = st
	}
	return snap, nil
}
