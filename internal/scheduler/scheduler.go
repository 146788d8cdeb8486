// Package scheduler runs a ticker screening job on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// historySize is how many past runs History keeps.
const historySize = 20

// Job screens the given tickers once.
type Job func(ctx context.Context, tickers []string) error

// Result records one execution of the job.
type Result struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Tickers  int           `json:"tickers"`
	Error    string        `json:"error,omitempty"`
}

// Scheduler triggers Job on a standard five-field cron expression.
// A trigger that fires while the previous run is still going is skipped.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	tickers  []string
	job      Job
	now      func() time.Time

	mu      sync.Mutex
	running bool
	history []Result
}

// New validates spec and returns a Scheduler. The descriptors @daily,
// @hourly and "@every 6h" are accepted.
func New(spec string, tickers []string, job Job) (*Scheduler, error) {
	if len(tickers) == 0 {
		return nil, eris.New("scheduler: no tickers to screen")
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, eris.Wrapf(err, "scheduler: parse schedule %q", spec)
	}
	return &Scheduler{
		schedule: sched,
		spec:     spec,
		tickers:  tickers,
		job:      job,
		now:      time.Now,
	}, nil
}

// Next returns the first trigger time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run starts the cron loop and blocks until ctx is cancelled. In-flight
// runs are awaited before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "scheduler"))

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{log: log}),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.RunOnce(ctx) }))

	log.Info("scheduler: started",
		zap.String("schedule", s.spec),
		zap.Int("tickers", len(s.tickers)),
		zap.Time("next", s.Next(s.now().UTC())),
	)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("scheduler: stopped")
	return nil
}

// RunOnce executes the job immediately. It reports false when a run was
// already in progress and this one was skipped.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		zap.L().Warn("scheduler: previous run still in progress, skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()

	start := s.now()
	err := s.job(ctx, s.tickers)
	res := Result{Start: start, Duration: s.now().Sub(start), Tickers: len(s.tickers)}
	if err != nil {
		res.Error = err.Error()
		zap.L().Error("scheduler: screening failed", zap.Error(err))
	} else {
		zap.L().Info("scheduler: screening complete",
			zap.Int("tickers", res.Tickers),
			zap.Duration("duration", res.Duration),
		)
	}

	s.mu.Lock()
	s.running = false
	s.history = append(s.history, res)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.mu.Unlock()
	return true
}

// History returns past results, oldest first.
func (s *Scheduler) History() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.history...)
}

// cronLogger routes cron's internal logging to zap.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
