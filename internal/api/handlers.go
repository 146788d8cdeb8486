package api

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/fusion"
	"github.com/sells-group/quality-cli/internal/model"
	"github.com/sells-group/quality-cli/internal/scorer"
	"github.com/sells-group/quality-cli/internal/store"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// ScoreResponse is the body of GET /v1/scores/{ticker}.
type ScoreResponse struct {
	Ticker     string                     `json:"ticker"`
	Scores     map[model.Category]float64 `json:"scores"`
	PriceValue model.Opt[float64]         `json:"price_value"`
	Total      float64                    `json:"total"`
	Average    float64                    `json:"average"`
	RunID      string                     `json:"run_id,omitempty"`
	Cached     bool                       `json:"cached"`
	ScoredAt   time.Time                  `json:"scored_at"`
}

func tickerParam(r *http.Request) (string, bool) {
	t := model.NormalizeTicker(chi.URLParam(r, "ticker"))
	return t, tickerRe.MatchString(t)
}

func (s *server) getEntity(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticker")
		return
	}
	writeJSON(w, http.StatusOK, s.runner.RunAll(r.Context(), ticker))
}

func (s *server) getReturns(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticker")
		return
	}
	rec := s.runner.RunAll(r.Context(), ticker)
	writeJSON(w, http.StatusOK, fusion.GetHistoricalReturns(rec))
}

// getScore serves the latest stored run unless ?fresh=true or none exists;
// a fresh score is persisted when a store is configured.
func (s *server) getScore(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ticker")
		return
	}
	ctx := r.Context()
	fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh"))

	if s.runs != nil && !fresh {
		run, err := s.runs.LatestRun(ctx, ticker)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, scoreResponse(run.Card, run.ID, true, run.CreatedAt))
			return
		case !errors.Is(err, store.ErrNotFound):
			zap.L().Warn("api: latest run lookup failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}

	rec := s.runner.RunAll(ctx, ticker)
	card := scorer.Score(rec)

	runID := ""
	if s.runs != nil {
		run, err := s.runs.SaveRun(ctx, rec, card)
		if err != nil {
			zap.L().Warn("api: save run failed", zap.String("ticker", ticker), zap.Error(err))
		} else {
			runID = run.ID
		}
	}
	writeJSON(w, http.StatusOK, scoreResponse(card, runID, false, rec.Timestamp))
}

func scoreResponse(card model.ScoreCard, runID string, cached bool, at time.Time) ScoreResponse {
	return ScoreResponse{
		Ticker:     card.Ticker,
		Scores:     card.Scores,
		PriceValue: card.PriceValue,
		Total:      card.Total(),
		Average:    card.Average(),
		RunID:      runID,
		Cached:     cached,
		ScoredAt:   at,
	}
}

func (s *server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotImplemented, "run history not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{Ticker: model.NormalizeTicker(q.Get("ticker"))}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
