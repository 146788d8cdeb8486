package scorer

import (
	"cmp"
	"slices"

	"github.com/sells-group/quality-cli/internal/model"
)

// Score derives the ScoreCard for a compiled record. It only reads rec.
func Score(rec model.FinalRecord) model.ScoreCard {
	return ScoreInputs(rec.Ticker, InputsFromRecord(rec))
}

// ScoreInputs applies every category function to in.
func ScoreInputs(ticker string, in Inputs) model.ScoreCard {
	return model.ScoreCard{
		Ticker: ticker,
		Scores: map[model.Category]float64{
			model.CategorySimplicity:        Simplicity(in.Simplicity),
			model.CategoryOperatingHistory:  OperatingHistory(in.OperatingHistory),
			model.CategoryMoat:              Moat(in.Moat),
			model.CategoryManagement:        Management(in.Management),
			model.CategoryROEROIC:           ROEROIC(in.ROEROIC),
			model.CategoryPredictability:    Predictability(in.Predictability),
			model.CategoryCapitalAllocation: CapitalAllocation(in.CapitalAllocation),
			model.CategoryLeverage:          Leverage(in.Leverage),
			model.CategoryResilience:        Resilience(in.Resilience),
		},
	}
}

// OverviewRow is one ranked line of the overview table.
type OverviewRow struct {
	Card    model.ScoreCard `json:"card"`
	Total   float64         `json:"total"`
	Average float64         `json:"average"`
	Rank    int             `json:"rank"`
}

// Overview ranks cards by Average, highest first. Ties share a rank and the
// next distinct average skips ahead (1, 2, 2, 4). Ties are ordered by ticker.
func Overview(cards []model.ScoreCard) []OverviewRow {
	rows := make([]OverviewRow, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, OverviewRow{Card: c, Total: c.Total(), Average: c.Average()})
	}

	slices.SortStableFunc(rows, func(a, b OverviewRow) int {
		if c := cmp.Compare(b.Average, a.Average); c != 0 {
			return c
		}
		return cmp.Compare(a.Card.Ticker, b.Card.Ticker)
	})

	for i := range rows {
		if i > 0 && rows[i].Average == rows[i-1].Average {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}
