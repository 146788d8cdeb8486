package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/fusion"
	"github.com/sells-group/quality-cli/internal/model"
)

var (
	scoreFile   string
	scoreFormat string
	scoreNoSave bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [tickers...]",
	Short: "Compile and score tickers, saving each run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		tickers, err := resolveTickers(args, scoreFile, cfg.Watch.Tickers)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := screenOptions{Concurrency: cfg.Batch.MaxConcurrent, Score: true}
		if !scoreNoSave {
			opts.Runs = env.Store
		}
		results, err := screen(ctx, env.Sequencer, tickers, opts)
		if err != nil {
			return err
		}

		if scoreFormat != "table" {
			return writeStructured(os.Stdout, scoreFormat, scoreViews(results))
		}
		cards := make([]model.ScoreCard, 0, len(results))
		for _, r := range results {
			cards = append(cards, r.Card)
		}
		formatScoreTable(os.Stdout, cards)
		return nil
	},
}

// scoreView is the structured output of one scored ticker.
type scoreView struct {
	Ticker      string                     `json:"ticker"`
	RunID       string                     `json:"run_id,omitempty"`
	Card        model.ScoreCard            `json:"scorecard"`
	Total       float64                    `json:"total"`
	Average     float64                    `json:"average"`
	Returns     fusion.HistoricalReturns   `json:"historical_returns"`
	Qualitative fusion.QualitativeAnalysis `json:"qualitative"`
	SourcesUsed []string                   `json:"sources_used"`
}

func scoreViews(results []screenResult) []scoreView {
	out := make([]scoreView, 0, len(results))
	for _, r := range results {
		out = append(out, scoreView{
			Ticker:      r.Record.Ticker,
			RunID:       r.RunID,
			Card:        r.Card,
			Total:       r.Card.Total(),
			Average:     r.Card.Average(),
			Returns:     fusion.GetHistoricalReturns(r.Record),
			Qualitative: fusion.GetQualitativeAnalysis(r.Record),
			SourcesUsed: r.Record.SourcesUsed,
		})
		zap.L().Debug("score: ticker scored", zap.String("ticker", r.Record.Ticker), zap.Float64("total", r.Card.Total()))
	}
	return out
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "ticker list (.xlsx or text)")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "table", "output format: table, json or yaml")
	scoreCmd.Flags().BoolVar(&scoreNoSave, "no-save", false, "do not persist runs")
	rootCmd.AddCommand(scoreCmd)
}
