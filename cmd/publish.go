package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/publish"
	"github.com/sells-group/quality-cli/internal/store"
	"github.com/sells-group/quality-cli/pkg/notion"
)

var publishFile string

var publishCmd = &cobra.Command{
	Use:   "publish [tickers...]",
	Short: "Push the latest stored scorecards to Notion",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("publish"); err != nil {
			return err
		}
		tickers, err := resolveTickers(args, publishFile, cfg.Watch.Tickers)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := latestEntries(ctx, st, tickers)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No stored runs to publish; run score first.")
			return nil
		}

		p := publish.NewPublisher(notion.NewClient(cfg.Notion.Token), cfg.Notion.ScoreDB)
		res, err := p.PublishAll(ctx, entries)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Created %d, updated %d, failed %d.\n", res.Created, res.Updated, res.Failed)
		return nil
	},
}

// latestRunner reads the newest stored run for a ticker.
type latestRunner interface {
	LatestRun(ctx context.Context, ticker string) (*store.Run, error)
}

// latestEntries loads the newest run per ticker. Tickers never scored are
// skipped with a warning.
func latestEntries(ctx context.Context, st latestRunner, tickers []string) ([]publish.Entry, error) {
	var entries []publish.Entry
	for _, t := range tickers {
		run, err := st.LatestRun(ctx, t)
		if errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("publish: no stored run", zap.String("ticker", t))
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "publish: load run %s", t)
		}
		entries = append(entries, publish.Entry{Record: run.Record, Card: run.Card})
	}
	return entries, nil
}

func init() {
	publishCmd.Flags().StringVar(&publishFile, "file", "", "ticker list (.xlsx or text)")
	rootCmd.AddCommand(publishCmd)
}
