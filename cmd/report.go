package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/report"
)

var (
	reportOut    string
	reportFile   string
	reportNoSave bool
)

var reportCmd = &cobra.Command{
	Use:   "report [tickers...]",
	Short: "Screen tickers and write the scorecard workbook",
	Long:  "Scores every ticker and writes one sheet per category plus PriceValue and Overview. Manual PriceValue scores already in the workbook are carried over.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		tickers, err := resolveTickers(args, reportFile, cfg.Watch.Tickers)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out := reportOut
		if out == "" {
			out = cfg.Report.Path
		}
		var saver runSaver
		if !reportNoSave {
			saver = env.Store
		}
		return writeReport(ctx, env.Sequencer, saver, tickers, out)
	},
}

// writeReport screens tickers, saves runs when saver is set, and rewrites
// the workbook at path.
func writeReport(ctx context.Context, r runner, saver runSaver, tickers []string, path string) error {
	priceValues, err := report.ReadPriceValues(path)
	if err != nil {
		return err
	}

	results, err := screen(ctx, r, tickers, screenOptions{
		Concurrency: cfg.Batch.MaxConcurrent,
		Score:       true,
		Runs:        saver,
		PriceValues: priceValues,
	})
	if err != nil {
		return err
	}

	if err := report.Write(path, reportEntries(results)); err != nil {
		return err
	}
	zap.L().Info("report: complete",
		zap.String("path", path),
		zap.Int("tickers", len(results)),
		zap.Int("manual_price_values", len(priceValues)),
	)
	return nil
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "workbook path (default from config)")
	reportCmd.Flags().StringVar(&reportFile, "file", "", "ticker list (.xlsx or text)")
	reportCmd.Flags().BoolVar(&reportNoSave, "no-save", false, "do not persist runs")
	rootCmd.AddCommand(reportCmd)
}
