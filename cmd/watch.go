package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/monitoring"
	"github.com/sells-group/quality-cli/internal/scheduler"
)

var (
	watchOnce bool
	watchFile string
)

var watchCmd = &cobra.Command{
	Use:   "watch [tickers...]",
	Short: "Re-screen the watch list on a cron schedule",
	Long:  "Scores the watch list on watch.schedule (UTC), saving each run, rewriting the workbook and checking phase health. Overlapping runs are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("watch"); err != nil {
			return err
		}
		tickers, err := resolveTickers(args, watchFile, cfg.Watch.Tickers)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		checker := monitoring.NewChecker(
			monitoring.NewCollector(env.Store),
			monitoring.NewAlerter(cfg.Monitor),
			cfg.Monitor,
		)
		job := func(ctx context.Context, tickers []string) error {
			if err := writeReport(ctx, env.Sequencer, env.Store, tickers, cfg.Report.Path); err != nil {
				return err
			}
			checker.Check(ctx)
			return nil
		}
		s, err := scheduler.New(cfg.Watch.Schedule, tickers, job)
		if err != nil {
			return err
		}

		if watchOnce {
			s.RunOnce(ctx)
			if h := s.History(); len(h) > 0 && h[len(h)-1].Error != "" {
				return eris.New(h[len(h)-1].Error)
			}
			return nil
		}

		zap.L().Info("watch: scheduled",
			zap.String("schedule", cfg.Watch.Schedule),
			zap.Time("next", s.Next(time.Now().UTC())),
			zap.Int("tickers", len(tickers)),
		)
		return s.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run the job once and exit")
	watchCmd.Flags().StringVar(&watchFile, "file", "", "ticker list (.xlsx or text)")
	rootCmd.AddCommand(watchCmd)
}
