package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/quality-cli/internal/model"
)

var (
	runFormat string
	runFile   string
)

var runCmd = &cobra.Command{
	Use:   "run [tickers...]",
	Short: "Compile the financial profile for one or more tickers",
	Long:  "Runs the six fusion phases and prints the compiled record. Nothing is scored or persisted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		tickers, err := resolveTickers(args, runFile, cfg.Watch.Tickers)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := screen(ctx, env.Sequencer, tickers, screenOptions{Concurrency: cfg.Batch.MaxConcurrent})
		if err != nil {
			return err
		}

		if len(results) == 1 {
			return writeStructured(os.Stdout, runFormat, results[0].Record)
		}
		records := make([]model.FinalRecord, 0, len(results))
		for _, r := range results {
			records = append(records, r.Record)
		}
		return writeStructured(os.Stdout, runFormat, records)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <ticker>",
	Short: "Show basic identity for a ticker (identity phase only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		formatBasicInfo(os.Stdout, env.Sequencer.GetBasicInfo(ctx, model.NormalizeTicker(args[0])))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFormat, "format", "json", "output format: json or yaml")
	runCmd.Flags().StringVar(&runFile, "file", "", "ticker list (.xlsx or text)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(infoCmd)
}
