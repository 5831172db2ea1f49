package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Run one incremental fill cycle",
	Long: `Extend the stored record from its watermark through yesterday (UTC).

Fetches daily closes from the exchange and daily FX rates, merges them with
forward-filled rates, and saves the record. Running twice in the same UTC day
is a no-op. Exits non-zero only on a fatal condition (source or store
unavailable); per-date gaps are skipped and summarized.

Example:
  oracle fill -f oracle.yaml`,
	RunE: runFill,
}

func init() {
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runner, j, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if res.NoOp {
		fmt.Printf("Record complete through %s (%d days); nothing to fill.\n",
			res.LastDate, res.TotalDays)
		return nil
	}

	fmt.Printf("Filled %s .. %s: added %d day(s)", res.StartDate, res.EndDate, res.Stats.Added)
	if res.Stats.MissingPrice > 0 || res.Stats.MissingRate > 0 || res.Stats.SkippedExisting > 0 {
		fmt.Printf(" (existing %d, missing price %d, missing rate %d)",
			res.Stats.SkippedExisting, res.Stats.MissingPrice, res.Stats.MissingRate)
	}
	fmt.Printf("; record now %d days through %s.\n", res.TotalDays, res.LastDate)

	return nil
}
