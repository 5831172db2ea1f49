package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rxfeed/oracle/record"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Build the record over an explicit historical date range",
	Long: `Fill the stored record over an explicit [start, end] range, regardless of
the watermark. Dates already present are left untouched, so bootstrapping
over an existing record only fills its gaps going forward in time.

Example:
  oracle bootstrap -f oracle.yaml --start 2022-10-01 --end 2024-12-31`,
	RunE: runBootstrap,
}

var (
	bootstrapStart string
	bootstrapEnd   string
)

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().StringVar(&bootstrapStart, "start", "", "first date to fill (YYYY-MM-DD) (required)")
	bootstrapCmd.Flags().StringVar(&bootstrapEnd, "end", "", "last date to fill (YYYY-MM-DD) (required)")
	bootstrapCmd.MarkFlagRequired("start")
	bootstrapCmd.MarkFlagRequired("end")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if _, err := record.ParseDate(bootstrapStart); err != nil {
		return err
	}
	if _, err := record.ParseDate(bootstrapEnd); err != nil {
		return err
	}
	if bootstrapStart > bootstrapEnd {
		return fmt.Errorf("start %s is after end %s", bootstrapStart, bootstrapEnd)
	}

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

	res, err := runner.RunRange(ctx, bootstrapStart, bootstrapEnd)
	if err != nil {
		return err
	}

	fmt.Printf("Bootstrapped %s .. %s: added %d day(s), existing %d, missing price %d, missing rate %d; record now %d days through %s.\n",
		res.StartDate, res.EndDate,
		res.Stats.Added, res.Stats.SkippedExisting, res.Stats.MissingPrice, res.Stats.MissingRate,
		res.TotalDays, res.LastDate)

	return nil
}
