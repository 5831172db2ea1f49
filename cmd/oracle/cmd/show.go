package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a summary of the stored record",
	RunE:  runShow,
}

var showDays int

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntVarP(&showDays, "days", "n", 10, "number of most recent days to print")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	rec, err := st.Load(ctx)
	if err != nil {
		return err
	}

	if len(rec.Daily) == 0 {
		fmt.Println("Record is empty.")
		return nil
	}

	fmt.Printf("Record: %d days, version %d, last date %s\n", len(rec.Daily), rec.Version, rec.LastDate)

	days := make([]string, 0, len(rec.Daily))
	for d := range rec.Daily {
		days = append(days, d)
	}
	sort.Strings(days)

	if showDays > 0 && len(days) > showDays {
		days = days[len(days)-showDays:]
	}

	fmt.Printf("%-12s %12s %12s\n", "date", cfg.Asset.ReferenceCurrency, cfg.Asset.TargetCurrency)
	for _, d := range days {
		e := rec.Daily[d]
		fmt.Printf("%-12s %12.6f %12.4f\n", d, e.Reference, e.Target)
	}

	return nil
}
