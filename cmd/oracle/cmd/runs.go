package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxfeed/oracle/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent fill runs from the SQLite journal",
	RunE:  runRuns,
}

var runsLimit int

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Journal.Type != "sqlite" {
		return fmt.Errorf("runs requires journal.type 'sqlite' (have %q)", cfg.Journal.Type)
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-27s %-20s %-23s %6s %6s %6s %-7s %s\n",
		"run_id", "started", "range", "added", "miss_p", "miss_r", "status", "error")
	for _, r := range runs {
		rng := "-"
		if r.StartDate != "" {
			rng = r.StartDate + ".." + r.EndDate
		}
		fmt.Printf("%-27s %-20s %-23s %6d %6d %6d %-7s %s\n",
			r.RunID,
			r.StartedAt.UTC().Format(time.RFC3339),
			rng,
			r.Added, r.MissingPrice, r.MissingRate,
			r.Status, r.Error)
	}

	return nil
}
