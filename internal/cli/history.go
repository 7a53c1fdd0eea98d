package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailphone/internal/database"
	"github.com/vijay-prabhu/mailphone/internal/output"
)

var (
	historyLimit  int
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Long: `History lists recent pipeline runs recorded in the local database.

Examples:
  mailphone history             # Last 20 runs
  mailphone history --limit=5   # Last 5 runs
  mailphone history -o json     # JSON output`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "output format (table, json)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	if !cfg.History.Enabled {
		fmt.Println("Run history is disabled ([history] enabled = false).")
		return nil
	}

	// Open database
	db, err := database.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []database.Run{}
	}

	return output.Output(historyOutput, runs)
}
