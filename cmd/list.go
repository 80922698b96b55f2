package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored analyses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	analyses, err := db.ListAnalyses()
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if len(analyses) == 0 {
		fmt.Fprintln(os.Stdout, "No analyses stored yet. Run 'pbpinsights analyze -c <competition> <events.json>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-20s  %6s  %7s  %5s  %9s\n",
		"COMPETITION", "ANALYZED", "GAMES", "EVENTS", "RUNS", "COMEBACKS")
	fmt.Fprintf(os.Stdout, "%-20s  %-20s  %6s  %7s  %5s  %9s\n",
		"────────────────────", "────────────────────", "──────", "───────", "─────", "─────────")
	for _, a := range analyses {
		fmt.Fprintf(os.Stdout, "%-20s  %-20s  %6d  %7d  %5d  %9d\n",
			a.Competition, a.CreatedAt, a.Games, a.Events, a.Runs, a.Comebacks)
	}
	return nil
}
