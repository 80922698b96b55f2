package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-insights/internal/storage"
)

var (
	dropForce       bool
	dropCompetition string
)

// dropCmd deletes one stored analysis or the whole database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete a stored analysis or the whole database",
	Long: `With --competition, delete that competition's stored analysis.
Without it, permanently delete the SQLite database; re-run analyze to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVarP(&dropCompetition, "competition", "c", "", "delete only this competition")
}

func runDrop(cmd *cobra.Command, args []string) error {
	target := dbPath
	if dropCompetition != "" {
		target = fmt.Sprintf("analysis %q in %s", dropCompetition, dbPath)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropCompetition != "" {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.DeleteAnalysis(dropCompetition); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(os.Stdout, "No analysis stored for %q, nothing to drop.\n", dropCompetition)
				return nil
			}
			return fmt.Errorf("delete analysis: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", target)
		return nil
	}

	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
