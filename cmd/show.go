package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-insights/internal/report"
	"github.com/pable/go-pbp-insights/internal/storage"
)

var (
	showSections []string
	showTop      int
)

var showCmd = &cobra.Command{
	Use:   "show <competition>",
	Short: "Show a stored competition report",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringSliceVar(&showSections, "section", nil, "sections to print: runs, comebacks, clutch, quarters, players (default all)")
	showCmd.Flags().IntVar(&showTop, "top", 20, "max rows in detail tables (0 = all)")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := db.LoadReport(args[0])
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No analysis stored for %q\n", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	report.PrintReport(os.Stdout, rep, showSections, showTop)
	return nil
}
