package cmd

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-insights/internal/publisher"
)

var (
	exportOut   string
	exportTable string
)

var exportCmd = &cobra.Command{
	Use:   "export <competition>",
	Short: "Export a stored report as JSON",
	Long: `Write a stored competition report as JSON, either whole or a single table.

Table names: summary, team_runs, team_comebacks, clutch_stats, quarter_profiles,
runs, comebacks, blown_leads, closers, responsibility, q4_heroes, player_activity,
player_distribution.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportTable, "table", "", "export only this table")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := db.LoadReport(args[0])
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	var payload any = rep
	if exportTable != "" {
		found := false
		for _, t := range publisher.Tables(rep) {
			if t.Name == exportTable {
				payload, found = t.Rows, true
			}
		}
		if !found {
			return fmt.Errorf("unknown table %q", exportTable)
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	if exportOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	logger.Info("report exported", "competition", rep.Competition, "out", exportOut)
	return nil
}
