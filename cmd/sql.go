package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-pbp-insights/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a read-only SQL query against the insights database",
	Long: `Run a single read-only query against the insights database and print results as a table.
Only SELECT, WITH, EXPLAIN and VALUES statements are accepted. Use drop to delete analyses.

Schema overview:
  analyses(id, competition, created_at, games, events, clutch_events, failed_games,
    runs, comebacks, report_json)
  runs(analysis_id, seq, game_code, team, opponent, points, start_quarter, start_time, end_time)
  comebacks(analysis_id, seq, game_code, team, opponent, deficit, deficit_time,
    deficit_quarter, best_gap_after, best_after_time, best_after_quarter, final_score, won)
  blown_leads(analysis_id, seq, game_code, team, opponent, max_lead, max_lead_time,
    max_lead_quarter, worst_after, worst_after_time, worst_after_quarter, final_score, lost)
  clutch_stats(analysis_id, player, team, clutch_points, clutch_games, fg_attempts, fg_made,
    tp_attempts, tp_made, ft_attempts, ft_made, total_points, ts_pct, closer_score)

Times in runs are elapsed game seconds. Join on analysis_id to filter by competition:
  SELECT r.team, MAX(r.points) FROM runs r JOIN analyses a ON a.id = r.analysis_id
  WHERE a.competition = 'serie_b' GROUP BY r.team`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if errors.Is(err, storage.ErrReadOnly) {
		return fmt.Errorf("%w (the sql command only reads; see --help)", err)
	}
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

