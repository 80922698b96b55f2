package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pable/go-pbp-insights/internal/model"
)

// childTables hold per-analysis rows and are cleared alongside their analysis.
var childTables = []string{"runs", "comebacks", "blown_leads", "clutch_stats"}

// SaveReport stores r under its competition, replacing any earlier analysis of
// the same competition. It returns the new analysis id.
func (db *DB) SaveReport(r *model.Report) (string, error) {
	blob, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := deleteCompetition(tx, r.Competition); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO analyses(id, competition, created_at, games, events, clutch_events, failed_games, runs, comebacks, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.Competition, time.Now().UTC().Format(time.RFC3339),
		r.Summary.TotalGames, r.Summary.TotalEvents, r.Summary.ClutchEvents, r.Summary.FailedGames,
		len(r.Runs), len(r.Comebacks), string(blob),
	)
	if err != nil {
		return "", fmt.Errorf("insert analysis: %w", err)
	}

	if err := insertRuns(tx, id, r.Runs); err != nil {
		return "", err
	}
	if err := insertComebacks(tx, id, r.Comebacks); err != nil {
		return "", err
	}
	if err := insertBlownLeads(tx, id, r.BlownLeads); err != nil {
		return "", err
	}
	if err := insertClutchStats(tx, id, r.ClutchStats); err != nil {
		return "", err
	}
	return id, tx.Commit()
}

func insertRuns(tx *sql.Tx, id string, runs []model.Run) error {
	stmt, err := tx.Prepare(`
		INSERT INTO runs(analysis_id, seq, game_code, team, opponent, points, start_quarter, start_time, end_time)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range runs {
		_, err = stmt.Exec(id, i, r.GameCode, r.Team, r.Opponent, r.Points, r.StartQuarter, r.StartTime, r.EndTime)
		if err != nil {
			return fmt.Errorf("insert run %s/%d: %w", r.GameCode, i, err)
		}
	}
	return nil
}

func insertComebacks(tx *sql.Tx, id string, eps []model.ComebackEpisode) error {
	stmt, err := tx.Prepare(`
		INSERT INTO comebacks(
			analysis_id, seq, game_code, team, opponent,
			deficit, deficit_time, deficit_quarter,
			best_gap_after, best_after_time, best_after_quarter,
			final_score, won
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range eps {
		_, err = stmt.Exec(
			id, i, c.GameCode, c.Team, c.Opponent,
			c.Deficit, c.DeficitTime, c.DeficitQuarter,
			c.BestGapAfter, c.BestAfterTime, c.BestAfterQuarter,
			c.FinalScore, boolInt(c.Won),
		)
		if err != nil {
			return fmt.Errorf("insert comeback %s/%s: %w", c.GameCode, c.Team, err)
		}
	}
	return nil
}

func insertBlownLeads(tx *sql.Tx, id string, leads []model.BlownLead) error {
	stmt, err := tx.Prepare(`
		INSERT INTO blown_leads(
			analysis_id, seq, game_code, team, opponent,
			max_lead, max_lead_time, max_lead_quarter,
			worst_after, worst_after_time, worst_after_quarter,
			final_score, lost
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range leads {
		_, err = stmt.Exec(
			id, i, b.GameCode, b.Team, b.Opponent,
			b.MaxLead, b.MaxLeadTime, b.MaxLeadQuarter,
			b.WorstAfter, b.WorstAfterTime, b.WorstAfterQuarter,
			b.FinalScore, boolInt(b.Lost),
		)
		if err != nil {
			return fmt.Errorf("insert blown lead %s/%s: %w", b.GameCode, b.Team, err)
		}
	}
	return nil
}

func insertClutchStats(tx *sql.Tx, id string, stats []model.ClutchStatLine) error {
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO clutch_stats(
			analysis_id, player, team, clutch_points, clutch_games,
			fg_attempts, fg_made, tp_attempts, tp_made, ft_attempts, ft_made,
			total_points, ts_pct, closer_score
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err = stmt.Exec(
			id, s.Player, s.Team, s.ClutchPoints, s.ClutchGames,
			s.FGAttempts, s.FGMade, s.ThreeAttempts, s.ThreeMade, s.FTAttempts, s.FTMade,
			s.TotalPoints, s.TSPct, s.CloserScore,
		)
		if err != nil {
			return fmt.Errorf("insert clutch stats for %s: %w", s.Player, err)
		}
	}
	return nil
}

// ListAnalyses returns all stored analyses, newest first.
func (db *DB) ListAnalyses() ([]model.AnalysisSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, competition, created_at, games, events, runs, comebacks
		FROM analyses ORDER BY created_at DESC, competition`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisSummary
	for rows.Next() {
		var s model.AnalysisSummary
		if err := rows.Scan(&s.ID, &s.Competition, &s.CreatedAt, &s.Games, &s.Events, &s.Runs, &s.Comebacks); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadReport returns the stored report for a competition, or ErrNotFound.
func (db *DB) LoadReport(competition string) (*model.Report, error) {
	var blob string
	err := db.conn.QueryRow(`SELECT report_json FROM analyses WHERE competition = ?`, competition).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, competition)
	}
	if err != nil {
		return nil, err
	}
	var r model.Report
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", competition, err)
	}
	return &r, nil
}

// DeleteAnalysis removes a competition's analysis and all its rows.
func (db *DB) DeleteAnalysis(competition string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM analyses WHERE competition = ?`, competition).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, competition)
	}
	if err := deleteCompetition(tx, competition); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteCompetition(tx *sql.Tx, competition string) error {
	for _, table := range childTables {
		_, err := tx.Exec(`DELETE FROM `+table+` WHERE analysis_id IN (SELECT id FROM analyses WHERE competition = ?)`, competition)
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM analyses WHERE competition = ?`, competition); err != nil {
		return fmt.Errorf("clear analysis: %w", err)
	}
	return nil
}

// readOnlyVerbs are the statements QueryRaw accepts.
var readOnlyVerbs = []string{"SELECT", "WITH", "EXPLAIN", "VALUES"}

// QueryRaw runs a single read-only query and returns column names plus every
// row rendered as strings. NULLs become empty strings. Anything that could
// write fails with ErrReadOnly: the verb is checked up front and the query
// runs on a connection switched to query_only.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	query = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(query), ";"))
	if strings.Contains(query, ";") {
		return nil, nil, fmt.Errorf("%w: one statement at a time", ErrReadOnly)
	}
	var verb string
	if fields := strings.Fields(query); len(fields) > 0 {
		verb = fields[0]
	}
	if !slices.Contains(readOnlyVerbs, strings.ToUpper(verb)) {
		return nil, nil, fmt.Errorf("%w: %q statements are not allowed", ErrReadOnly, verb)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("PRAGMA query_only = ON"); err != nil {
		return nil, nil, fmt.Errorf("enable query_only: %w", err)
	}
	defer tx.Exec("PRAGMA query_only = OFF")

	rows, err := tx.Query(query)
	if err != nil {
		return nil, nil, readOnlyErr(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.2f", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, readOnlyErr(rows.Err())
}

// readOnlyErr maps SQLite's write refusal under query_only to ErrReadOnly.
func readOnlyErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "readonly") {
		return fmt.Errorf("%w: %v", ErrReadOnly, err)
	}
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
