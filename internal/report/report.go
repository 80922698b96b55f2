// Package report renders analysis reports as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-pbp-insights/internal/aggregator"
	"github.com/pable/go-pbp-insights/internal/model"
)

// Section names accepted by PrintReport.
const (
	SectionRuns      = "runs"
	SectionComebacks = "comebacks"
	SectionClutch    = "clutch"
	SectionQuarters  = "quarters"
	SectionPlayers   = "players"
)

// AllSections lists every section in print order.
var AllSections = []string{SectionRuns, SectionComebacks, SectionClutch, SectionQuarters, SectionPlayers}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func title(w io.Writer, s string) {
	fmt.Fprintf(w, "\n--- %s ---\n", s)
}

// PrintReport writes the summary header followed by the requested sections.
// An empty section list prints everything. top caps the per-game detail
// tables; zero means no cap.
func PrintReport(w io.Writer, r *model.Report, sections []string, top int) {
	PrintSummary(w, r)
	if len(sections) == 0 {
		sections = AllSections
	}
	for _, s := range sections {
		switch s {
		case SectionRuns:
			title(w, "TEAM RUNS")
			PrintTeamRuns(w, r.TeamRuns)
			title(w, "BIGGEST RUNS")
			PrintRuns(w, limit(r.Runs, top))
		case SectionComebacks:
			title(w, "TEAM COMEBACKS")
			PrintTeamComebacks(w, r.TeamComebacks)
			title(w, "COMEBACKS")
			PrintComebacks(w, limit(r.Comebacks, top))
			title(w, "BLOWN LEADS")
			PrintBlownLeads(w, limit(r.BlownLeads, top))
		case SectionClutch:
			title(w, "CLUTCH SCORING")
			PrintClutchStats(w, limit(r.ClutchStats, top))
			title(w, "CLOSERS")
			PrintClosers(w, limit(r.Closers, top))
			title(w, "CLUTCH RESPONSIBILITY")
			PrintResponsibility(w, limit(r.Responsibility, top))
		case SectionQuarters:
			title(w, "QUARTER PROFILES")
			PrintQuarterProfiles(w, r.Quarters)
		case SectionPlayers:
			title(w, "Q4 HEROES")
			PrintQ4Heroes(w, limit(r.Q4Heroes, top))
			title(w, "PLAYER ACTIVITY")
			PrintActivity(w, limit(r.Activity, top))
			title(w, "TEAM PLAYER DISTRIBUTION")
			PrintDistribution(w, r.Distribution)
		}
	}
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

// PrintSummary prints the one-line competition header.
func PrintSummary(w io.Writer, r *model.Report) {
	s := r.Summary
	fmt.Fprintf(w, "\nCompetition: %s  |  Games: %d  |  Events: %d  |  Points: %d  |  Clutch events: %d\n",
		r.Competition, s.TotalGames, s.TotalEvents, s.TotalPoints, s.ClutchEvents)
	if s.DroppedEvents+s.ExcludedEvents+s.FailedGames > 0 {
		fmt.Fprintf(w, "Dropped: %d  |  Excluded from attribution: %d  |  Failed games: %d\n",
			s.DroppedEvents, s.ExcludedEvents, s.FailedGames)
	}
}

func PrintTeamRuns(w io.Writer, rows []model.TeamRunSummary) {
	table := newTable(w)
	table.Header("TEAM", "RUNS", "ALLOWED", "BEST", "WORST_ALLOWED", "AVG", "AVG_ALLOWED", "DIFF")
	for _, s := range rows {
		table.Append(
			s.Team,
			strconv.Itoa(s.RunsMade),
			strconv.Itoa(s.RunsAllowed),
			strconv.Itoa(s.BestRun),
			strconv.Itoa(s.WorstRunAllowed),
			fmt.Sprintf("%.1f", s.AvgRunMade),
			fmt.Sprintf("%.1f", s.AvgRunAllowed),
			fmt.Sprintf("%+d", s.RunDiff),
		)
	}
	table.Render()
}

// PrintRuns prints individual runs with their game clock window.
func PrintRuns(w io.Writer, runs []model.Run) {
	table := newTable(w)
	table.Header("GAME", "TEAM", "OPPONENT", "PTS", "Q", "FROM", "TO")
	for _, r := range runs {
		table.Append(
			r.GameCode,
			r.Team,
			r.Opponent,
			strconv.Itoa(r.Points),
			strconv.Itoa(r.StartQuarter),
			aggregator.FormatElapsed(r.StartTime),
			aggregator.FormatElapsed(r.EndTime),
		)
	}
	table.Render()
}

func PrintTeamComebacks(w io.Writer, rows []model.TeamComebackSummary) {
	table := newTable(w)
	table.Header("TEAM", "COMEBACKS", "MAX_DEF", "AVG_DEF", "WINS", "BLOWN", "WORST_BLOWN", "BLOWN_LOSSES", "SCORE")
	for _, s := range rows {
		table.Append(
			s.Team,
			strconv.Itoa(s.Comebacks),
			strconv.Itoa(s.MaxDeficit),
			fmt.Sprintf("%.1f", s.AvgDeficit),
			strconv.Itoa(s.ComebackWins),
			strconv.Itoa(s.BlownLeads),
			strconv.Itoa(s.WorstBlown),
			strconv.Itoa(s.BlownLosses),
			fmt.Sprintf("%+d", s.ComebackScore),
		)
	}
	table.Render()
}

func PrintComebacks(w io.Writer, eps []model.ComebackEpisode) {
	table := newTable(w)
	table.Header("GAME", "TEAM", "OPPONENT", "DEFICIT", "AT", "BEST_AFTER", "AT", "FINAL", "WON")
	for _, c := range eps {
		table.Append(
			c.GameCode,
			c.Team,
			c.Opponent,
			fmt.Sprintf("-%d (Q%d)", c.Deficit, c.DeficitQuarter),
			c.DeficitTime,
			fmt.Sprintf("%+d (Q%d)", c.BestGapAfter, c.BestAfterQuarter),
			c.BestAfterTime,
			c.FinalScore,
			yesNo(c.Won),
		)
	}
	table.Render()
}

func PrintBlownLeads(w io.Writer, leads []model.BlownLead) {
	table := newTable(w)
	table.Header("GAME", "TEAM", "OPPONENT", "MAX_LEAD", "AT", "WORST_AFTER", "AT", "FINAL", "LOST")
	for _, b := range leads {
		table.Append(
			b.GameCode,
			b.Team,
			b.Opponent,
			fmt.Sprintf("+%d (Q%d)", b.MaxLead, b.MaxLeadQuarter),
			b.MaxLeadTime,
			fmt.Sprintf("%+d (Q%d)", b.WorstAfter, b.WorstAfterQuarter),
			b.WorstAfterTime,
			b.FinalScore,
			yesNo(b.Lost),
		)
	}
	table.Render()
}

// PrintClutchStats prints the raw clutch shooting lines.
func PrintClutchStats(w io.Writer, stats []model.ClutchStatLine) {
	table := newTable(w)
	table.Header("PLAYER", "TEAM", "PTS", "GAMES", "FG", "FG%", "3P", "3P%", "FT", "FT%", "TS%", "CLUTCH%")
	for _, s := range stats {
		table.Append(
			s.Player,
			s.Team,
			strconv.Itoa(s.ClutchPoints),
			strconv.Itoa(s.ClutchGames),
			fmt.Sprintf("%d/%d", s.FGMade, s.FGAttempts),
			pctCell(s.FGPct, s.FGAttempts),
			fmt.Sprintf("%d/%d", s.ThreeMade, s.ThreeAttempts),
			pctCell(s.ThreePct, s.ThreeAttempts),
			fmt.Sprintf("%d/%d", s.FTMade, s.FTAttempts),
			pctCell(s.FTPct, s.FTAttempts),
			pctCell(s.TSPct, s.FGAttempts+s.FTAttempts),
			fmt.Sprintf("%.1f%%", s.ClutchPct),
		)
	}
	table.Render()
}

// PrintClosers prints the closer ranking.
func PrintClosers(w io.Writer, stats []model.ClutchStatLine) {
	table := newTable(w)
	table.Header("#", "PLAYER", "TEAM", "SCORE", "PTS", "PPG", "GAMES", "TS%")
	for i, s := range stats {
		table.Append(
			strconv.Itoa(i+1),
			s.Player,
			s.Team,
			fmt.Sprintf("%.1f", s.CloserScore),
			strconv.Itoa(s.ClutchPoints),
			fmt.Sprintf("%.1f", s.ClutchPPG),
			strconv.Itoa(s.ClutchGames),
			pctCell(s.TSPct, s.FGAttempts+s.FTAttempts),
		)
	}
	table.Render()
}

func PrintResponsibility(w io.Writer, stats []model.ClutchStatLine) {
	table := newTable(w)
	table.Header("#", "PLAYER", "TEAM", "SHOTS", "SHOTS/G", "GAMES", "FG%", "3P%")
	for i, s := range stats {
		table.Append(
			strconv.Itoa(i+1),
			s.Player,
			s.Team,
			strconv.Itoa(s.TotalShots),
			fmt.Sprintf("%.1f", s.ShotsPerGame),
			strconv.Itoa(s.ClutchGames),
			pctCell(s.FGPct, s.FGAttempts),
			pctCell(s.ThreePct, s.ThreeAttempts),
		)
	}
	table.Render()
}

func PrintQuarterProfiles(w io.Writer, rows []model.QuarterProfile) {
	table := newTable(w)
	table.Header("TEAM", "GAMES", "Q1", "Q2", "Q3", "Q4", "BEST", "WORST", "Q4-Q1")
	for _, p := range rows {
		table.Append(
			p.Team,
			strconv.Itoa(p.Games),
			fmt.Sprintf("%.1f", p.Q1Avg),
			fmt.Sprintf("%.1f", p.Q2Avg),
			fmt.Sprintf("%.1f", p.Q3Avg),
			fmt.Sprintf("%.1f", p.Q4Avg),
			p.BestQuarter,
			p.WorstQuarter,
			fmt.Sprintf("%+.1f", p.Q4VsQ1),
		)
	}
	table.Render()
}

func PrintQ4Heroes(w io.Writer, rows []model.Q4Hero) {
	table := newTable(w)
	table.Header("PLAYER", "TEAM", "Q4_PTS", "Q4_GAMES", "Q4_PPG", "Q1-3_PPG", "BOOST")
	for _, h := range rows {
		table.Append(
			h.Player,
			h.Team,
			strconv.Itoa(h.Q4Points),
			strconv.Itoa(h.Q4Games),
			fmt.Sprintf("%.1f", h.Q4PPG),
			fmt.Sprintf("%.1f", h.OtherPPG),
			fmt.Sprintf("%+.0f%%", h.Q4Boost),
		)
	}
	table.Render()
}

func PrintActivity(w io.Writer, rows []model.PlayerActivity) {
	table := newTable(w)
	table.Header("PLAYER", "TEAM", "Q1", "Q2", "Q3", "Q4", "TOTAL", "Q4_SHARE")
	for _, a := range rows {
		table.Append(
			a.Player,
			a.Team,
			strconv.Itoa(a.Q1Events),
			strconv.Itoa(a.Q2Events),
			strconv.Itoa(a.Q3Events),
			strconv.Itoa(a.Q4Events),
			strconv.Itoa(a.TotalEvents),
			fmt.Sprintf("%.0f%%", a.Q4Share),
		)
	}
	table.Render()
}

// PrintDistribution prints each player's share of the team's events per
// quarter. Rows come grouped by team.
func PrintDistribution(w io.Writer, rows []model.PlayerDistribution) {
	table := newTable(w)
	table.Header("TEAM", "PLAYER", "EVENTS", "Q1%", "Q2%", "Q3%", "Q4%")
	for _, d := range rows {
		table.Append(
			d.Team,
			d.Player,
			strconv.Itoa(d.TotalEvents),
			fmt.Sprintf("%.1f%%", d.Q1Pct),
			fmt.Sprintf("%.1f%%", d.Q2Pct),
			fmt.Sprintf("%.1f%%", d.Q3Pct),
			fmt.Sprintf("%.1f%%", d.Q4Pct),
		)
	}
	table.Render()
}

// pctCell shows a dash when there were no attempts to take a percentage of.
func pctCell(v float64, attempts int) string {
	if attempts == 0 {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
