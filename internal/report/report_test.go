package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/go-pbp-insights/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Competition: "serie_b",
		Summary:     model.Summary{TotalEvents: 412, TotalGames: 2, TotalPoints: 318, ClutchEvents: 31},
		TeamRuns:    []model.TeamRunSummary{{Team: "Virtus", RunsMade: 2, RunsAllowed: 1, BestRun: 12, RunDiff: 1}},
		Runs: []model.Run{
			{Team: "Virtus", Opponent: "Fortitudo", Points: 12, StartQuarter: 2, StartTime: 900, EndTime: 1020, GameCode: "G1"},
			{Team: "Virtus", Opponent: "Treviso", Points: 10, StartQuarter: 1, StartTime: 60, EndTime: 200, GameCode: "G2"},
		},
		Comebacks: []model.ComebackEpisode{
			{Team: "Virtus", Opponent: "Fortitudo", Deficit: 14, DeficitTime: "26:40", DeficitQuarter: 3,
				BestGapAfter: 2, BestAfterTime: "39:50", BestAfterQuarter: 4, FinalScore: "80-78", Won: true, GameCode: "G1"},
		},
		ClutchStats: []model.ClutchStatLine{
			{Player: "Rossi", Team: "Virtus", ClutchPoints: 11, ClutchGames: 2, FGAttempts: 6, FGMade: 4, FGPct: 66.666},
		},
		Distribution: []model.PlayerDistribution{{Player: "Rossi", Team: "Virtus", TotalEvents: 24, Q4Pct: 47.368}},
		Quarters:     []model.QuarterProfile{{Team: "Virtus", Games: 2, Q1Avg: 20, Q4Avg: 24.5, BestQuarter: "Q4", WorstQuarter: "Q2", Q4VsQ1: 4.5}},
	}
}

func TestPrintReportAllSections(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport(), nil, 0)
	out := buf.String()

	for _, want := range []string{
		"Competition: serie_b",
		"TEAM RUNS", "BIGGEST RUNS", "COMEBACKS", "BLOWN LEADS",
		"CLUTCH SCORING", "CLOSERS", "QUARTER PROFILES", "Q4 HEROES", "PLAYER ACTIVITY", "TEAM PLAYER DISTRIBUTION", "47.4%",
		"15:00", "26:40", "-14 (Q3)", "+2 (Q4)", "66.7%", "+4.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "Dropped:") {
		t.Error("clean runs should not print the dropped line")
	}
}

func TestPrintReportSectionsAndTop(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport(), []string{SectionRuns}, 1)
	out := buf.String()

	if !strings.Contains(out, "G1") || strings.Contains(out, "G2") {
		t.Errorf("top 1 should keep only the biggest run:\n%s", out)
	}
	if strings.Contains(out, "QUARTER PROFILES") {
		t.Error("unrequested section printed")
	}
}

func TestPrintSummaryDropped(t *testing.T) {
	r := sampleReport()
	r.Summary.DroppedEvents = 3
	r.Summary.FailedGames = 1

	var buf bytes.Buffer
	PrintSummary(&buf, r)
	if !strings.Contains(buf.String(), "Dropped: 3") || !strings.Contains(buf.String(), "Failed games: 1") {
		t.Errorf("summary: %q", buf.String())
	}
}

func TestPctCell(t *testing.T) {
	if got := pctCell(0, 0); got != "—" {
		t.Errorf("no attempts: got %q", got)
	}
	if got := pctCell(50, 4); got != "50.0%" {
		t.Errorf("got %q", got)
	}
}
