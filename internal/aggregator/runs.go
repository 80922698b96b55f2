package aggregator

import (
	"sort"

	"github.com/pable/go-pbp-insights/internal/model"
)

// DetectRuns walks the attributed scoring events of one game and emits every
// unanswered stretch of at least minRun points by one side. A stretch closes
// when the other side scores or the game ends.
func DetectRuns(g *model.Game, minRun int) []model.Run {
	var (
		runs    []model.Run
		side    model.Side
		points  int
		startAt model.GameEvent
		lastAt  model.GameEvent
	)

	closeRun := func() {
		if side == model.SideNone || points < minRun {
			return
		}
		runs = append(runs, model.Run{
			Team:         g.TeamFor(side),
			Opponent:     g.TeamFor(side.Opposite()),
			Points:       points,
			StartTime:    startAt.TotalElapsedSeconds,
			StartQuarter: startAt.Quarter,
			EndTime:      lastAt.TotalElapsedSeconds,
			GameCode:     g.GameCode,
		})
	}

	for _, e := range g.Events {
		if e.ScoringSide == model.SideNone {
			continue
		}
		if e.ScoringSide == side {
			points += e.PointsScored
			lastAt = e
			continue
		}
		closeRun()
		side = e.ScoringSide
		points = e.PointsScored
		startAt, lastAt = e, e
	}
	closeRun()

	return runs
}

// SummarizeRuns rolls runs from every game up into one row per team. A team
// that only conceded runs still gets a row.
func SummarizeRuns(runs []model.Run) []model.TeamRunSummary {
	type tally struct {
		made, allowed       int
		madePts, allowedPts int
		best, worstAllowed  int
	}
	byTeam := make(map[string]*tally)
	get := func(team string) *tally {
		t, ok := byTeam[team]
		if !ok {
			t = &tally{}
			byTeam[team] = t
		}
		return t
	}

	for _, r := range runs {
		m := get(r.Team)
		m.made++
		m.madePts += r.Points
		if r.Points > m.best {
			m.best = r.Points
		}

		a := get(r.Opponent)
		a.allowed++
		a.allowedPts += r.Points
		if r.Points > a.worstAllowed {
			a.worstAllowed = r.Points
		}
	}

	out := make([]model.TeamRunSummary, 0, len(byTeam))
	for team, t := range byTeam {
		out = append(out, model.TeamRunSummary{
			Team:            team,
			RunsMade:        t.made,
			RunsAllowed:     t.allowed,
			BestRun:         t.best,
			WorstRunAllowed: t.worstAllowed,
			AvgRunMade:      safeDiv(float64(t.madePts), float64(t.made)),
			AvgRunAllowed:   safeDiv(float64(t.allowedPts), float64(t.allowed)),
			RunDiff:         t.made - t.allowed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RunDiff != out[j].RunDiff {
			return out[i].RunDiff > out[j].RunDiff
		}
		return out[i].Team < out[j].Team
	})
	return out
}
