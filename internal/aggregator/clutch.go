package aggregator

import (
	"sort"
	"strings"

	"github.com/pable/go-pbp-insights/internal/model"
)

// ClutchWindow defines the end-of-game window: quarter at least MinQuarter,
// quarter clock at or past StartSeconds, margin at most MaxGap points.
type ClutchWindow struct {
	MinQuarter   int
	StartSeconds int
	MaxGap       int
}

// DefaultClutchWindow is the last two minutes of the fourth quarter or any
// overtime, within five points.
var DefaultClutchWindow = ClutchWindow{MinQuarter: 4, StartSeconds: 480, MaxGap: 5}

// Contains reports whether e happened inside the window.
func (w ClutchWindow) Contains(e *model.GameEvent) bool {
	gap := e.Gap()
	if gap < 0 {
		gap = -gap
	}
	return e.Quarter >= w.MinQuarter && e.TimeRemainingSeconds >= w.StartSeconds && gap <= w.MaxGap
}

// ClassifyClutch sets IsClutch on every event of g with a trusted score.
func ClassifyClutch(g *model.Game, w ClutchWindow) int {
	n := 0
	for i := range g.Events {
		e := &g.Events[i]
		e.IsClutch = e.Excluded != model.ExcludedNonMonotonic && w.Contains(e)
		if e.IsClutch {
			n++
		}
	}
	return n
}

// ---- Shot classifiers ----
//
// The feed labels actions in Italian ("Tiro realizzato da 3 punti", "Tiro
// libero sbagliato"). A few English labels show up in newer competitions.

func isFreeThrowLabel(a string) bool {
	return strings.Contains(a, "libero") || strings.Contains(a, "free throw")
}

func IsFieldGoalAttempt(action string) bool {
	a := strings.ToLower(action)
	if isFreeThrowLabel(a) {
		return false
	}
	return strings.Contains(a, "tiro") || (strings.Contains(a, "shot") && !strings.Contains(a, "clock"))
}

func IsFieldGoalMade(action string) bool {
	a := strings.ToLower(action)
	if isFreeThrowLabel(a) {
		return false
	}
	return strings.Contains(a, "tiro realizzato") || strings.Contains(a, "tiro segnato") || strings.Contains(a, "made shot")
}

func IsThreePointAttempt(action string) bool {
	a := strings.ToLower(action)
	return strings.Contains(a, "3 punti") || strings.Contains(a, "3pt")
}

func IsThreePointMade(action string) bool {
	a := strings.ToLower(action)
	return strings.Contains(a, "tiro realizzato da 3 punti") || (strings.Contains(a, "made shot") && strings.Contains(a, "3pt"))
}

func IsFreeThrowAttempt(action string) bool {
	a := strings.ToLower(action)
	return strings.Contains(a, "tiro libero") || strings.Contains(a, "free throw")
}

func IsFreeThrowMade(action string) bool {
	a := strings.ToLower(action)
	return strings.Contains(a, "tiro libero segnato") || strings.Contains(a, "free throw made")
}

// creditedPoints is the score change a player's row earns: nothing when the
// row belongs to the side that did not score.
func creditedPoints(g *model.Game, e *model.GameEvent) int {
	if e.ScoringSide == model.SideNone || e.Team != g.TeamFor(e.ScoringSide) {
		return 0
	}
	return e.PointsScored
}

type playerKey struct {
	player string
	team   string
}

// ClutchStats builds the raw clutch table: one line per (player, team) with
// at least one clutch event. Points come from score attribution only; the
// action text drives the shot-category splits. TotalPoints is the player's
// attributed points over every event of every game.
//
// Sorted by clutch points desc, then player and team.
func ClutchStats(games []*model.Game) []model.ClutchStatLine {
	totals := make(map[string]int)
	lines := make(map[playerKey]*model.ClutchStatLine)
	clutchGames := make(map[playerKey]map[string]struct{})

	for _, g := range games {
		for i := range g.Events {
			e := &g.Events[i]
			if !e.HasPlayer() {
				continue
			}
			pts := creditedPoints(g, e)
			totals[e.Player] += pts
			if !e.IsClutch {
				continue
			}

			k := playerKey{e.Player, e.Team}
			l, ok := lines[k]
			if !ok {
				l = &model.ClutchStatLine{Player: e.Player, Team: e.Team}
				lines[k] = l
				clutchGames[k] = make(map[string]struct{})
			}
			clutchGames[k][e.GameCode] = struct{}{}
			l.ClutchPoints += pts

			if IsFieldGoalAttempt(e.ActionText) {
				l.FGAttempts++
			}
			if IsFieldGoalMade(e.ActionText) {
				l.FGMade++
			}
			if IsThreePointAttempt(e.ActionText) {
				l.ThreeAttempts++
			}
			if IsThreePointMade(e.ActionText) {
				l.ThreeMade++
			}
			if IsFreeThrowAttempt(e.ActionText) {
				l.FTAttempts++
			}
			if IsFreeThrowMade(e.ActionText) {
				l.FTMade++
			}
		}
	}

	out := make([]model.ClutchStatLine, 0, len(lines))
	for k, l := range lines {
		l.ClutchGames = len(clutchGames[k])
		l.TotalPoints = totals[l.Player]
		l.FGPct = pct(l.FGMade, l.FGAttempts)
		l.ThreePct = pct(l.ThreeMade, l.ThreeAttempts)
		l.FTPct = pct(l.FTMade, l.FTAttempts)
		l.TSPct = 100 * safeDiv(float64(l.ClutchPoints), 2*(float64(l.FGAttempts)+0.44*float64(l.FTAttempts)))
		l.ClutchPct = pct(l.ClutchPoints, l.TotalPoints)
		l.ClutchPPG = safeDiv(float64(l.ClutchPoints), float64(l.ClutchGames))
		l.TotalShots = l.FGAttempts + l.FTAttempts
		l.ShotsPerGame = safeDiv(float64(l.TotalShots), float64(l.ClutchGames))
		l.CloserScore = 0.7*float64(l.ClutchPoints) + 0.3*l.ClutchPPG*float64(l.ClutchGames)
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClutchPoints != out[j].ClutchPoints {
			return out[i].ClutchPoints > out[j].ClutchPoints
		}
		return lessPlayer(out[i].Player, out[i].Team, out[j].Player, out[j].Team)
	})
	return out
}

// ClosersRanking keeps players with at least minGames clutch games, ordered
// by closer score.
func ClosersRanking(stats []model.ClutchStatLine, minGames int) []model.ClutchStatLine {
	out := filterClutchGames(stats, minGames)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CloserScore != out[j].CloserScore {
			return out[i].CloserScore > out[j].CloserScore
		}
		return lessPlayer(out[i].Player, out[i].Team, out[j].Player, out[j].Team)
	})
	return out
}

// ResponsibilityRanking keeps players with at least minGames clutch games,
// ordered by how many clutch shots they took.
func ResponsibilityRanking(stats []model.ClutchStatLine, minGames int) []model.ClutchStatLine {
	out := filterClutchGames(stats, minGames)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalShots != out[j].TotalShots {
			return out[i].TotalShots > out[j].TotalShots
		}
		return lessPlayer(out[i].Player, out[i].Team, out[j].Player, out[j].Team)
	})
	return out
}

func filterClutchGames(stats []model.ClutchStatLine, minGames int) []model.ClutchStatLine {
	out := make([]model.ClutchStatLine, 0, len(stats))
	for _, s := range stats {
		if s.ClutchGames >= minGames {
			out = append(out, s)
		}
	}
	return out
}

// Q4Heroes compares each player's regulation fourth-quarter scoring with
// quarters one to three. Players need minGames fourth quarters with points
// and some scoring earlier; big drop-offs (boost <= -50%) are left out.
func Q4Heroes(games []*model.Game, minGames int) []model.Q4Hero {
	type agg struct {
		points int
		games  map[string]struct{}
	}
	q4 := make(map[playerKey]*agg)
	other := make(map[string]*agg)
	add := func(a *agg, e *model.GameEvent, pts int) {
		a.points += pts
		a.games[e.GameCode] = struct{}{}
	}

	for _, g := range games {
		for i := range g.Events {
			e := &g.Events[i]
			pts := creditedPoints(g, e)
			if !e.HasPlayer() || pts <= 0 {
				continue
			}
			switch {
			case e.Quarter == 4:
				k := playerKey{e.Player, e.Team}
				if q4[k] == nil {
					q4[k] = &agg{games: make(map[string]struct{})}
				}
				add(q4[k], e, pts)
			case e.Quarter < 4:
				if other[e.Player] == nil {
					other[e.Player] = &agg{games: make(map[string]struct{})}
				}
				add(other[e.Player], e, pts)
			}
		}
	}

	var out []model.Q4Hero
	for k, a := range q4 {
		o, ok := other[k.player]
		if !ok || len(a.games) < minGames {
			continue
		}
		h := model.Q4Hero{
			Player:      k.player,
			Team:        k.team,
			Q4Points:    a.points,
			Q4Games:     len(a.games),
			Q4PPG:       safeDiv(float64(a.points), float64(len(a.games))),
			OtherPoints: o.points,
			OtherGames:  len(o.games),
			OtherPPG:    safeDiv(float64(o.points), float64(len(o.games))),
		}
		h.Q4Boost = 100 * safeDiv(h.Q4PPG-h.OtherPPG, h.OtherPPG)
		if h.Q4Boost <= -50 {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q4Boost != out[j].Q4Boost {
			return out[i].Q4Boost > out[j].Q4Boost
		}
		return lessPlayer(out[i].Player, out[i].Team, out[j].Player, out[j].Team)
	})
	return out
}

// PlayerQuarterActivity counts every event naming a player in each
// regulation quarter, a rough proxy for minutes on court.
func PlayerQuarterActivity(games []*model.Game) []model.PlayerActivity {
	byPlayer := make(map[playerKey]*model.PlayerActivity)
	for _, g := range games {
		for i := range g.Events {
			e := &g.Events[i]
			if !e.HasPlayer() || e.Quarter > 4 {
				continue
			}
			k := playerKey{e.Player, e.Team}
			a, ok := byPlayer[k]
			if !ok {
				a = &model.PlayerActivity{Player: e.Player, Team: e.Team}
				byPlayer[k] = a
			}
			switch e.Quarter {
			case 1:
				a.Q1Events++
			case 2:
				a.Q2Events++
			case 3:
				a.Q3Events++
			case 4:
				a.Q4Events++
			}
			a.TotalEvents++
		}
	}

	out := make([]model.PlayerActivity, 0, len(byPlayer))
	for _, a := range byPlayer {
		a.Q4Share = pct(a.Q4Events, a.TotalEvents)
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalEvents != out[j].TotalEvents {
			return out[i].TotalEvents > out[j].TotalEvents
		}
		return lessPlayer(out[i].Player, out[i].Team, out[j].Player, out[j].Team)
	})
	return out
}

func lessPlayer(p1, t1, p2, t2 string) bool {
	if p1 != p2 {
		return p1 < p2
	}
	return t1 < t2
}

// TeamPlayerDistribution splits each team's quarter activity among its
// players with at least minEvents events. A share is taken over the kept
// players of the same team only. Sorted by team, then total events desc.
func TeamPlayerDistribution(activity []model.PlayerActivity, minEvents int) []model.PlayerDistribution {
	teamTotals := make(map[string]*[4]int)
	var out []model.PlayerDistribution
	for _, a := range activity {
		if a.TotalEvents < minEvents {
			continue
		}
		t, ok := teamTotals[a.Team]
		if !ok {
			t = &[4]int{}
			teamTotals[a.Team] = t
		}
		t[0] += a.Q1Events
		t[1] += a.Q2Events
		t[2] += a.Q3Events
		t[3] += a.Q4Events
		out = append(out, model.PlayerDistribution{
			Player:      a.Player,
			Team:        a.Team,
			Q1Events:    a.Q1Events,
			Q2Events:    a.Q2Events,
			Q3Events:    a.Q3Events,
			Q4Events:    a.Q4Events,
			TotalEvents: a.TotalEvents,
		})
	}

	for i := range out {
		d := &out[i]
		t := teamTotals[d.Team]
		d.Q1Pct = pct(d.Q1Events, t[0])
		d.Q2Pct = pct(d.Q2Events, t[1])
		d.Q3Pct = pct(d.Q3Events, t[2])
		d.Q4Pct = pct(d.Q4Events, t[3])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		if out[i].TotalEvents != out[j].TotalEvents {
			return out[i].TotalEvents > out[j].TotalEvents
		}
		return out[i].Player < out[j].Player
	})
	return out
}
