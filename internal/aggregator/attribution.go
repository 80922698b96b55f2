package aggregator

import (
	"fmt"
	"sort"

	"github.com/pable/go-pbp-insights/internal/model"
)

// Attribute orders one game's events and derives who scored how many points
// from consecutive score deltas. Every input event is kept in the returned
// Game; events that cannot be attributed carry an Exclusion reason. The input
// slice is not modified.
//
// The running score starts at 0-0. A score that drops below the running
// score by more than tolerance is non-monotonic and leaves the running score
// untouched; smaller drops are clamped to it. Simultaneous increases on both
// sides are ambiguous: they are not attributed, but the running score moves
// to the new values so the next event is measured from them.
func Attribute(gameCode string, events []model.GameEvent, tolerance int) (*model.Game, map[model.Exclusion]int, error) {
	if len(events) == 0 {
		return nil, nil, fmt.Errorf("game %s: %w", gameCode, ErrEmptyGame)
	}
	if tolerance < 0 {
		tolerance = 0
	}

	ordered := make([]model.GameEvent, len(events))
	copy(ordered, events)
	SortEvents(ordered)

	g := &model.Game{GameCode: gameCode}
	for _, e := range ordered {
		if g.HomeTeam == "" {
			g.HomeTeam = e.HomeTeam
		}
		if g.AwayTeam == "" {
			g.AwayTeam = e.AwayTeam
		}
	}

	excluded := make(map[model.Exclusion]int)
	prevHome, prevAway := 0, 0
	for i := range ordered {
		e := &ordered[i]
		e.PointsScored = 0
		e.ScoringSide = model.SideNone
		e.Excluded = model.ExcludedNone

		if e.ScoreHome < prevHome-tolerance || e.ScoreAway < prevAway-tolerance {
			e.Excluded = model.ExcludedNonMonotonic
			excluded[e.Excluded]++
			continue
		}
		if e.ScoreHome < prevHome {
			e.ScoreHome = prevHome
		}
		if e.ScoreAway < prevAway {
			e.ScoreAway = prevAway
		}

		homeDelta := e.ScoreHome - prevHome
		awayDelta := e.ScoreAway - prevAway
		switch {
		case homeDelta == 0 && awayDelta == 0:
			e.Excluded = model.ExcludedNoChange
			excluded[e.Excluded]++
			continue
		case homeDelta > 0 && awayDelta > 0:
			e.Excluded = model.ExcludedAmbiguous
			excluded[e.Excluded]++
		case homeDelta > 0:
			e.PointsScored = homeDelta
			e.ScoringSide = model.SideHome
		default:
			e.PointsScored = awayDelta
			e.ScoringSide = model.SideAway
		}
		prevHome, prevAway = e.ScoreHome, e.ScoreAway
	}

	g.Events = ordered
	g.HomeScore, g.AwayScore = prevHome, prevAway
	creditScoringTeam(g)
	return g, excluded, nil
}

// creditScoringTeam moves a score change off an opponent's row (a foul
// logged in the same second, say) onto the scoring team's own row that
// follows it with the same clock and score. The displaced row becomes a
// no_change row, so exclusion counts are unchanged.
func creditScoringTeam(g *model.Game) {
	for i := range g.Events {
		e := &g.Events[i]
		if e.ScoringSide == model.SideNone || e.Team == "" || e.Team != g.TeamFor(e.ScoringSide.Opposite()) {
			continue
		}
		scorer := g.TeamFor(e.ScoringSide)
		for j := i + 1; j < len(g.Events); j++ {
			o := &g.Events[j]
			if o.TotalElapsedSeconds != e.TotalElapsedSeconds || o.ScoreHome != e.ScoreHome || o.ScoreAway != e.ScoreAway {
				break
			}
			if o.Excluded != model.ExcludedNoChange || o.Team != scorer {
				continue
			}
			o.PointsScored, o.ScoringSide, o.Excluded = e.PointsScored, e.ScoringSide, model.ExcludedNone
			e.PointsScored, e.ScoringSide, e.Excluded = 0, model.SideNone, model.ExcludedNoChange
			break
		}
	}
}

// SortEvents orders events by elapsed game time, then by ascending total
// score so same-second events keep the order in which the score grew.
// Full ties keep their input order.
func SortEvents(events []model.GameEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].TotalElapsedSeconds != events[j].TotalElapsedSeconds {
			return events[i].TotalElapsedSeconds < events[j].TotalElapsedSeconds
		}
		return events[i].TotalScore() < events[j].TotalScore()
	})
}

// ValidStream returns the events that kept a trusted score, i.e. everything
// except non-monotonic rows. Their score sequences never decrease.
func ValidStream(g *model.Game) []model.GameEvent {
	out := make([]model.GameEvent, 0, len(g.Events))
	for _, e := range g.Events {
		if e.Excluded != model.ExcludedNonMonotonic {
			out = append(out, e)
		}
	}
	return out
}
