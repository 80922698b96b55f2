package aggregator

import (
	"fmt"
	"sort"

	"github.com/pable/go-pbp-insights/internal/model"
)

// TrackComebacks finds, for each side of one game, the deepest deficit over
// the attributed scoring stream. When that deficit is at least minDeficit and
// a strictly later score brings the side within threshold points of even, a
// ComebackEpisode is emitted together with the opponent's mirrored BlownLead.
// Each team yields at most one episode per game.
func TrackComebacks(g *model.Game, minDeficit, threshold int) ([]model.ComebackEpisode, []model.BlownLead) {
	scoring := g.Scoring()
	if len(scoring) == 0 {
		return nil, nil
	}

	var (
		comebacks []model.ComebackEpisode
		blown     []model.BlownLead
	)
	for _, side := range []model.Side{model.SideHome, model.SideAway} {
		ep, lead, ok := trackSide(g, scoring, side, minDeficit, threshold)
		if !ok {
			continue
		}
		comebacks = append(comebacks, ep)
		blown = append(blown, lead)
	}
	return comebacks, blown
}

// sideGap is the score margin from side's point of view; positive = leading.
func sideGap(e *model.GameEvent, side model.Side) int {
	if side == model.SideAway {
		return -e.Gap()
	}
	return e.Gap()
}

func trackSide(g *model.Game, scoring []model.GameEvent, side model.Side, minDeficit, threshold int) (model.ComebackEpisode, model.BlownLead, bool) {
	// ---- Pass 1: deepest deficit, first occurrence. ----
	deepest := -1
	deficit := 0
	for i := range scoring {
		if d := -sideGap(&scoring[i], side); d > deficit {
			deficit = d
			deepest = i
		}
	}
	if deepest < 0 || deficit < minDeficit {
		return model.ComebackEpisode{}, model.BlownLead{}, false
	}

	// ---- Pass 2: recovery strictly after the deficit. ----
	best := -1
	recovered := false
	for i := deepest + 1; i < len(scoring); i++ {
		gap := sideGap(&scoring[i], side)
		if gap >= -threshold {
			recovered = true
		}
		if best < 0 || gap > sideGap(&scoring[best], side) {
			best = i
		}
	}
	if !recovered {
		return model.ComebackEpisode{}, model.BlownLead{}, false
	}

	final := g.HomeScore - g.AwayScore
	own, other := g.HomeScore, g.AwayScore
	if side == model.SideAway {
		final = -final
		own, other = other, own
	}

	low, high := scoring[deepest], scoring[best]
	ep := model.ComebackEpisode{
		Team:             g.TeamFor(side),
		Opponent:         g.TeamFor(side.Opposite()),
		Deficit:          deficit,
		DeficitTime:      FormatElapsed(low.TotalElapsedSeconds),
		DeficitQuarter:   low.Quarter,
		BestGapAfter:     sideGap(&high, side),
		BestAfterTime:    FormatElapsed(high.TotalElapsedSeconds),
		BestAfterQuarter: high.Quarter,
		FinalScore:       fmt.Sprintf("%d-%d", own, other),
		Won:              final > 0,
		GameCode:         g.GameCode,
	}
	lead := model.BlownLead{
		Team:              ep.Opponent,
		Opponent:          ep.Team,
		MaxLead:           ep.Deficit,
		MaxLeadTime:       ep.DeficitTime,
		MaxLeadQuarter:    ep.DeficitQuarter,
		WorstAfter:        -ep.BestGapAfter,
		WorstAfterTime:    ep.BestAfterTime,
		WorstAfterQuarter: ep.BestAfterQuarter,
		FinalScore:        fmt.Sprintf("%d-%d", other, own),
		Lost:              ep.Won,
		GameCode:          ep.GameCode,
	}
	return ep, lead, true
}

// FormatElapsed renders total elapsed game seconds as m:ss.
func FormatElapsed(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// SummarizeComebacks rolls episodes and blown leads up into one row per team.
func SummarizeComebacks(comebacks []model.ComebackEpisode, blown []model.BlownLead) []model.TeamComebackSummary {
	byTeam := make(map[string]*model.TeamComebackSummary)
	get := func(team string) *model.TeamComebackSummary {
		s, ok := byTeam[team]
		if !ok {
			s = &model.TeamComebackSummary{Team: team}
			byTeam[team] = s
		}
		return s
	}

	deficitSum := make(map[string]int)
	for _, c := range comebacks {
		s := get(c.Team)
		s.Comebacks++
		deficitSum[c.Team] += c.Deficit
		if c.Deficit > s.MaxDeficit {
			s.MaxDeficit = c.Deficit
		}
		if c.Won {
			s.ComebackWins++
		}
	}
	for _, b := range blown {
		s := get(b.Team)
		s.BlownLeads++
		if b.MaxLead > s.WorstBlown {
			s.WorstBlown = b.MaxLead
		}
		if b.Lost {
			s.BlownLosses++
		}
	}

	out := make([]model.TeamComebackSummary, 0, len(byTeam))
	for team, s := range byTeam {
		s.AvgDeficit = safeDiv(float64(deficitSum[team]), float64(s.Comebacks))
		s.ComebackScore = 2*s.ComebackWins + s.Comebacks - 2*s.BlownLosses - s.BlownLeads
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ComebackScore != out[j].ComebackScore {
			return out[i].ComebackScore > out[j].ComebackScore
		}
		return out[i].Team < out[j].Team
	})
	return out
}
