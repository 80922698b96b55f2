package aggregator

import (
	"sort"

	"github.com/pable/go-pbp-insights/internal/model"
)

var quarterNames = [4]string{"Q1", "Q2", "Q3", "Q4"}

// QuarterProfiles averages each team's points per regulation quarter over
// the per-game split records. Every split contributes one row for the home
// team and one for the away team.
func QuarterProfiles(splits []model.QuarterSplit) []model.QuarterProfile {
	type sums struct {
		games int
		q     [4]int
	}
	byTeam := make(map[string]*sums)
	add := func(team string, p model.QuarterPoints) {
		s, ok := byTeam[team]
		if !ok {
			s = &sums{}
			byTeam[team] = s
		}
		s.games++
		s.q[0] += p.Q1
		s.q[1] += p.Q2
		s.q[2] += p.Q3
		s.q[3] += p.Q4
	}
	for _, sp := range splits {
		add(sp.HomeTeam, sp.Home)
		add(sp.AwayTeam, sp.Away)
	}

	out := make([]model.QuarterProfile, 0, len(byTeam))
	for team, s := range byTeam {
		var avg [4]float64
		for i := range avg {
			avg[i] = safeDiv(float64(s.q[i]), float64(s.games))
		}
		best, worst := 0, 0
		for i := 1; i < len(avg); i++ {
			if avg[i] > avg[best] {
				best = i
			}
			if avg[i] < avg[worst] {
				worst = i
			}
		}
		out = append(out, model.QuarterProfile{
			Team:         team,
			Games:        s.games,
			Q1Avg:        avg[0],
			Q2Avg:        avg[1],
			Q3Avg:        avg[2],
			Q4Avg:        avg[3],
			BestQuarter:  quarterNames[best],
			WorstQuarter: quarterNames[worst],
			Q4VsQ1:       avg[3] - avg[0],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q4Avg != out[j].Q4Avg {
			return out[i].Q4Avg > out[j].Q4Avg
		}
		return out[i].Team < out[j].Team
	})
	return out
}
