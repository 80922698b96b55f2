package aggregator

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pable/go-pbp-insights/internal/model"
)

const (
	homeTeam = "Virtus"
	awayTeam = "Fortitudo"
)

// step is one play: side scores pts at the given quarter clock. pts == 0
// produces an event that leaves the score unchanged.
type step struct {
	q, secs int
	side    model.Side
	pts     int
	player  string
	action  string
}

// makeEvent creates a canonical event with an explicit score.
func makeEvent(q, secs, home, away int) model.GameEvent {
	return model.GameEvent{
		GameCode:             "g1",
		Quarter:              q,
		TimeRemainingSeconds: secs,
		TotalElapsedSeconds:  (q-1)*600 + secs,
		ScoreHome:            home,
		ScoreAway:            away,
		HomeTeam:             homeTeam,
		AwayTeam:             awayTeam,
	}
}

// makeGame turns a list of plays into events with a running score.
func makeGame(code string, steps []step) []model.GameEvent {
	home, away := 0, 0
	events := make([]model.GameEvent, 0, len(steps))
	for _, s := range steps {
		team := homeTeam
		if s.side == model.SideAway {
			team = awayTeam
			away += s.pts
		} else {
			home += s.pts
		}
		e := makeEvent(s.q, s.secs, home, away)
		e.GameCode = code
		e.Team = team
		e.Player = s.player
		e.ActionText = s.action
		events = append(events, e)
	}
	return events
}

func mustAnalyze(t *testing.T, code string, events []model.GameEvent) *GameResult {
	t.Helper()
	res, err := AnalyzeGame(code, events, DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeGame(%s): %v", code, err)
	}
	return res
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// ---- Attribution ----

// TestAttributeMonotonicity checks that the trusted stream never decreases
// and that regressions are classified by size.
func TestAttributeMonotonicity(t *testing.T) {
	events := []model.GameEvent{
		makeEvent(1, 60, 2, 0),
		makeEvent(1, 70, 4, 0),
		makeEvent(1, 80, 3, 0), // within tolerance: clamped, no change
		makeEvent(1, 90, 1, 0), // corrupt
		makeEvent(1, 100, 4, 3),
		makeEvent(1, 110, 6, 3),
	}
	g, excluded, err := Attribute("g1", events, 1)
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if len(g.Events) != len(events) {
		t.Fatalf("expected every event to be kept, got %d", len(g.Events))
	}
	if excluded[model.ExcludedNoChange] != 1 || excluded[model.ExcludedNonMonotonic] != 1 {
		t.Errorf("unexpected exclusions: %v", excluded)
	}

	prevHome, prevAway := 0, 0
	for _, e := range ValidStream(g) {
		if e.ScoreHome < prevHome || e.ScoreAway < prevAway {
			t.Fatalf("score went backwards at %d: %d-%d after %d-%d", e.TotalElapsedSeconds, e.ScoreHome, e.ScoreAway, prevHome, prevAway)
		}
		prevHome, prevAway = e.ScoreHome, e.ScoreAway
	}
	if g.HomeScore != 6 || g.AwayScore != 3 {
		t.Errorf("final score: want 6-3, got %d-%d", g.HomeScore, g.AwayScore)
	}
}

// TestAttributeNonMonotonicRecovery: a 70->68 regression is excluded and the
// next event attributes from the last valid running score.
func TestAttributeNonMonotonicRecovery(t *testing.T) {
	events := []model.GameEvent{
		makeEvent(3, 100, 70, 0),
		makeEvent(3, 110, 70, 60),
		makeEvent(3, 120, 68, 60),
		makeEvent(3, 130, 72, 60),
	}
	g, _, err := Attribute("g1", events, 1)
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if g.Events[2].Excluded != model.ExcludedNonMonotonic {
		t.Errorf("70->68 should be non-monotonic, got %q", g.Events[2].Excluded)
	}
	last := g.Events[3]
	if last.ScoringSide != model.SideHome || last.PointsScored != 2 {
		t.Errorf("want home +2 after the corrupt row, got %s +%d", last.ScoringSide, last.PointsScored)
	}
}

// TestAttributeAmbiguous: both sides increasing in one tick is not attributed
// but still moves the running score.
func TestAttributeAmbiguous(t *testing.T) {
	events := []model.GameEvent{
		makeEvent(1, 30, 2, 2),
		makeEvent(1, 40, 4, 2),
	}
	g, excluded, err := Attribute("g1", events, 1)
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if g.Events[0].Excluded != model.ExcludedAmbiguous || g.Events[0].ScoringSide != model.SideNone {
		t.Errorf("first event should be ambiguous and unattributed, got %+v", g.Events[0])
	}
	if excluded[model.ExcludedAmbiguous] != 1 {
		t.Errorf("ambiguous count: want 1, got %d", excluded[model.ExcludedAmbiguous])
	}
	if g.Events[1].PointsScored != 2 || g.Events[1].ScoringSide != model.SideHome {
		t.Errorf("second event: want home +2, got %s +%d", g.Events[1].ScoringSide, g.Events[1].PointsScored)
	}
}

// TestAttributeOrdering: events arrive out of order; same-second events are
// ordered by ascending total score.
func TestAttributeOrdering(t *testing.T) {
	events := []model.GameEvent{
		makeEvent(2, 10, 5, 2),
		makeEvent(1, 500, 2, 0),
		makeEvent(2, 10, 3, 2),
	}
	g, _, err := Attribute("g1", events, 1)
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	want := [][2]int{{2, 0}, {3, 2}, {5, 2}}
	for i, w := range want {
		e := g.Events[i]
		if e.ScoreHome != w[0] || e.ScoreAway != w[1] {
			t.Errorf("event %d: want %d-%d, got %d-%d", i, w[0], w[1], e.ScoreHome, e.ScoreAway)
		}
	}
	if len(events) != 3 || events[0].TotalElapsedSeconds != 610 {
		t.Error("input slice must not be reordered")
	}
}

func TestAttributeEmptyGame(t *testing.T) {
	_, _, err := Attribute("g1", nil, 1)
	if !errors.Is(err, ErrEmptyGame) {
		t.Fatalf("want ErrEmptyGame, got %v", err)
	}
}

// ---- Runs ----

// TestRunBelowThreshold: a single 3-point play in Q4 is no run.
func TestRunBelowThreshold(t *testing.T) {
	events := []model.GameEvent{
		makeEvent(4, 600, 59, 59),
		makeEvent(4, 540, 62, 59),
	}
	res := mustAnalyze(t, "g1", events)
	if len(res.Runs) != 0 {
		t.Errorf("expected no runs, got %+v", res.Runs)
	}
}

// TestRunClosedByOpponent: 8 unanswered points over three plays, then the
// opponent scores.
func TestRunClosedByOpponent(t *testing.T) {
	events := makeGame("g1", []step{
		{q: 1, secs: 30, side: model.SideHome, pts: 2},
		{q: 1, secs: 60, side: model.SideHome, pts: 3},
		{q: 1, secs: 90, side: model.SideHome, pts: 3},
		{q: 1, secs: 120, side: model.SideAway, pts: 2},
	})
	res := mustAnalyze(t, "g1", events)
	if len(res.Runs) != 1 {
		t.Fatalf("want 1 run, got %d: %+v", len(res.Runs), res.Runs)
	}
	r := res.Runs[0]
	if r.Team != homeTeam || r.Opponent != awayTeam || r.Points != 8 {
		t.Errorf("unexpected run %+v", r)
	}
	if r.StartTime != 30 || r.EndTime != 90 || r.StartQuarter != 1 {
		t.Errorf("run bounds: start %d end %d quarter %d", r.StartTime, r.EndTime, r.StartQuarter)
	}
}

// TestRunClosedAtEnd: the open run is closed when the stream ends.
func TestRunClosedAtEnd(t *testing.T) {
	events := makeGame("g1", []step{
		{q: 4, secs: 100, side: model.SideHome, pts: 2},
		{q: 4, secs: 200, side: model.SideAway, pts: 3},
		{q: 4, secs: 300, side: model.SideAway, pts: 3},
		{q: 4, secs: 400, side: model.SideAway, pts: 2},
		{q: 4, secs: 450, side: model.SideAway, pts: 0},
		{q: 4, secs: 500, side: model.SideAway, pts: 2},
	})
	res := mustAnalyze(t, "g1", events)
	if len(res.Runs) != 1 || res.Runs[0].Team != awayTeam || res.Runs[0].Points != 10 {
		t.Fatalf("want one 10-point away run, got %+v", res.Runs)
	}
}

// TestRunConservation: the points a team scores in runs never exceed its
// final score.
func TestRunConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 20; game++ {
		var steps []step
		for i := 0; i < 120; i++ {
			side := model.SideHome
			if rng.Intn(2) == 0 {
				side = model.SideAway
			}
			steps = append(steps, step{q: 1 + i/30, secs: 1 + (i%30)*20, side: side, pts: 1 + rng.Intn(3)})
		}
		res := mustAnalyze(t, "g", makeGame("g", steps))

		byTeam := map[string]int{}
		for _, r := range res.Runs {
			byTeam[r.Team] += r.Points
		}
		if byTeam[homeTeam] > res.Game.HomeScore || byTeam[awayTeam] > res.Game.AwayScore {
			t.Fatalf("game %d: run points %v exceed final %d-%d", game, byTeam, res.Game.HomeScore, res.Game.AwayScore)
		}
	}
}

func TestSummarizeRuns(t *testing.T) {
	runs := []model.Run{
		{Team: "A", Opponent: "B", Points: 10},
		{Team: "A", Opponent: "C", Points: 8},
		{Team: "B", Opponent: "A", Points: 12},
	}
	got := SummarizeRuns(runs)
	if len(got) != 3 {
		t.Fatalf("want 3 teams, got %d", len(got))
	}
	// made-allowed: A 2-1, B 1-1, C 0-1
	if got[0].Team != "A" || got[0].RunsMade != 2 || got[0].RunsAllowed != 1 || got[0].RunDiff != 1 {
		t.Errorf("row A: %+v", got[0])
	}
	if !approx(got[0].AvgRunMade, 9) || got[0].BestRun != 10 || got[0].WorstRunAllowed != 12 {
		t.Errorf("row A aggregates: %+v", got[0])
	}
	if got[1].Team != "B" || got[2].Team != "C" {
		t.Errorf("order: %s %s", got[1].Team, got[2].Team)
	}
	if got[2].RunsMade != 0 || got[2].AvgRunMade != 0 || got[2].RunDiff != -1 {
		t.Errorf("row C: %+v", got[2])
	}
}

// ---- Comebacks ----

// homeComeback: home falls 14 behind in Q3, ties late in Q4 and wins 20-18.
func homeComeback(code string) []model.GameEvent {
	return makeGame(code, []step{
		{q: 1, secs: 100, side: model.SideAway, pts: 3},
		{q: 1, secs: 300, side: model.SideHome, pts: 2},
		{q: 2, secs: 100, side: model.SideAway, pts: 3},
		{q: 2, secs: 400, side: model.SideAway, pts: 3},
		{q: 3, secs: 100, side: model.SideHome, pts: 2},
		{q: 3, secs: 200, side: model.SideAway, pts: 3},
		{q: 3, secs: 300, side: model.SideAway, pts: 2},
		{q: 3, secs: 350, side: model.SideAway, pts: 2},
		{q: 3, secs: 400, side: model.SideAway, pts: 2},
		{q: 4, secs: 100, side: model.SideHome, pts: 3},
		{q: 4, secs: 200, side: model.SideHome, pts: 3},
		{q: 4, secs: 300, side: model.SideHome, pts: 3},
		{q: 4, secs: 400, side: model.SideHome, pts: 3},
		{q: 4, secs: 500, side: model.SideHome, pts: 2},
		{q: 4, secs: 590, side: model.SideHome, pts: 2},
	})
}

func TestComebackAndMirroredBlownLead(t *testing.T) {
	res := mustAnalyze(t, "g1", homeComeback("g1"))
	if len(res.Comebacks) != 1 || len(res.BlownLeads) != 1 {
		t.Fatalf("want one comeback and one blown lead, got %d/%d", len(res.Comebacks), len(res.BlownLeads))
	}

	c := res.Comebacks[0]
	if c.Team != homeTeam || c.Opponent != awayTeam || c.Deficit != 14 || !c.Won {
		t.Errorf("comeback: %+v", c)
	}
	if c.DeficitTime != "26:40" || c.DeficitQuarter != 3 {
		t.Errorf("deficit at %s Q%d, want 26:40 Q3", c.DeficitTime, c.DeficitQuarter)
	}
	if c.BestGapAfter != 2 || c.BestAfterTime != "39:50" || c.BestAfterQuarter != 4 {
		t.Errorf("best after: %+d at %s Q%d", c.BestGapAfter, c.BestAfterTime, c.BestAfterQuarter)
	}
	if c.FinalScore != "20-18" {
		t.Errorf("final score: %s", c.FinalScore)
	}

	b := res.BlownLeads[0]
	if b.Team != awayTeam || b.MaxLead != 14 || !b.Lost || b.WorstAfter != -2 || b.FinalScore != "18-20" {
		t.Errorf("blown lead: %+v", b)
	}
}

// TestComebackIgnoresEarlierRecovery: a recovery before the deepest deficit
// does not count.
func TestComebackIgnoresEarlierRecovery(t *testing.T) {
	events := makeGame("g1", []step{
		{q: 1, secs: 100, side: model.SideAway, pts: 3},
		{q: 1, secs: 200, side: model.SideAway, pts: 3},
		{q: 1, secs: 300, side: model.SideAway, pts: 2},
		{q: 1, secs: 400, side: model.SideAway, pts: 2},
		{q: 2, secs: 100, side: model.SideHome, pts: 3},
		{q: 2, secs: 200, side: model.SideHome, pts: 3},
		{q: 2, secs: 300, side: model.SideHome, pts: 3},
		{q: 3, secs: 100, side: model.SideAway, pts: 3},
		{q: 3, secs: 200, side: model.SideAway, pts: 3},
		{q: 3, secs: 300, side: model.SideAway, pts: 3},
		{q: 3, secs: 400, side: model.SideAway, pts: 3},
		{q: 3, secs: 500, side: model.SideAway, pts: 2},
		{q: 4, secs: 100, side: model.SideHome, pts: 3},
		{q: 4, secs: 200, side: model.SideHome, pts: 2},
		{q: 4, secs: 300, side: model.SideHome, pts: 2},
	})
	res := mustAnalyze(t, "g1", events)
	if len(res.Comebacks) != 0 || len(res.BlownLeads) != 0 {
		t.Errorf("expected no episodes, got %+v / %+v", res.Comebacks, res.BlownLeads)
	}
}

// TestComebackSymmetry: every episode has exactly one blown lead mirror.
func TestComebackSymmetry(t *testing.T) {
	var comebacks []model.ComebackEpisode
	var blown []model.BlownLead
	for _, code := range []string{"g1", "g2", "g3"} {
		res := mustAnalyze(t, code, homeComeback(code))
		comebacks = append(comebacks, res.Comebacks...)
		blown = append(blown, res.BlownLeads...)
	}
	for _, c := range comebacks {
		matches := 0
		for _, b := range blown {
			if b.GameCode == c.GameCode && b.Team == c.Opponent && b.MaxLead == c.Deficit {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("%s: %d mirrors for %+v", c.GameCode, matches, c)
		}
	}
}

func TestSummarizeComebacks(t *testing.T) {
	comebacks := []model.ComebackEpisode{
		{Team: "A", Opponent: "B", Deficit: 12, Won: true},
		{Team: "A", Opponent: "C", Deficit: 10, Won: false},
	}
	blown := []model.BlownLead{
		{Team: "B", Opponent: "A", MaxLead: 12, Lost: true},
		{Team: "C", Opponent: "A", MaxLead: 10, Lost: false},
	}
	got := SummarizeComebacks(comebacks, blown)
	if len(got) != 3 {
		t.Fatalf("want 3 teams, got %d", len(got))
	}
	a := got[0]
	if a.Team != "A" || a.Comebacks != 2 || a.ComebackWins != 1 || a.MaxDeficit != 12 || !approx(a.AvgDeficit, 11) {
		t.Errorf("row A: %+v", a)
	}
	if a.ComebackScore != 4 {
		t.Errorf("A score: want 4, got %d", a.ComebackScore)
	}
	// C: -1, B: -3
	if got[1].Team != "C" || got[1].ComebackScore != -1 || got[2].Team != "B" || got[2].ComebackScore != -3 {
		t.Errorf("order/scores: %+v %+v", got[1], got[2])
	}
}

// ---- Clutch ----

func TestClutchWindowBoundary(t *testing.T) {
	cases := []struct {
		q, secs, home, away int
		want                bool
	}{
		{4, 480, 65, 60, true},
		{4, 479, 65, 60, false},
		{4, 480, 66, 60, false},
		{4, 600, 60, 65, true},
		{5, 500, 70, 70, true},
		{5, 300, 70, 70, false},
		{3, 590, 50, 50, false},
	}
	for _, c := range cases {
		e := makeEvent(c.q, c.secs, c.home, c.away)
		if got := DefaultClutchWindow.Contains(&e); got != c.want {
			t.Errorf("Q%d %ds %d-%d: want %v, got %v", c.q, c.secs, c.home, c.away, c.want, got)
		}
	}
}

func clutchGame(code string) []model.GameEvent {
	return makeGame(code, []step{
		{q: 4, secs: 300, side: model.SideHome, pts: 2, player: "Rossi", action: "Tiro realizzato da 2 punti"},
		{q: 4, secs: 490, side: model.SideAway, pts: 2, player: "Bianchi", action: "Tiro realizzato da 2 punti"},
		{q: 4, secs: 500, side: model.SideHome, pts: 3, player: "Rossi", action: "Tiro realizzato da 3 punti"},
		{q: 4, secs: 510, side: model.SideHome, pts: 1, player: "Rossi", action: "Tiro libero segnato"},
		{q: 4, secs: 520, side: model.SideHome, pts: 0, player: "Rossi", action: "Tiro sbagliato da 3 punti"},
		{q: 4, secs: 530, side: model.SideAway, pts: 0, action: "Timeout"},
	})
}

func TestClutchStats(t *testing.T) {
	res := mustAnalyze(t, "g1", clutchGame("g1"))
	if res.ClutchEvents != 5 {
		t.Errorf("clutch events: want 5, got %d", res.ClutchEvents)
	}

	stats := ClutchStats([]*model.Game{res.Game})
	if len(stats) != 2 {
		t.Fatalf("want 2 players, got %d", len(stats))
	}
	r := stats[0]
	if r.Player != "Rossi" || r.Team != homeTeam {
		t.Fatalf("first line should be Rossi, got %+v", r)
	}
	if r.ClutchPoints != 4 || r.ClutchGames != 1 || r.TotalPoints != 6 {
		t.Errorf("points: %+v", r)
	}
	if r.FGAttempts != 2 || r.FGMade != 1 || r.ThreeAttempts != 2 || r.ThreeMade != 1 || r.FTAttempts != 1 || r.FTMade != 1 {
		t.Errorf("splits: %+v", r)
	}
	if !approx(r.FGPct, 50) || !approx(r.ThreePct, 50) || !approx(r.FTPct, 100) {
		t.Errorf("pcts: fg %.2f 3pt %.2f ft %.2f", r.FGPct, r.ThreePct, r.FTPct)
	}
	if !approx(r.TSPct, 4/(2*(2+0.44))*100) {
		t.Errorf("ts%%: %.4f", r.TSPct)
	}
	if !approx(r.ClutchPct, 4.0/6*100) || !approx(r.ClutchPPG, 4) || r.TotalShots != 3 || !approx(r.CloserScore, 4) {
		t.Errorf("derived: %+v", r)
	}

	b := stats[1]
	if b.Player != "Bianchi" || b.ClutchPoints != 2 || b.FGMade != 1 || b.FTAttempts != 0 || b.FTPct != 0 {
		t.Errorf("Bianchi: %+v", b)
	}
}

// sameSecondFoul: at 9:20 of Q4 the home side goes 60-60 to 62-60, but the
// feed lists the away foul before the home basket, both with the new score.
func sameSecondFoul(withBasket bool) []model.GameEvent {
	tied := makeEvent(4, 500, 60, 60)
	tied.Team = homeTeam

	foul := makeEvent(4, 560, 62, 60)
	foul.Team, foul.Player, foul.ActionText = awayTeam, "Rossi", "Fallo commesso"

	events := []model.GameEvent{tied, foul}
	if withBasket {
		basket := makeEvent(4, 560, 62, 60)
		basket.Team, basket.Player, basket.ActionText = homeTeam, "Bianchi", "Tiro realizzato da 2 punti"
		events = append(events, basket)
	}
	return events
}

func TestAttributeCreditsScoringTeamRow(t *testing.T) {
	g, excluded, err := Attribute("g1", sameSecondFoul(true), 1)
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	foul, basket := g.Events[1], g.Events[2]
	if foul.ScoringSide != model.SideNone || foul.PointsScored != 0 || foul.Excluded != model.ExcludedNoChange {
		t.Errorf("foul row should carry no points: %+v", foul)
	}
	if basket.ScoringSide != model.SideHome || basket.PointsScored != 2 || basket.Excluded != model.ExcludedNone {
		t.Errorf("basket row should carry the 2 points: %+v", basket)
	}
	if excluded[model.ExcludedNoChange] != 1 {
		t.Errorf("no_change count: %v", excluded)
	}
}

func TestClutchStatsSameSecondOpponentRow(t *testing.T) {
	res := mustAnalyze(t, "g1", sameSecondFoul(true))
	byPlayer := make(map[string]model.ClutchStatLine)
	for _, l := range ClutchStats([]*model.Game{res.Game}) {
		byPlayer[l.Player] = l
	}
	if b := byPlayer["Bianchi"]; b.Team != homeTeam || b.ClutchPoints != 2 || b.TotalPoints != 2 || b.FGMade != 1 {
		t.Errorf("Bianchi: %+v", b)
	}
	if r := byPlayer["Rossi"]; r.ClutchPoints != 0 || r.TotalPoints != 0 {
		t.Errorf("Rossi should not be credited: %+v", r)
	}

	// Without the home row the change stays on the foul for runs and gaps,
	// but no away player is credited with it.
	res = mustAnalyze(t, "g2", sameSecondFoul(false))
	for _, l := range ClutchStats([]*model.Game{res.Game}) {
		if l.ClutchPoints != 0 || l.TotalPoints != 0 {
			t.Errorf("%s credited with the home basket: %+v", l.Player, l)
		}
	}
	if got := Q4Heroes([]*model.Game{res.Game}, 1); len(got) != 0 {
		t.Errorf("q4 heroes: %+v", got)
	}
}

// TestClutchRankedViews: players below the game minimum are dropped from the
// rankings only.
func TestClutchRankedViews(t *testing.T) {
	var games []*model.Game
	for _, code := range []string{"g1", "g2", "g3"} {
		games = append(games, mustAnalyze(t, code, clutchGame(code)).Game)
	}
	// Verdi has a single clutch game.
	extra := mustAnalyze(t, "g4", makeGame("g4", []step{
		{q: 4, secs: 500, side: model.SideAway, pts: 2, player: "Verdi", action: "Tiro realizzato da 2 punti"},
	}))
	games = append(games, extra.Game)

	stats := ClutchStats(games)
	if len(stats) != 3 {
		t.Fatalf("raw table should keep everyone, got %d", len(stats))
	}
	closers := ClosersRanking(stats, 3)
	if len(closers) != 2 {
		t.Fatalf("want Rossi and Bianchi in closers, got %+v", closers)
	}
	if closers[0].Player != "Rossi" || !approx(closers[0].CloserScore, 0.7*12+0.3*4*3) {
		t.Errorf("top closer: %+v", closers[0])
	}
	resp := ResponsibilityRanking(stats, 3)
	if len(resp) != 2 || resp[0].Player != "Rossi" || !approx(resp[0].ShotsPerGame, 3) {
		t.Errorf("responsibility: %+v", resp)
	}
}

func TestQ4Heroes(t *testing.T) {
	var games []*model.Game
	for _, code := range []string{"g1", "g2"} {
		res := mustAnalyze(t, code, makeGame(code, []step{
			{q: 1, secs: 100, side: model.SideHome, pts: 2, player: "Rossi"},
			{q: 4, secs: 100, side: model.SideHome, pts: 3, player: "Rossi"},
			{q: 4, secs: 200, side: model.SideHome, pts: 3, player: "Rossi"},
		}))
		games = append(games, res.Game)
	}

	heroes := Q4Heroes(games, 2)
	if len(heroes) != 1 {
		t.Fatalf("want 1 hero, got %+v", heroes)
	}
	h := heroes[0]
	if h.Q4Points != 12 || h.Q4Games != 2 || !approx(h.Q4PPG, 6) || !approx(h.OtherPPG, 2) || !approx(h.Q4Boost, 200) {
		t.Errorf("hero: %+v", h)
	}
	if got := Q4Heroes(games, 3); len(got) != 0 {
		t.Errorf("min games not applied: %+v", got)
	}
}

func TestPlayerQuarterActivity(t *testing.T) {
	res := mustAnalyze(t, "g1", clutchGame("g1"))
	act := PlayerQuarterActivity([]*model.Game{res.Game})
	if len(act) != 2 || act[0].Player != "Rossi" {
		t.Fatalf("activity: %+v", act)
	}
	if act[0].Q4Events != 4 || act[0].TotalEvents != 4 || !approx(act[0].Q4Share, 100) {
		t.Errorf("Rossi: %+v", act[0])
	}
}

// ---- Quarters ----

func TestTeamPlayerDistribution(t *testing.T) {
	activity := []model.PlayerActivity{
		{Player: "Rossi", Team: homeTeam, Q1Events: 6, Q2Events: 4, Q3Events: 5, Q4Events: 9, TotalEvents: 24},
		{Player: "Bianchi", Team: homeTeam, Q1Events: 2, Q2Events: 4, Q3Events: 5, Q4Events: 10, TotalEvents: 21},
		{Player: "Neri", Team: homeTeam, Q1Events: 10, Q4Events: 2, TotalEvents: 12},
		{Player: "Verdi", Team: awayTeam, Q1Events: 5, Q2Events: 5, Q3Events: 5, Q4Events: 5, TotalEvents: 20},
	}

	dist := TeamPlayerDistribution(activity, 20)
	if len(dist) != 3 {
		t.Fatalf("Neri is below the minimum, want 3 rows, got %+v", dist)
	}
	// teams ascending, then busiest player first
	if dist[0].Player != "Verdi" || dist[1].Player != "Rossi" || dist[2].Player != "Bianchi" {
		t.Fatalf("order: %+v", dist)
	}
	if !approx(dist[0].Q1Pct, 100) || !approx(dist[0].Q4Pct, 100) {
		t.Errorf("sole regular player owns the team: %+v", dist[0])
	}
	r, b := dist[1], dist[2]
	if !approx(r.Q1Pct, 75) || !approx(r.Q2Pct, 50) || !approx(r.Q4Pct, 100*9.0/19) {
		t.Errorf("Rossi shares: %+v", r)
	}
	if !approx(r.Q3Pct+b.Q3Pct, 100) || !approx(r.Q4Pct+b.Q4Pct, 100) {
		t.Errorf("team shares should add up: %+v / %+v", r, b)
	}

	if got := TeamPlayerDistribution(activity, 100); len(got) != 0 {
		t.Errorf("nobody qualifies: %+v", got)
	}
}

func TestQuarterProfiles(t *testing.T) {
	splits := []model.QuarterSplit{
		{GameCode: "g1", HomeTeam: "A", AwayTeam: "B",
			Home: model.QuarterPoints{Q1: 20, Q2: 18, Q3: 15, Q4: 25},
			Away: model.QuarterPoints{Q1: 15, Q2: 15, Q3: 15, Q4: 15}},
		{GameCode: "g2", HomeTeam: "B", AwayTeam: "A",
			Home: model.QuarterPoints{Q1: 17, Q2: 15, Q3: 19, Q4: 13},
			Away: model.QuarterPoints{Q1: 10, Q2: 16, Q3: 15, Q4: 21}},
	}
	got := QuarterProfiles(splits)
	if len(got) != 2 {
		t.Fatalf("want 2 teams, got %d", len(got))
	}
	a := got[0]
	if a.Team != "A" || a.Games != 2 || !approx(a.Q1Avg, 15) || !approx(a.Q4Avg, 23) {
		t.Errorf("A: %+v", a)
	}
	if a.BestQuarter != "Q4" || a.WorstQuarter != "Q1" || !approx(a.Q4VsQ1, 8) {
		t.Errorf("A quarters: %+v", a)
	}
	// B averages 16/15/17/14.
	b := got[1]
	if b.BestQuarter != "Q3" || b.WorstQuarter != "Q4" || !approx(b.Q4VsQ1, -2) {
		t.Errorf("B quarters: %+v", b)
	}
}

// TestQuarterProfilesTies: the first quarter wins ties for best and worst.
func TestQuarterProfilesTies(t *testing.T) {
	got := QuarterProfiles([]model.QuarterSplit{{
		GameCode: "g1", HomeTeam: "A", AwayTeam: "B",
		Home: model.QuarterPoints{Q1: 20, Q2: 20, Q3: 20, Q4: 20},
	}})
	for _, p := range got {
		if p.BestQuarter != "Q1" || p.WorstQuarter != "Q1" {
			t.Errorf("%s: best %s worst %s", p.Team, p.BestQuarter, p.WorstQuarter)
		}
	}
}

// ---- Determinism ----

func TestAnalyzeGameIdempotent(t *testing.T) {
	events := append(homeComeback("g1"), clutchGame("g1")...)
	first := mustAnalyze(t, "g1", events)
	second := mustAnalyze(t, "g1", events)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs over the same input differ")
	}
}
