package aggregator

import (
	"github.com/pable/go-pbp-insights/internal/model"
)

// Options holds the thresholds used by the per-game passes and the ranked
// competition views.
type Options struct {
	MinRun            int
	MinDeficit        int
	ComebackThreshold int
	ScoreTolerance    int
	Clutch            ClutchWindow
	MinClutchGames    int
	MinQ4Games        int

	// MinDistributionEvents is the event count a player needs to enter the
	// team distribution.
	MinDistributionEvents int
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinRun:            8,
		MinDeficit:        10,
		ComebackThreshold: 2,
		ScoreTolerance:    1,
		Clutch:            DefaultClutchWindow,
		MinClutchGames:    3,
		MinQ4Games:        5,

		MinDistributionEvents: 20,
	}
}

// GameResult is everything derived from a single game.
type GameResult struct {
	Game         *model.Game
	Runs         []model.Run
	Comebacks    []model.ComebackEpisode
	BlownLeads   []model.BlownLead
	Excluded     map[model.Exclusion]int
	ClutchEvents int
	Points       int
}

// AnalyzeGame runs attribution, clutch flagging, run detection and comeback
// tracking over one game's events. It depends on nothing but its inputs, so
// games can be analyzed in any order or in parallel.
func AnalyzeGame(gameCode string, events []model.GameEvent, opts Options) (*GameResult, error) {
	// ---- Pass 1: score-delta attribution. ----
	g, excluded, err := Attribute(gameCode, events, opts.ScoreTolerance)
	if err != nil {
		return nil, err
	}

	// ---- Pass 2: clutch window. ----
	clutch := ClassifyClutch(g, opts.Clutch)

	// ---- Pass 3: scoring runs. ----
	runs := DetectRuns(g, opts.MinRun)

	// ---- Pass 4: deepest deficit per side. ----
	comebacks, blown := TrackComebacks(g, opts.MinDeficit, opts.ComebackThreshold)

	points := 0
	for _, e := range g.Events {
		points += e.PointsScored
	}

	return &GameResult{
		Game:         g,
		Runs:         runs,
		Comebacks:    comebacks,
		BlownLeads:   blown,
		Excluded:     excluded,
		ClutchEvents: clutch,
		Points:       points,
	}, nil
}

// safeDiv returns 0 when the denominator is zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// pct is part/whole on a 0-100 scale, 0 when whole is zero.
func pct(part, whole int) float64 {
	return 100 * safeDiv(float64(part), float64(whole))
}
