package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Side identifies which team of a game an event is credited to.
type Side int

const (
	SideNone Side = 0
	SideHome Side = 1
	SideAway Side = 2
)

func (s Side) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	default:
		return "none"
	}
}

// Opposite returns the other side of the game; SideNone maps to itself.
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return SideNone
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

func (s *Side) UnmarshalJSON(b []byte) error {
	v, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("side: %w", err)
	}
	*s = ParseSide(v)
	return nil
}

// ParseSide is the inverse of Side.String.
func ParseSide(v string) Side {
	switch v {
	case "home":
		return SideHome
	case "away":
		return SideAway
	default:
		return SideNone
	}
}

// Exclusion records why an event did not take part in score attribution.
type Exclusion string

const (
	ExcludedNone         Exclusion = ""
	ExcludedNonMonotonic Exclusion = "non_monotonic"
	ExcludedNoChange     Exclusion = "no_change"
	ExcludedAmbiguous    Exclusion = "ambiguous"
)

// ---- Raw records emitted by the scraper ----

// QuarterLabel holds the quarter as the feed sends it: a bare number, "Q4",
// "OT2", or a full clock string such as "Q4 09:59".
type QuarterLabel string

func (q *QuarterLabel) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		v, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("quarter: %w", err)
		}
		*q = QuarterLabel(v)
		return nil
	}
	*q = QuarterLabel(s)
	return nil
}

// ScoreValue is one half of a score pair. The scraper sends numbers, numeric
// strings, empty strings or null; only the first two are Valid.
type ScoreValue struct {
	Value int
	Valid bool
}

// Score builds a valid ScoreValue.
func Score(v int) ScoreValue { return ScoreValue{Value: v, Valid: true} }

func (s ScoreValue) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(s.Value)), nil
}

func (s *ScoreValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	*s = ScoreValue{}
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		v, err := strconv.Unquote(raw)
		if err != nil {
			return nil
		}
		raw = strings.TrimSpace(v)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// non-numeric scores are a data problem, not a decode failure
		return nil
	}
	// "59.0" is a score; "59.7", NaN and Inf are not
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	*s = ScoreValue{Value: int(f), Valid: true}
	return nil
}

// RawEvent is one play-by-play row as produced by the scraper.
type RawEvent struct {
	GameCode   string       `json:"game_code"`
	Quarter    QuarterLabel `json:"quarter"`
	Time       string       `json:"time"`
	Score      string       `json:"score,omitempty"`
	ScoreHome  ScoreValue   `json:"score_home"`
	ScoreAway  ScoreValue   `json:"score_away"`
	Team       string       `json:"team"`
	Player     string       `json:"player"`
	ActionType string       `json:"action_type"`
	HomeTeam   string       `json:"home_team"`
	AwayTeam   string       `json:"away_team"`
}

// QuarterPoints holds points scored in each regulation quarter.
type QuarterPoints struct {
	Q1 int `json:"q1"`
	Q2 int `json:"q2"`
	Q3 int `json:"q3"`
	Q4 int `json:"q4"`
}

// QuarterSplit is the per-game partial scores record (one row per game).
type QuarterSplit struct {
	GameCode string        `json:"game_code"`
	HomeTeam string        `json:"home_team"`
	AwayTeam string        `json:"away_team"`
	Home     QuarterPoints `json:"home"`
	Away     QuarterPoints `json:"away"`
}

// ---- Canonical events ----

// GameEvent is a normalized play-by-play event.
//
// TimeRemainingSeconds keeps the feed's name, but the feed's quarter clock
// counts up: 600 is the end of a quarter, 480 is two minutes to go.
type GameEvent struct {
	GameCode             string `json:"game_code"`
	Quarter              int    `json:"quarter"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	TotalElapsedSeconds  int    `json:"total_elapsed_seconds"`
	ScoreHome            int    `json:"score_home"`
	ScoreAway            int    `json:"score_away"`
	Team                 string `json:"team"`
	Player               string `json:"player,omitempty"`
	ActionText           string `json:"action_text"`
	HomeTeam             string `json:"home_team"`
	AwayTeam             string `json:"away_team"`

	// Derived by the attributor.
	PointsScored int       `json:"points_scored"`
	ScoringSide  Side      `json:"scoring_side"`
	IsClutch     bool      `json:"is_clutch"`
	Excluded     Exclusion `json:"excluded,omitempty"`
}

// Gap is home score minus away score.
func (e *GameEvent) Gap() int { return e.ScoreHome - e.ScoreAway }

// TotalScore is the sum of both scores; used to order same-timestamp events.
func (e *GameEvent) TotalScore() int { return e.ScoreHome + e.ScoreAway }

// HasPlayer reports whether the event names a player.
func (e *GameEvent) HasPlayer() bool { return strings.TrimSpace(e.Player) != "" }

// Game is one game's ordered, annotated event list. It is built once by the
// attributor and not modified afterwards.
type Game struct {
	GameCode  string      `json:"game_code"`
	HomeTeam  string      `json:"home_team"`
	AwayTeam  string      `json:"away_team"`
	Events    []GameEvent `json:"events"`
	HomeScore int         `json:"home_score"`
	AwayScore int         `json:"away_score"`
}

// TeamFor returns the team name playing on side s.
func (g *Game) TeamFor(s Side) string {
	switch s {
	case SideHome:
		return g.HomeTeam
	case SideAway:
		return g.AwayTeam
	default:
		return ""
	}
}

// Scoring returns the events that carry an attributed score change, in order.
func (g *Game) Scoring() []GameEvent {
	out := make([]GameEvent, 0, len(g.Events))
	for _, e := range g.Events {
		if e.ScoringSide != SideNone {
			out = append(out, e)
		}
	}
	return out
}

// ---- Per-game records ----

type Run struct {
	Team         string `json:"team"`
	Opponent     string `json:"opponent"`
	Points       int    `json:"points"`
	StartTime    int    `json:"start_time"`
	StartQuarter int    `json:"start_quarter"`
	EndTime      int    `json:"end_time"`
	GameCode     string `json:"game_code"`
}

type ComebackEpisode struct {
	Team             string `json:"team"`
	Opponent         string `json:"opponent"`
	Deficit          int    `json:"deficit"`
	DeficitTime      string `json:"deficit_time"`
	DeficitQuarter   int    `json:"deficit_quarter"`
	BestGapAfter     int    `json:"best_gap_after"` // positive = in the lead
	BestAfterTime    string `json:"best_after_time"`
	BestAfterQuarter int    `json:"best_after_quarter"`
	FinalScore       string `json:"final_score"`
	Won              bool   `json:"won"`
	GameCode         string `json:"game_code"`
}

// BlownLead is a ComebackEpisode seen from the team that lost the advantage.
type BlownLead struct {
	Team              string `json:"team"`
	Opponent          string `json:"opponent"`
	MaxLead           int    `json:"max_lead"`
	MaxLeadTime       string `json:"max_lead_time"`
	MaxLeadQuarter    int    `json:"max_lead_quarter"`
	WorstAfter        int    `json:"worst_after"` // negative = trailing
	WorstAfterTime    string `json:"worst_after_time"`
	WorstAfterQuarter int    `json:"worst_after_quarter"`
	FinalScore        string `json:"final_score"`
	Lost              bool   `json:"lost"`
	GameCode          string `json:"game_code"`
}

// ---- Competition tables ----

type TeamRunSummary struct {
	Team            string  `json:"team"`
	RunsMade        int     `json:"runs_made"`
	RunsAllowed     int     `json:"runs_allowed"`
	BestRun         int     `json:"best_run"`
	WorstRunAllowed int     `json:"worst_run_allowed"`
	AvgRunMade      float64 `json:"avg_run_made"`
	AvgRunAllowed   float64 `json:"avg_run_allowed"`
	RunDiff         int     `json:"run_diff"`
}

type TeamComebackSummary struct {
	Team          string  `json:"team"`
	Comebacks     int     `json:"comebacks"`
	MaxDeficit    int     `json:"max_deficit"`
	AvgDeficit    float64 `json:"avg_deficit"`
	ComebackWins  int     `json:"comeback_wins"`
	BlownLeads    int     `json:"blown_leads"`
	WorstBlown    int     `json:"worst_blown"`
	BlownLosses   int     `json:"blown_losses"`
	ComebackScore int     `json:"comeback_score"`
}

// ClutchStatLine is one player's shooting line inside the clutch window.
// Percentages are on a 0-100 scale.
type ClutchStatLine struct {
	Player        string  `json:"player"`
	Team          string  `json:"team"`
	ClutchPoints  int     `json:"clutch_points"`
	ClutchGames   int     `json:"clutch_games"`
	FGAttempts    int     `json:"fg_attempts"`
	FGMade        int     `json:"fg_made"`
	ThreeAttempts int     `json:"3pt_attempts"`
	ThreeMade     int     `json:"3pt_made"`
	FTAttempts    int     `json:"ft_attempts"`
	FTMade        int     `json:"ft_made"`
	TotalPoints   int     `json:"total_points"`
	FGPct         float64 `json:"fg_pct"`
	ThreePct      float64 `json:"3pt_pct"`
	FTPct         float64 `json:"ft_pct"`
	TSPct         float64 `json:"ts_pct"`
	ClutchPct     float64 `json:"clutch_pct"`
	ClutchPPG     float64 `json:"clutch_ppg"`
	TotalShots    int     `json:"total_shots"`
	ShotsPerGame  float64 `json:"shots_per_game"`
	CloserScore   float64 `json:"closer_score"`
}

type QuarterProfile struct {
	Team         string  `json:"team"`
	Games        int     `json:"games"`
	Q1Avg        float64 `json:"q1_avg"`
	Q2Avg        float64 `json:"q2_avg"`
	Q3Avg        float64 `json:"q3_avg"`
	Q4Avg        float64 `json:"q4_avg"`
	BestQuarter  string  `json:"best_quarter"`
	WorstQuarter string  `json:"worst_quarter"`
	Q4VsQ1       float64 `json:"q4_vs_q1"`
}

// Q4Hero compares a player's fourth-quarter scoring with quarters one to three.
type Q4Hero struct {
	Player      string  `json:"player"`
	Team        string  `json:"team"`
	Q4Points    int     `json:"q4_points"`
	Q4Games     int     `json:"q4_games"`
	Q4PPG       float64 `json:"q4_ppg"`
	OtherPoints int     `json:"other_points"`
	OtherGames  int     `json:"other_games"`
	OtherPPG    float64 `json:"other_ppg"`
	Q4Boost     float64 `json:"q4_boost"` // percent
}

// PlayerActivity counts a player's events per regulation quarter; a proxy for
// minutes played.
type PlayerActivity struct {
	Player      string  `json:"player"`
	Team        string  `json:"team"`
	Q1Events    int     `json:"q1_events"`
	Q2Events    int     `json:"q2_events"`
	Q3Events    int     `json:"q3_events"`
	Q4Events    int     `json:"q4_events"`
	TotalEvents int     `json:"total_events"`
	Q4Share     float64 `json:"q4_share"`
}

// PlayerDistribution is a player's share of the team's events in each
// regulation quarter, among the team's regular players. Shares are percent.
type PlayerDistribution struct {
	Player      string  `json:"player"`
	Team        string  `json:"team"`
	Q1Events    int     `json:"q1_events"`
	Q2Events    int     `json:"q2_events"`
	Q3Events    int     `json:"q3_events"`
	Q4Events    int     `json:"q4_events"`
	TotalEvents int     `json:"total_events"`
	Q1Pct       float64 `json:"q1_pct"`
	Q2Pct       float64 `json:"q2_pct"`
	Q3Pct       float64 `json:"q3_pct"`
	Q4Pct       float64 `json:"q4_pct"`
}

type Summary struct {
	TotalEvents    int `json:"total_events"`
	TotalGames     int `json:"total_games"`
	ClutchEvents   int `json:"clutch_events"`
	TotalPoints    int `json:"total_points"`
	DroppedEvents  int `json:"dropped_events"`
	ExcludedEvents int `json:"excluded_events"`
	FailedGames    int `json:"failed_games"`
}

// Report is everything the engine derives for one competition.
type Report struct {
	Competition string  `json:"competition"`
	Summary     Summary `json:"summary"`

	TeamRuns      []TeamRunSummary      `json:"team_runs"`
	TeamComebacks []TeamComebackSummary `json:"team_comebacks"`
	ClutchStats   []ClutchStatLine      `json:"clutch_stats"`
	Quarters      []QuarterProfile      `json:"quarter_profiles"`

	Runs           []Run             `json:"runs"`
	Comebacks      []ComebackEpisode `json:"comebacks"`
	BlownLeads     []BlownLead       `json:"blown_leads"`
	Closers        []ClutchStatLine  `json:"closers"`
	Responsibility []ClutchStatLine  `json:"responsibility"`
	Q4Heroes       []Q4Hero          `json:"q4_heroes"`
	Activity       []PlayerActivity  `json:"player_activity"`

	Distribution []PlayerDistribution `json:"player_distribution"`
}

// AnalysisSummary is a lightweight record for list/show commands.
type AnalysisSummary struct {
	ID          string
	Competition string
	CreatedAt   string
	Games       int
	Events      int
	Runs        int
	Comebacks   int
}
