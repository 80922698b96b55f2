// Package normalize turns raw scraper rows into canonical GameEvents.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pable/go-pbp-insights/internal/model"
)

// QuarterSeconds is the length of one quarter (and of one overtime slot in
// the feed's clock encoding).
const QuarterSeconds = 600

const regulationQuarters = 4

var (
	quarterRe  = regexp.MustCompile(`^Q?(\d+)(?:Q|°|ST|ND|RD|TH)?$`)
	overtimeRe = regexp.MustCompile(`^(?:OT|TS|SUPP)(\d*)$`)
	scoreRe    = regexp.MustCompile(`^\s*(\d+)\s*[-:]\s*(\d+)\s*$`)
)

// Normalizer cleans raw events. It holds only the team alias table and is
// safe for concurrent use once built.
type Normalizer struct {
	aliases map[string]string
}

// New returns a Normalizer that rewrites team names found in aliases
// (variant -> canonical name).
func New(aliases map[string]string) *Normalizer {
	a := make(map[string]string, len(aliases))
	for variant, canonical := range aliases {
		a[strings.TrimSpace(variant)] = strings.TrimSpace(canonical)
	}
	return &Normalizer{aliases: a}
}

// Team returns the canonical spelling of a team name.
func (n *Normalizer) Team(name string) string {
	name = strings.TrimSpace(name)
	if canonical, ok := n.aliases[name]; ok {
		return canonical
	}
	return name
}

// Normalize converts one raw event. Events without a game code or with an
// unrecoverable quarter, clock or score are rejected with an error wrapping
// ErrMalformedEvent.
func (n *Normalizer) Normalize(raw model.RawEvent) (model.GameEvent, error) {
	gameCode := strings.TrimSpace(raw.GameCode)
	if gameCode == "" {
		return model.GameEvent{}, fmt.Errorf("%w: missing game code", ErrMalformedEvent)
	}
	quarterText, clockText := splitClock(string(raw.Quarter), raw.Time)

	quarter, ok := ParseQuarter(quarterText)
	if !ok {
		return model.GameEvent{}, fmt.Errorf("%w: quarter %q", ErrMalformedEvent, quarterText)
	}
	secs, ok := ParseClock(clockText)
	if !ok {
		return model.GameEvent{}, fmt.Errorf("%w: clock %q", ErrMalformedEvent, clockText)
	}

	home, away, ok := scorePair(raw)
	if !ok {
		return model.GameEvent{}, fmt.Errorf("%w: score %v-%v %q", ErrMalformedEvent, raw.ScoreHome, raw.ScoreAway, raw.Score)
	}

	return model.GameEvent{
		GameCode:             gameCode,
		Quarter:              quarter,
		TimeRemainingSeconds: secs,
		TotalElapsedSeconds:  (quarter-1)*QuarterSeconds + secs,
		ScoreHome:            home,
		ScoreAway:            away,
		Team:                 n.Team(raw.Team),
		Player:               strings.TrimSpace(raw.Player),
		ActionText:           strings.TrimSpace(raw.ActionType),
		HomeTeam:             n.Team(raw.HomeTeam),
		AwayTeam:             n.Team(raw.AwayTeam),
	}, nil
}

// NormalizeAll normalizes every event, silently dropping malformed ones.
// It returns the kept events in input order and the number dropped.
func (n *Normalizer) NormalizeAll(raws []model.RawEvent) ([]model.GameEvent, int) {
	out := make([]model.GameEvent, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		e, err := n.Normalize(raw)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, e)
	}
	return out, dropped
}

// splitClock handles feeds that put the whole clock ("Q4 09:59") in the
// quarter field and leave time empty.
func splitClock(quarter, clock string) (string, string) {
	quarter = strings.TrimSpace(quarter)
	clock = strings.TrimSpace(clock)
	if clock != "" {
		return quarter, clock
	}
	if fields := strings.Fields(quarter); len(fields) == 2 {
		return fields[0], fields[1]
	}
	return quarter, clock
}

// ParseQuarter reads "4", "Q4", "4Q", "4°" as regulation quarters and "OT",
// "OT2", "TS1" as overtime periods numbered after the fourth quarter.
func ParseQuarter(label string) (int, bool) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), " ", ""))
	if s == "" {
		return 0, false
	}
	if m := overtimeRe.FindStringSubmatch(s); m != nil {
		ot := 1
		if m[1] != "" {
			v, err := strconv.Atoi(m[1])
			if err != nil || v < 1 {
				return 0, false
			}
			ot = v
		}
		return regulationQuarters + ot, true
	}
	m := quarterRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	q, err := strconv.Atoi(m[1])
	if err != nil || q < 1 {
		return 0, false
	}
	return q, true
}

// ParseClock converts "mm:ss" to seconds on the quarter clock. The feed
// writes the end of a quarter as 00:00, so a parsed 0 becomes 600.
func ParseClock(text string) (int, bool) {
	mm, ss, found := strings.Cut(strings.TrimSpace(text), ":")
	if !found {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || m < 0 {
		return 0, false
	}
	s, err := strconv.Atoi(strings.TrimSpace(ss))
	if err != nil || s < 0 || s > 59 {
		return 0, false
	}
	secs := m*60 + s
	if secs > QuarterSeconds {
		return 0, false
	}
	if secs == 0 {
		secs = QuarterSeconds
	}
	return secs, true
}

// ParseScore reads score text such as "59-69" (home first).
func ParseScore(text string) (home, away int, ok bool) {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	home, _ = strconv.Atoi(m[1])
	away, _ = strconv.Atoi(m[2])
	return home, away, true
}

func scorePair(raw model.RawEvent) (int, int, bool) {
	if raw.ScoreHome.Valid && raw.ScoreAway.Valid {
		if raw.ScoreHome.Value < 0 || raw.ScoreAway.Value < 0 {
			return 0, 0, false
		}
		return raw.ScoreHome.Value, raw.ScoreAway.Value, true
	}
	if raw.Score != "" {
		return ParseScore(raw.Score)
	}
	return 0, 0, false
}
