// Package loader reads the scraper's play-by-play and quarter-split dumps.
//
// Files are either one JSON array or newline-delimited JSON objects. Dumps
// are append-only, so the same record can show up more than once; the Dedupe
// helpers keep the first copy.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pable/go-pbp-insights/internal/model"
)

// LoadEvents reads raw events from every path, in order.
func LoadEvents(paths ...string) ([]model.RawEvent, error) {
	var out []model.RawEvent
	for _, p := range paths {
		recs, err := loadFile[model.RawEvent](p)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// LoadSplits reads quarter-split records from every path, in order.
func LoadSplits(paths ...string) ([]model.QuarterSplit, error) {
	var out []model.QuarterSplit
	for _, p := range paths {
		recs, err := loadFile[model.QuarterSplit](p)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func loadFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := Decode[T](f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return recs, nil
}

// Decode reads a JSON array or a stream of JSON objects of T.
func Decode[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var out []T
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var out []T
	for i := 1; ; i++ {
		var rec T
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

type eventKey struct {
	gameCode, quarter, clock, player, action string
	score                                    string
}

// DedupeEvents drops repeated events. Two rows are the same event when game,
// quarter, clock, player, action and score all match; the score is part of
// the key because consecutive free throws share everything else.
func DedupeEvents(raws []model.RawEvent) ([]model.RawEvent, int) {
	seen := make(map[eventKey]struct{}, len(raws))
	out := make([]model.RawEvent, 0, len(raws))
	for _, r := range raws {
		k := eventKey{
			gameCode: strings.TrimSpace(r.GameCode),
			quarter:  strings.TrimSpace(string(r.Quarter)),
			clock:    strings.TrimSpace(r.Time),
			player:   strings.TrimSpace(r.Player),
			action:   strings.TrimSpace(r.ActionType),
			score:    scoreKey(r),
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, len(raws) - len(out)
}

func scoreKey(r model.RawEvent) string {
	if r.ScoreHome.Valid && r.ScoreAway.Valid {
		return fmt.Sprintf("%d-%d", r.ScoreHome.Value, r.ScoreAway.Value)
	}
	return strings.TrimSpace(r.Score)
}

// DedupeSplits keeps the first split record per game code.
func DedupeSplits(splits []model.QuarterSplit) ([]model.QuarterSplit, int) {
	seen := make(map[string]struct{}, len(splits))
	out := make([]model.QuarterSplit, 0, len(splits))
	for _, s := range splits {
		code := strings.TrimSpace(s.GameCode)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, s)
	}
	return out, len(splits) - len(out)
}
