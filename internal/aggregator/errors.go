package aggregator

import "errors"

// ErrEmptyGame is returned when a game has no events left to analyze.
var ErrEmptyGame = errors.New("game has no events")
