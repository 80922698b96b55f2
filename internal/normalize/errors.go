package normalize

import "errors"

// ErrMalformedEvent marks a raw event whose clock or score cannot be parsed.
// Such events are dropped; they never abort a game.
var ErrMalformedEvent = errors.New("malformed event")
