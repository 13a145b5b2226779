package features

import "errors"

// Sentinel error kinds for this package. All of them are client-input errors.
var (
	// ErrMissingInput means the caller supplied no feature mapping at all.
	ErrMissingInput = errors.New("no features received")
	// ErrNoKeyEvents means a keystroke sample carried no events.
	ErrNoKeyEvents = errors.New("no key events received")
	// ErrInvalidKeyEvent means a key event had an unsupported type.
	ErrInvalidKeyEvent = errors.New("invalid key event")
)
