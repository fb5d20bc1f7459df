package receipt

import "errors"

var (
	// ErrNoMatch is the normal negative result: the image was readable but
	// the expected amount was not found in the recognized text.
	ErrNoMatch = errors.New("expected amount not found in receipt")
	// ErrNoAmount is returned when no plausible monetary amount can be extracted.
	ErrNoAmount = errors.New("no amount detected")
	// ErrUnreadable is an engine-level failure: the image yielded no usable text.
	ErrUnreadable = errors.New("no text recognized in image")
)
