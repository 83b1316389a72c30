package livechannel

import "errors"

var (
	// ErrAlreadyMounted is returned by Mount while a subscription is active.
	ErrAlreadyMounted = errors.New("livechannel: already mounted")

	ErrMalformedFrame = errors.New("livechannel: malformed frame")
	ErrMissingType    = errors.New("livechannel: frame has no type")
	ErrMissingID      = errors.New("livechannel: notification frame has no id")

	// ErrFrameTooLarge is returned by Stream.Next for a single oversized
	// frame. The stream stays usable and the frame is dropped.
	ErrFrameTooLarge = errors.New("livechannel: frame too large")
)
