package notifications

import "errors"

var (
	// ErrInvalidRole is returned by ParseRole for anything but "customer" or "model".
	ErrInvalidRole = errors.New("invalid role")

	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
