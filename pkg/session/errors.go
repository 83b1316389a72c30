package session

import "errors"

var (
	ErrNilBackend     = errors.New("session: backend is required")
	ErrAlreadyStarted = errors.New("session: already started")
	ErrClosed         = errors.New("session: closed")
)
