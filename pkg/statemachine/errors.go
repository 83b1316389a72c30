package statemachine

import "errors"

var (
	ErrInvalidTransition = errors.New("statemachine: rule needs a source, a target and an event")
	ErrInvalidEvent      = errors.New("statemachine: empty event")
	ErrEmptyInitialState = errors.New("statemachine: empty initial state")

	// ErrNoTransition means the current state has no rule for the event.
	ErrNoTransition = errors.New("statemachine: no transition")
	// ErrTransitionRejected means every rule for the event was vetoed by its guard.
	ErrTransitionRejected = errors.New("statemachine: transition rejected")
)
