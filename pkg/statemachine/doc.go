// Package statemachine is a small finite-state machine keyed by string states
// and events.
//
// Rules are declared up front with Allow, or later with Add. A rule may carry
// a guard that vetoes it and an action that runs before the state changes.
// Fire applies the first rule whose guard passes and returns ErrNoTransition
// or ErrTransitionRejected otherwise, leaving the state untouched.
//
//	const (
//		Idle       statemachine.State = "idle"
//		Connecting statemachine.State = "connecting"
//		Mount      statemachine.Event = "mount"
//	)
//
//	m := statemachine.MustNew(Idle,
//		statemachine.Allow([]statemachine.State{Idle}, Connecting, Mount),
//		statemachine.WithObserver(func(ctx context.Context, from, to statemachine.State, ev statemachine.Event) {
//			slog.DebugContext(ctx, "transition", "from", from, "to", to)
//		}),
//	)
//	if err := m.Fire(ctx, Mount, nil); errors.Is(err, statemachine.ErrNoTransition) {
//		// already mounted
//	}
//
// Observers run after the lock is released and may read the machine.
package statemachine
