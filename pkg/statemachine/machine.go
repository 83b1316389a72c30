package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State names a machine state.
type State string

func (s State) String() string { return string(s) }

// Event names an input that may move the machine.
type Event string

func (e Event) String() string { return string(e) }

// Guard vetoes a rule when it returns false.
type Guard func(ctx context.Context, from State, ev Event, data any) bool

// Action runs while the machine is locked, before the state changes.
// An error leaves the machine where it was.
type Action func(ctx context.Context, from, to State, ev Event, data any) error

// Observer is called after a state change, outside the lock.
type Observer func(ctx context.Context, from, to State, ev Event)

type rule struct {
	to     State
	guard  Guard
	action Action
}

// Machine is a finite-state machine safe for concurrent use. Several rules
// may share a (from, event) pair; the first whose guard passes wins.
type Machine struct {
	mu        sync.RWMutex
	initial   State
	current   State
	rules     map[State]map[Event][]rule
	observers []Observer
}

// Current returns the state the machine is in.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in s.
func (m *Machine) Is(s State) bool {
	return s != "" && m.Current() == s
}

// Add registers a rule moving from to to on ev.
func (m *Machine) Add(from, to State, ev Event, opts ...RuleOption) error {
	if from == "" || to == "" || ev == "" {
		return fmt.Errorf("%w: %q -> %q on %q", ErrInvalidTransition, from, to, ev)
	}
	r := rule{to: to}
	for _, opt := range opts {
		opt(&r)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rules[from] == nil {
		m.rules[from] = make(map[Event][]rule)
	}
	m.rules[from][ev] = append(m.rules[from][ev], r)
	return nil
}

// Fire applies ev. It fails with ErrNoTransition when the current state has no
// rule for ev and with ErrTransitionRejected when every guard vetoed it.
func (m *Machine) Fire(ctx context.Context, ev Event, data any) error {
	if ev == "" {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	from := m.current
	r, err := m.pick(ctx, ev, data)
	if err == nil && r.action != nil {
		if aerr := r.action(ctx, from, r.to, ev, data); aerr != nil {
			err = fmt.Errorf("%s -> %s on %s: action failed: %w", from, r.to, ev, aerr)
		}
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = r.to
	observers := m.observers
	m.mu.Unlock()

	for _, obs := range observers {
		obs(ctx, from, r.to, ev)
	}
	return nil
}

// Can reports whether Fire(ctx, ev, data) would find a rule. Actions are not run.
func (m *Machine) Can(ctx context.Context, ev Event, data any) bool {
	if ev == "" {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.pick(ctx, ev, data)
	return err == nil
}

// Reset returns the machine to its initial state without notifying observers.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.current = m.initial
	m.mu.Unlock()
}

// pick must be called with the lock held.
func (m *Machine) pick(ctx context.Context, ev Event, data any) (rule, error) {
	candidates := m.rules[m.current][ev]
	if len(candidates) == 0 {
		return rule{}, fmt.Errorf("%w: %s on %s", ErrNoTransition, m.current, ev)
	}
	for _, r := range candidates {
		if r.guard == nil || r.guard(ctx, m.current, ev, data) {
			return r, nil
		}
	}
	return rule{}, fmt.Errorf("%w: %s on %s", ErrTransitionRejected, m.current, ev)
}
