package statemachine

import "fmt"

// Option configures a Machine in New.
type Option func(*Machine) error

// RuleOption configures one rule.
type RuleOption func(*rule)

// New creates a machine starting in initial.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, ErrEmptyInitialState
	}
	m := &Machine{
		initial: initial,
		current: initial,
		rules:   make(map[State]map[Event][]rule),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New for static definitions. It panics on a bad rule.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// Allow moves to to on ev from each of froms.
func Allow(froms []State, to State, ev Event, opts ...RuleOption) Option {
	return func(m *Machine) error {
		if len(froms) == 0 {
			return fmt.Errorf("%w: no source state for %q", ErrInvalidTransition, ev)
		}
		for _, from := range froms {
			if err := m.Add(from, to, ev, opts...); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithObserver registers obs for every state change.
func WithObserver(obs Observer) Option {
	return func(m *Machine) error {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
		return nil
	}
}

func WithGuard(g Guard) RuleOption {
	return func(r *rule) { r.guard = g }
}

func WithAction(a Action) RuleOption {
	return func(r *rule) { r.action = a }
}
