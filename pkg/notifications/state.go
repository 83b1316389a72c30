package notifications

import (
	"context"
	"sync"

	"github.com/rendezvous-app/webclient/pkg/broadcast"
)

// ChangeKind names the operation that produced a Change.
type ChangeKind string

const (
	ChangeSeeded       ChangeKind = "seeded"
	ChangeAppended     ChangeKind = "appended"
	ChangeRead         ChangeKind = "read"
	ChangeAllRead      ChangeKind = "all_read"
	ChangeCleared      ChangeKind = "cleared"
	ChangeConnectivity ChangeKind = "connectivity"
)

// Change is published after every state mutation that altered something.
// Unread and Connected are the values right after the mutation.
type Change struct {
	Kind      ChangeKind
	ID        string
	Unread    int
	Connected bool
}

// State is the session's notification store and the single source of truth
// for rendering. Every mutation is applied under one lock, so readers never
// observe a partially applied transition.
type State struct {
	mu sync.RWMutex
	// entries is kept oldest first; snapshots reverse it.
	entries     []Notification
	ids         map[string]struct{}
	connected   bool
	initialized bool

	changes *broadcast.MemoryBroadcaster[Change]
}

// NewState creates an empty, uninitialized store.
func NewState() *State {
	return &State{
		ids:     make(map[string]struct{}),
		changes: broadcast.NewMemoryBroadcaster[Change](16, broadcast.WithSlowConsumerPolicy(broadcast.DropMessage)),
	}
}

// Seed installs the historical notifications, newest first, and marks the
// store initialized. It returns false and changes nothing when the store is
// already initialized.
//
// Notifications that arrived live before the seed are kept ahead of the
// historical ones. When both carry the same ID the live record is kept and is
// marked read if either copy was read.
func (s *State) Seed(initial []Notification) bool {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return false
	}

	live := make(map[string]int, len(s.entries))
	for i, n := range s.entries {
		live[n.ID] = i
	}

	history := make([]Notification, 0, len(initial))
	for _, n := range initial {
		if i, ok := live[n.ID]; ok {
			if n.IsRead {
				s.entries[i].IsRead = true
			}
			continue
		}
		if _, dup := s.ids[n.ID]; dup {
			continue
		}
		s.ids[n.ID] = struct{}{}
		history = append(history, n.clone())
	}

	entries := make([]Notification, 0, len(history)+len(s.entries))
	for i := len(history) - 1; i >= 0; i-- {
		entries = append(entries, history[i])
	}
	s.entries = append(entries, s.entries...)
	s.initialized = true
	change := s.changeLocked(ChangeSeeded, "")
	s.mu.Unlock()

	s.publish(change)
	return true
}

// Append inserts n as the newest notification unless one with the same ID is
// already stored, in which case n is discarded and false is returned.
func (s *State) Append(n Notification) bool {
	s.mu.Lock()
	if _, ok := s.ids[n.ID]; ok {
		s.mu.Unlock()
		return false
	}
	s.ids[n.ID] = struct{}{}
	s.entries = append(s.entries, n.clone())
	change := s.changeLocked(ChangeAppended, n.ID)
	s.mu.Unlock()

	s.publish(change)
	return true
}

// MarkRead marks the notification read. It returns false when the ID is
// unknown or the notification was already read. It never contacts the backend.
func (s *State) MarkRead(id string) bool {
	s.mu.Lock()
	changed := false
	for i := range s.entries {
		if s.entries[i].ID == id {
			if !s.entries[i].IsRead {
				s.entries[i].IsRead = true
				changed = true
			}
			break
		}
	}
	if !changed {
		s.mu.Unlock()
		return false
	}
	change := s.changeLocked(ChangeRead, id)
	s.mu.Unlock()

	s.publish(change)
	return true
}

// MarkAllRead marks every unread notification read in one step and returns
// how many changed. A concurrent Append lands entirely before or after it.
func (s *State) MarkAllRead() int {
	s.mu.Lock()
	marked := 0
	for i := range s.entries {
		if !s.entries[i].IsRead {
			s.entries[i].IsRead = true
			marked++
		}
	}
	if marked == 0 {
		s.mu.Unlock()
		return 0
	}
	change := s.changeLocked(ChangeAllRead, "")
	s.mu.Unlock()

	s.publish(change)
	return marked
}

// Clear empties the store and resets the initialized flag, for logout or teardown.
func (s *State) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.ids = make(map[string]struct{})
	s.initialized = false
	change := s.changeLocked(ChangeCleared, "")
	s.mu.Unlock()

	s.publish(change)
}

// SetConnected records live channel connectivity.
func (s *State) SetConnected(connected bool) {
	s.mu.Lock()
	if s.connected == connected {
		s.mu.Unlock()
		return
	}
	s.connected = connected
	change := s.changeLocked(ChangeConnectivity, "")
	s.mu.Unlock()

	s.publish(change)
}

func (s *State) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *State) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// UnreadCount counts unread notifications.
func (s *State) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadLocked()
}

// Len returns the number of stored notifications.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Notifications returns a copy of all notifications, newest first.
func (s *State) Notifications() []Notification {
	return s.Recent(-1)
}

// Recent returns a copy of the newest n notifications, newest first.
// A negative n returns everything.
func (s *State) Recent(n int) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n < 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Notification, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i].clone())
	}
	return out
}

// Get returns a copy of the notification with the given ID.
func (s *State) Get(id string) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.entries {
		if n.ID == id {
			return n.clone(), true
		}
	}
	return Notification{}, false
}

// Subscribe returns a feed of changes bound to ctx. Slow subscribers miss
// intermediate changes but always see later ones.
func (s *State) Subscribe(ctx context.Context) broadcast.Subscriber[Change] {
	return s.changes.Subscribe(ctx)
}

// Close releases change subscribers. The store stays readable.
func (s *State) Close() error {
	return s.changes.Close()
}

func (s *State) unreadLocked() int {
	count := 0
	for _, n := range s.entries {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func (s *State) changeLocked(kind ChangeKind, id string) Change {
	return Change{Kind: kind, ID: id, Unread: s.unreadLocked(), Connected: s.connected}
}

func (s *State) publish(c Change) {
	_ = s.changes.Broadcast(context.Background(), broadcast.Message[Change]{Data: c})
}
