package inbox

import (
	"context"
	"slices"
	"sync"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// MemoryStorage is an in-memory Storage for development and tests.
type MemoryStorage struct {
	items map[string][]notifications.Notification // recipient key -> notifications
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string][]notifications.Notification),
	}
}

func (s *MemoryStorage) Create(_ context.Context, to Recipient, n notifications.Notification) error {
	if err := to.validate(); err != nil {
		return err
	}
	if n.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := to.key()
	for _, existing := range s.items[key] {
		if existing.ID == n.ID {
			return ErrDuplicateID
		}
	}
	s.items[key] = append(s.items[key], n)
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, to Recipient, id string) (notifications.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.items[to.key()] {
		if n.ID == id {
			return n, nil
		}
	}
	return notifications.Notification{}, ErrNotificationNotFound
}

func (s *MemoryStorage) List(_ context.Context, to Recipient, opts ListOptions) ([]notifications.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]notifications.Notification, 0, len(s.items[to.key()]))
	for _, n := range s.items[to.key()] {
		if opts.match(n) {
			filtered = append(filtered, n)
		}
	}

	// stable, so equal timestamps keep reverse insertion order
	slices.Reverse(filtered)
	slices.SortStableFunc(filtered, func(a, b notifications.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return opts.page(filtered), nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, to Recipient, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	changed := 0
	items := s.items[to.key()]
	for i := range items {
		if _, ok := want[items[i].ID]; ok && !items[i].IsRead {
			items[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStorage) MarkAllRead(_ context.Context, to Recipient) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	items := s.items[to.key()]
	for i := range items {
		if !items[i].IsRead {
			items[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStorage) CountUnread(_ context.Context, to Recipient) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.items[to.key()] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}
