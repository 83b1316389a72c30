package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// RedisStorage keeps each inbox in three keys: a hash of encoded
// notifications, a sorted set of ids scored by creation time and a set of
// unread ids. The read flag lives only in the unread set.
type RedisStorage struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithKeyPrefix namespaces all keys. Default is "inbox".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention expires an inbox after it has been idle for ttl. Zero keeps it forever.
func WithRetention(ttl time.Duration) RedisOption {
	return func(s *RedisStorage) { s.ttl = ttl }
}

func NewRedisStorage(db redis.UniversalClient, opts ...RedisOption) *RedisStorage {
	s := &RedisStorage{db: db, prefix: "inbox"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) itemsKey(to Recipient) string  { return s.prefix + ":" + to.key() + ":items" }
func (s *RedisStorage) indexKey(to Recipient) string  { return s.prefix + ":" + to.key() + ":index" }
func (s *RedisStorage) unreadKey(to Recipient) string { return s.prefix + ":" + to.key() + ":unread" }

func (s *RedisStorage) Create(ctx context.Context, to Recipient, n notifications.Notification) error {
	if err := to.validate(); err != nil {
		return err
	}
	if n.ID == "" {
		return ErrMissingID
	}

	raw, err := json.Marshal(n)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}

	added, err := s.db.HSetNX(ctx, s.itemsKey(to), n.ID, raw).Result()
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if !added {
		return ErrDuplicateID
	}

	_, err = s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.indexKey(to), redis.Z{Score: float64(n.CreatedAt.UnixMilli()), Member: n.ID})
		if !n.IsRead {
			pipe.SAdd(ctx, s.unreadKey(to), n.ID)
		}
		s.touch(ctx, pipe, to)
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (s *RedisStorage) Get(ctx context.Context, to Recipient, id string) (notifications.Notification, error) {
	raw, err := s.db.HGet(ctx, s.itemsKey(to), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return notifications.Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return notifications.Notification{}, errors.Join(ErrStorageFailed, err)
	}

	unread, err := s.db.SIsMember(ctx, s.unreadKey(to), id).Result()
	if err != nil {
		return notifications.Notification{}, errors.Join(ErrStorageFailed, err)
	}
	return decodeStored(raw, !unread)
}

func (s *RedisStorage) List(ctx context.Context, to Recipient, opts ListOptions) ([]notifications.Notification, error) {
	ids, err := s.db.ZRevRange(ctx, s.indexKey(to), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	if len(ids) == 0 {
		return []notifications.Notification{}, nil
	}

	var (
		items  *redis.SliceCmd
		unread *redis.StringSliceCmd
	)
	if _, err := s.db.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.HMGet(ctx, s.itemsKey(to), ids...)
		unread = pipe.SMembers(ctx, s.unreadKey(to))
		return nil
	}); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	unreadSet := make(map[string]struct{}, len(unread.Val()))
	for _, id := range unread.Val() {
		unreadSet[id] = struct{}{}
	}

	out := make([]notifications.Notification, 0, len(ids))
	for _, v := range items.Val() {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		n, err := decodeStored([]byte(raw), false)
		if err != nil {
			return nil, err
		}
		_, isUnread := unreadSet[n.ID]
		n.IsRead = !isUnread
		if opts.match(n) {
			out = append(out, n)
		}
	}
	return opts.page(out), nil
}

func (s *RedisStorage) MarkRead(ctx context.Context, to Recipient, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	n, err := s.db.SRem(ctx, s.unreadKey(to), members...).Result()
	if err != nil {
		return 0, errors.Join(ErrStorageFailed, err)
	}
	return int(n), nil
}

func (s *RedisStorage) MarkAllRead(ctx context.Context, to Recipient) (int, error) {
	var card *redis.IntCmd
	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		card = pipe.SCard(ctx, s.unreadKey(to))
		pipe.Del(ctx, s.unreadKey(to))
		return nil
	})
	if err != nil {
		return 0, errors.Join(ErrStorageFailed, err)
	}
	return int(card.Val()), nil
}

func (s *RedisStorage) CountUnread(ctx context.Context, to Recipient) (int, error) {
	n, err := s.db.SCard(ctx, s.unreadKey(to)).Result()
	if err != nil {
		return 0, errors.Join(ErrStorageFailed, err)
	}
	return int(n), nil
}

func (s *RedisStorage) touch(ctx context.Context, pipe redis.Pipeliner, to Recipient) {
	if s.ttl <= 0 {
		return
	}
	for _, key := range []string{s.itemsKey(to), s.indexKey(to), s.unreadKey(to)} {
		pipe.Expire(ctx, key, s.ttl)
	}
}

func decodeStored(raw []byte, read bool) (notifications.Notification, error) {
	var n notifications.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return n, errors.Join(ErrStorageFailed, err)
	}
	n.IsRead = read
	return n, nil
}
