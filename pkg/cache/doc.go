// Package cache provides a generic, size-bounded LRU map.
//
// The dev backend keeps one broadcaster per connected recipient in an LRU so
// the number of idle fan-out groups stays bounded; evicting a broadcaster
// closes it, and its streams reconnect against a fresh one.
//
//	registry := cache.New[string, *conn](1024,
//		cache.WithEvictFunc(func(key string, c *conn) { c.Close() }),
//	)
//	c, created := registry.GetOrCreate("customer:u1", dial)
//
// The evict callback runs outside the cache lock.
package cache
