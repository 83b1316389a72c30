package inbox

import "time"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Storage           string        `env:"INBOX_STORAGE" envDefault:"memory"`         // Storage is "memory" or "redis".
	KeyPrefix         string        `env:"INBOX_REDIS_PREFIX" envDefault:"inbox"`     // KeyPrefix namespaces redis keys.
	Retention         time.Duration `env:"INBOX_RETENTION" envDefault:"0"`            // Retention expires idle redis inboxes; 0 keeps them.
	HeartbeatInterval time.Duration `env:"INBOX_HEARTBEAT_INTERVAL" envDefault:"15s"` // HeartbeatInterval is the gap between heartbeat frames.
	StreamBuffer      int           `env:"INBOX_STREAM_BUFFER" envDefault:"32"`       // StreamBuffer is the per-stream backlog before frames are dropped.
	MaxBroadcasters   int           `env:"INBOX_MAX_BROADCASTERS" envDefault:"10000"` // MaxBroadcasters caps recipients with a live broadcaster.
	HistoryLimit      int           `env:"INBOX_HISTORY_LIMIT" envDefault:"50"`       // HistoryLimit caps GET /notifications.
}
