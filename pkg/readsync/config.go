package readsync

import "time"

type Config struct {
	Timeout time.Duration `env:"NOTIFY_SYNC_TIMEOUT" envDefault:"10s"`
}
