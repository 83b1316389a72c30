package feed

type Config struct {
	RecentLimit int `env:"NOTIFY_RECENT_LIMIT" envDefault:"5"`
}
