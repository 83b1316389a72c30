package backend

import "time"

// Config holds the API connection settings.
type Config struct {
	BaseURL   string        `env:"NOTIFY_API_URL" envDefault:"http://localhost:8080"`
	Token     string        `env:"NOTIFY_TOKEN"`
	Timeout   time.Duration `env:"NOTIFY_API_TIMEOUT" envDefault:"10s"` // Timeout applies to request/response calls, not to the stream.
	UserAgent string        `env:"NOTIFY_USER_AGENT" envDefault:"rendezvous-webclient/1.0"`

	// StreamHeaderTimeout bounds the wait for the stream's response headers.
	// The stream body itself has no deadline.
	StreamHeaderTimeout time.Duration `env:"NOTIFY_STREAM_HEADER_TIMEOUT" envDefault:"10s"`
}
