package backend

import (
	"log/slog"
	"net/http"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for request/response calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithStreamClient sets the client used for the live stream. It should have
// no overall timeout.
func WithStreamClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.stream = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithToken overrides the bearer token from Config.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}
