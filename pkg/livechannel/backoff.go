package livechannel

import "time"

// Backoff returns the delay before reconnect attempt n (n starts at 1).
type Backoff func(attempt int) time.Duration

// DefaultRetryDelay is the flat delay between reconnect attempts.
const DefaultRetryDelay = 5 * time.Second

// FlatBackoff waits d before every attempt, forever.
func FlatBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff doubles base on every attempt, capped at maxDelay.
func ExponentialBackoff(base, maxDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt && d < maxDelay; i++ {
			d *= 2
		}
		return min(d, maxDelay)
	}
}
