package feed

import "errors"

var (
	ErrBulkMarkFailed      = errors.New("feed: failed to persist mark all as read")
	ErrUnknownNotification = errors.New("feed: unknown notification")
)
