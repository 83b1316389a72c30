package inbox

import "errors"

var (
	ErrNotificationNotFound = errors.New("inbox: notification not found")
	ErrDuplicateID          = errors.New("inbox: notification id already exists")
	ErrMissingID            = errors.New("inbox: notification id is required")
	ErrMissingRecipient     = errors.New("inbox: recipient user id is required")
	ErrMissingType          = errors.New("inbox: notification type is required")
	ErrStorageFailed        = errors.New("inbox: storage operation failed")
)
