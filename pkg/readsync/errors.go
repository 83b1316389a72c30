package readsync

import "errors"

// ErrClosed is returned by Persist after Close.
var ErrClosed = errors.New("readsync: syncer closed")
