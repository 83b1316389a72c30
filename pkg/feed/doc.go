// Package feed is the consumer side of the notification store: the bell
// summary, the recent items list and the read transitions users trigger.
//
// Opening an item marks it read in the store and issues one background
// persistence request. Mark-all-read updates the store and sends one bulk
// request. ServeSignals pushes the bell Summary to a datastar widget.
package feed
