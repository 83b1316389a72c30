// Package readsync persists read transitions in the background.
//
// The local store is updated first; Persist then sends one request per
// notification and returns at once. Failures are logged and dropped, so the
// backend may briefly disagree with the UI until the next history load.
package readsync
