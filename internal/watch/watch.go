// Package watch re-runs a callback whenever a PE image on disk changes.
// It only ever watches one file at a time — the target image
// cmd/pseudo64 watch was pointed at — so the constructor takes that path
// directly.
package watch

// VerboseMode gates diagnostic traces about watcher internals.
var VerboseMode bool

// Watcher notifies onChange (given the absolute watched path) whenever
// the underlying file is modified. Run blocks until ctx-equivalent
// cancellation is unnecessary for this CLI's lifetime — Close stops it.
type Watcher interface {
	Run()
	Close() error
}
