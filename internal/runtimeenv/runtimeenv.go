/*
Package runtimeenv carries process-scope state explicitly instead of through
package globals: the logger and the monotonic stream-id counter.
*/
package runtimeenv

import (
	"log"
	"sync/atomic"
)

// RuntimeEnv is handed to the driver at construction (§9 design note:
// "Global mutable state... Pass them explicitly as a RuntimeEnv handed to
// the driver at construction").
type RuntimeEnv struct {
	Log      *log.Logger
	streamID uint64
}

// New returns a RuntimeEnv logging to logger, or to log.Default() if nil.
func New(logger *log.Logger) *RuntimeEnv {
	if logger == nil {
		logger = log.Default()
	}
	return &RuntimeEnv{Log: logger}
}

// NextStreamID returns a fresh, process-wide unique stream identifier.
func (r *RuntimeEnv) NextStreamID() uint64 {
	return atomic.AddUint64(&r.streamID, 1)
}
