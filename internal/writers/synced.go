// internal/writers/synced.go
package writers

import (
	"io"
	"sync"
)

// Synced serializes Write calls so that loggers and subprocess stderr
// copiers can share one destination.
type Synced struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSynced wraps w. Wrapping a *Synced returns it unchanged.
func NewSynced(w io.Writer) *Synced {
	if s, ok := w.(*Synced); ok {
		return s
	}
	return &Synced{w: w}
}

func (s *Synced) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Fd returns the wrapped writer's file descriptor so terminal detection
// sees through the lock. Writers without one report an invalid descriptor.
func (s *Synced) Fd() uintptr {
	if f, ok := s.w.(interface{ Fd() uintptr }); ok {
		return f.Fd()
	}
	return ^uintptr(0)
}
