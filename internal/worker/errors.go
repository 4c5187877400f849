// internal/worker/errors.go
package worker

import (
	"fmt"
	"strings"
	"time"
)

// SpawnError means the shard's subprocess could not be started.
type SpawnError struct {
	Shard int
	Cmd   string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("shard %d: start %s: %v", e.Shard, e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError means the shard's subprocess ran and exited non-zero.
// Stderr holds the tail of what it printed there.
type ExitError struct {
	Shard  int
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("shard %d: exit status %d", e.Shard, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// TimeoutError means the shard exceeded its time limit and was killed.
type TimeoutError struct {
	Shard int
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("shard %d: killed after %s", e.Shard, e.After)
}

// ReadError means the subprocess output could not be read to the end.
type ReadError struct {
	Shard int
	Err   error
}

func (e *ReadError) Error() string { return fmt.Sprintf("shard %d: %v", e.Shard, e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
