// internal/aggregate/aggregate.go
package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// WriteError is a failed write or flush on the merged sink. It is sticky:
// once the sink breaks, every later WriteLine returns the same error.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write merged output: %v", e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }

// Aggregator serializes whole lines from many producers into one sink.
// Lines arrive in lock-acquisition order; nothing is reordered or held
// back between calls.
type Aggregator struct {
	mu    sync.Mutex
	bw    *bufio.Writer
	err   error
	lines int64
}

// New wraps sink. The caller keeps ownership of sink and closes it after
// the last producer has returned.
func New(sink io.Writer) *Aggregator {
	return &Aggregator{bw: bufio.NewWriterSize(sink, 64<<10)}
}

// WriteLine writes text plus a newline and flushes before releasing the
// lock, so a reader tailing the sink never sees half a row.
func (a *Aggregator) WriteLine(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}
	_, err := a.bw.WriteString(text)
	if err == nil {
		err = a.bw.WriteByte('\n')
	}
	if err == nil {
		err = a.bw.Flush()
	}
	if err != nil {
		a.err = &WriteError{Err: err}
		return a.err
	}
	a.lines++
	return nil
}

// Lines returns the number of lines written so far.
func (a *Aggregator) Lines() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lines
}

// Err returns the sticky sink error, if any.
func (a *Aggregator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
