// internal/worker/lines.go
package worker

import (
	"bufio"
	"fmt"
	"io"
	"iter"
)

// maxLine bounds one output row; SAM rows with long reads stay well below it.
const maxLine = 64 << 20

// Lines yields the lines of r without their terminators. The sequence is
// lazy and single-use: it consumes r and ends when r reaches EOF. A read
// error is yielded once, as the final element.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64<<10), maxLine)
		for sc.Scan() {
			if !yield(sc.Text(), nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield("", fmt.Errorf("read output: %w", err))
		}
	}
}
