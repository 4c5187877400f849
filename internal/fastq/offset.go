// internal/fastq/offset.go
package fastq

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

const (
	// Sanger / Illumina 1.8+ qualities start at '!'; Illumina 1.3-1.7 at '@'.
	Offset33 = 33
	Offset64 = 64

	// DefaultOffset is reported when no record is decisive.
	DefaultOffset = Offset64

	lowQual   = 59 // ';' is below any phred+64 score
	highQual  = 74 // 'J' is above any phred+33 score from older chemistries
	decisive  = 10
	maxProbes = 10000
)

func init() {
	// Read names and bases are never inspected here, only qualities.
	seq.ValidateSeq = false
}

// ErrNotFastq is returned when the reads file carries no quality strings.
var ErrNotFastq = errors.New("not a FASTQ file")

// GuessOffset inspects quality strings in path and returns 33 or 64.
// Each record votes by how many quality bytes fall below ';' versus above
// 'J'; the first record with a margin over ten decides. Files that never
// decide within the first 10000 records report DefaultOffset.
func GuessOffset(path string) (int, error) {
	rd, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer rd.Close()

	for n := 0; n < maxProbes; n++ {
		r, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		if !rd.IsFastq {
			return 0, fmt.Errorf("%s: %w", path, ErrNotFastq)
		}
		if off, ok := vote(r.Seq.Qual); ok {
			return off, nil
		}
	}
	return DefaultOffset, nil
}

func vote(qual []byte) (int, bool) {
	var low, high int
	for _, q := range qual {
		switch {
		case q < lowQual:
			low++
		case q > highQual:
			high++
		}
	}
	switch d := high - low; {
	case d > decisive:
		return Offset64, true
	case d < -decisive:
		return Offset33, true
	}
	return 0, false
}
