// internal/bowtielog/bowtielog.go
package bowtielog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// reportLines is the exact number of lines in a bowtie2 alignment summary.
const reportLines = 6

var fieldNames = [reportLines]string{"total", "unpaired", "unmapped", "unique", "multiple", "rate"}

// MalformedReportError means the input is not a six-line bowtie2 summary.
// Line is 1-based; 0 means the input ended early.
type MalformedReportError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedReportError) Error() string {
	if e.Line == 0 {
		return "malformed alignment summary: " + e.Reason
	}
	return fmt.Sprintf("malformed alignment summary: line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Summary is the parsed bowtie2 alignment report, e.g.
//
//	100000 reads; of these:
//	  100000 (100.00%) were unpaired; of these:
//	    88453 (88.45%) aligned 0 times
//	    9772 (9.77%) aligned exactly 1 time
//	    1775 (1.77%) aligned >1 times
//	11.55% overall alignment rate
type Summary struct {
	Total    int
	Unpaired int
	Unmapped int
	Unique   int
	Multiple int
	Mapped   int     // Unique + Multiple
	Rate     float64 // overall alignment rate, percent
}

// Parse reads the summary bowtie2 wrote to path.
func Parse(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	s, err := ParseReader(f)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseReader parses a summary from r. There is no partial result: any
// deviation from the fixed layout, including lines after the sixth, is a
// *MalformedReportError.
func ParseReader(r io.Reader) (Summary, error) {
	sc := bufio.NewScanner(r)
	var counts [reportLines - 1]int
	var rate float64

	for i := 0; i < reportLines; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return Summary{}, err
			}
			return Summary{}, &MalformedReportError{Reason: fmt.Sprintf("expected %d lines, got %d", reportLines, i)}
		}
		text := sc.Text()
		tok, ok := firstToken(text)
		if !ok {
			return Summary{}, &MalformedReportError{Line: i + 1, Text: text, Reason: "blank line"}
		}
		if i < reportLines-1 {
			n, err := strconv.Atoi(tok)
			if err != nil || n < 0 {
				return Summary{}, &MalformedReportError{Line: i + 1, Text: text, Reason: fmt.Sprintf("%s: want a read count, got %q", fieldNames[i], tok)}
			}
			counts[i] = n
			continue
		}
		pct, found := strings.CutSuffix(tok, "%")
		if !found {
			return Summary{}, &MalformedReportError{Line: i + 1, Text: text, Reason: fmt.Sprintf("rate: want a percentage, got %q", tok)}
		}
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return Summary{}, &MalformedReportError{Line: i + 1, Text: text, Reason: fmt.Sprintf("rate: %v", err)}
		}
		rate = v
	}
	if sc.Scan() {
		return Summary{}, &MalformedReportError{Line: reportLines + 1, Text: sc.Text(), Reason: "unexpected extra line"}
	}
	if err := sc.Err(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Total:    counts[0],
		Unpaired: counts[1],
		Unmapped: counts[2],
		Unique:   counts[3],
		Multiple: counts[4],
		Mapped:   counts[3] + counts[4],
		Rate:     rate,
	}, nil
}

// String renders the mapped fraction as "Total mapped: 11,547 of 100,000 (11.5%)".
func (s Summary) String() string {
	pct := 0.0
	if s.Total > 0 {
		pct = float64(s.Mapped) * 100 / float64(s.Total)
	}
	return fmt.Sprintf("Total mapped: %s of %s (%.1f%%)",
		humanize.Comma(int64(s.Mapped)), humanize.Comma(int64(s.Total)), pct)
}

func firstToken(line string) (string, bool) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return "", false
	}
	return f[0], true
}
