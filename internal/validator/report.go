package validator

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Line statuses.
const (
	StatusOK          = "ok"
	StatusInvalid     = "invalid"
	StatusInvalidJSON = "invalid_json"
)

// LineResult is the outcome for one non-blank input line.
type LineResult struct {
	Line   int    `json:"line"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// String renders the console form of the result.
func (l LineResult) String() string {
	switch l.Status {
	case StatusOK:
		return fmt.Sprintf("Line %d: OK", l.Line)
	case StatusInvalidJSON:
		return fmt.Sprintf("Line %d: invalid json: %s", l.Line, l.Reason)
	default:
		return fmt.Sprintf("Line %d: validation failed: %s", l.Line, l.Reason)
	}
}

// Report aggregates line results for a whole JSONL input.
type Report struct {
	Lines      []LineResult `json:"lines"`
	Valid      int          `json:"valid"`
	Invalid    int          `json:"invalid"`
	Unparsable int          `json:"unparsable"`
}

// OK reports whether every non-blank line parsed and validated.
func (r *Report) OK() bool {
	return r.Invalid == 0 && r.Unparsable == 0
}

// Print writes one console line per result.
func (r *Report) Print(w io.Writer) error {
	for _, l := range r.Lines {
		if _, err := fmt.Fprintln(w, l.String()); err != nil {
			return err
		}
	}
	return nil
}

// Add tallies l and appends it to the report.
func (r *Report) Add(l LineResult) {
	switch l.Status {
	case StatusOK:
		r.Valid++
	case StatusInvalidJSON:
		r.Unparsable++
	default:
		r.Invalid++
	}
	r.Lines = append(r.Lines, l)
}

// ValidateLine validates a single JSONL line numbered n.
func ValidateLine(n int, line []byte) LineResult {
	ok, reason, err := ValidateJSON(line)
	switch {
	case err != nil:
		return LineResult{Line: n, Status: StatusInvalidJSON, Reason: err.Error()}
	case !ok:
		return LineResult{Line: n, Status: StatusInvalid, Reason: reason}
	default:
		return LineResult{Line: n, Status: StatusOK}
	}
}

// EachLine calls fn with every non-blank, whitespace-trimmed line of r and
// its 1-based line number. Blank lines still advance the count. Lines have
// no length limit.
func EachLine(r io.Reader, fn func(n int, line []byte)) error {
	br := bufio.NewReaderSize(r, 1024*1024)
	n := 0
	for {
		raw, err := br.ReadBytes('\n')
		if len(raw) > 0 {
			n++
			if line := bytes.TrimSpace(raw); len(line) > 0 {
				fn(n, line)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read")
		}
	}
}

// Check reads JSONL from r line by line. A bad line never stops the scan.
func Check(r io.Reader) (*Report, error) {
	report := &Report{}
	err := EachLine(r, func(n int, line []byte) {
		report.Add(ValidateLine(n, line))
	})
	return report, err
}

// CheckFile opens path and runs Check over it.
func CheckFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()
	return Check(f)
}
