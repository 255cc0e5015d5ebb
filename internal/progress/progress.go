// Package progress reports build progress to a sidecar file the way the
// builder's driver does (spec §4.7, §6 "Progress file"): rows of
// {bytes, nodes} written at a fixed cadence as the trace is consumed.
package progress

import (
	"bufio"
	"fmt"
	"os"
)

// largeTraceThreshold is the byte size above which the cadence tightens
// from 5% to 1% (spec §4.7): bigger traces benefit from a finer-grained
// progress report.
const largeTraceThreshold = 5e8

// Cadence returns the fractional progress increment to report at, given
// the total trace size in bytes.
func Cadence(traceSize int64) float64 {
	if float64(traceSize) > largeTraceThreshold {
		return 0.01
	}
	return 0.05
}

// Tracker writes {bytes, nodes} rows to path every time parsed-byte
// position crosses another cadence boundary of total.
type Tracker struct {
	total   int64
	cadence float64
	nextAt  int64

	w   *bufio.Writer
	f   *os.File
	err error
}

// New opens path and returns a Tracker for a trace of size total bytes.
// If path is empty, the returned Tracker discards every report.
func New(path string, total int64) (*Tracker, error) {
	t := &Tracker{total: total, cadence: Cadence(total)}
	t.nextAt = t.step()
	if path == "" {
		return t, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("progress: create %q: %w", path, err)
	}
	t.f = f
	t.w = bufio.NewWriter(f)
	fmt.Fprintln(t.w, "bytes,nodes")
	return t, nil
}

func (t *Tracker) step() int64 {
	return int64(float64(t.total) * t.cadence)
}

// Report records the current parsed-byte offset and node count, writing a
// row if offset has crossed the next cadence boundary.
func (t *Tracker) Report(offset int64, nodes int) {
	if offset < t.nextAt && offset != t.total {
		return
	}
	for t.nextAt <= offset {
		t.nextAt += t.step()
		if t.step() == 0 {
			break
		}
	}
	if t.w == nil {
		return
	}
	if _, err := fmt.Fprintf(t.w, "%d,%d\n", offset, nodes); err != nil && t.err == nil {
		t.err = err
	}
}

// Close flushes and closes the sidecar file, if one was opened.
func (t *Tracker) Close() error {
	if t.w != nil {
		if err := t.w.Flush(); err != nil {
			return err
		}
	}
	if t.f != nil {
		return t.f.Close()
	}
	return t.err
}
