package report

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/taybkho/CI-CD-Energy/pkg/scan"
)

// Header names the twelve columns of a jump line.
const Header = "Created,localDate,localTime,nodeId,sourceId,irradiance,irradianceHours,new_meter,last_meter,new_meter_date,last_meter_date,reset_date"

// Summary counts what was written.
type Summary struct {
	Jumps    int
	Warnings int
}

// Writer prints the header followed by one line per scan event. Fields are
// joined with commas and never quoted.
type Writer struct {
	w         *bufio.Writer
	wroteHead bool
	summary   Summary
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line. Only the first call writes anything.
func (w *Writer) WriteHeader() error {
	if w.wroteHead {
		return nil
	}
	w.wroteHead = true
	if _, err := fmt.Fprintln(w.w, Header); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteEvent writes the line for a single event, writing the header first
// if it hasn't been written yet.
func (w *Writer) WriteEvent(ev scan.Event) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	switch e := ev.(type) {
	case scan.Jump:
		w.summary.Jumps++
		_, err := fmt.Fprintln(w.w, JumpLine(e))
		return err
	case scan.Warning:
		w.summary.Warnings++
		_, err := fmt.Fprintln(w.w, e.Message())
		return err
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}
}

// WriteAll writes the header and then every event in seq. It stops at the
// first error from the sequence or the underlying writer; lines written
// before the error are flushed.
func (w *Writer) WriteAll(seq iter.Seq2[scan.Event, error]) (Summary, error) {
	if err := w.WriteHeader(); err != nil {
		return w.summary, err
	}
	for ev, err := range seq {
		if err != nil {
			if ferr := w.w.Flush(); ferr != nil {
				return w.summary, ferr
			}
			return w.summary, err
		}
		if err := w.WriteEvent(ev); err != nil {
			return w.summary, err
		}
	}
	return w.summary, w.w.Flush()
}

// Flush writes any buffered lines to the underlying writer. WriteAll
// flushes on its own; callers using WriteEvent directly must call it.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Summary returns the counts so far.
func (w *Writer) Summary() Summary {
	return w.summary
}

// JumpLine formats a jump as a report line.
func JumpLine(j scan.Jump) string {
	r := j.Record
	return strings.Join([]string{
		r.Created,
		r.LocalDate,
		r.LocalTime,
		r.NodeID,
		r.SourceID,
		r.Irradiance,
		r.IrradianceHours,
		scan.FormatMeter(j.NewMeter),
		scan.FormatMeter(j.LastMeter),
		j.NewMeterDate,
		j.LastMeterDate,
		j.ResetDateString(),
	}, ",")
}
