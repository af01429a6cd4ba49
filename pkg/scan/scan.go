// Package scan detects discontinuities in the cumulative irradianceHours
// counter of a sequence of datum records.
//
// The scan is a lazy fold: each record is trimmed, its counter parsed, and
// compared with the counter of the previous valid record. A changed counter
// is reported as a Jump, an unparseable one as a Warning. Nothing is
// printed here; see package report for the output format.
package scan

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/taybkho/CI-CD-Energy/pkg/types"
)

const (
	// LocalDateLayout is the layout of a record's localDate.
	LocalDateLayout = "2006-01-02"
	// ResetDateLayout renders reset dates, e.g. "Jan 01, 2024 00:05:00".
	ResetDateLayout = "Jan 02, 2006 15:04:05"
	// ResetOffset is added to the last meter date to get the reset date.
	ResetOffset = 5 * time.Minute
)

// ErrInvalidDate is matched by the *DateError returned when a last meter
// date can't be parsed.
var ErrInvalidDate = errors.New("invalid last meter date")

// DateError reports a last meter date that isn't YYYY-MM-DD.
type DateError struct {
	Date string
	Err  error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrInvalidDate, e.Date, e.Err)
}

func (e *DateError) Unwrap() []error {
	return []error{ErrInvalidDate, e.Err}
}

// Options controls how the scan treats bad data.
type Options struct {
	// SkipInvalidDates turns a malformed last meter date into a Warning for
	// that record instead of stopping the scan with a *DateError.
	SkipInvalidDates bool
}

// Event is either a Warning or a Jump.
type Event interface {
	event()
}

// WarningKind says which value a Warning is about.
type WarningKind int

const (
	WarningInvalidCounter WarningKind = iota
	WarningInvalidDate
)

// Warning is emitted for a record that was skipped.
type Warning struct {
	Kind  WarningKind
	Value string
}

func (Warning) event() {}

// Message is the human readable warning line.
func (w Warning) Message() string {
	switch w.Kind {
	case WarningInvalidDate:
		return "Invalid last meter date: " + w.Value
	default:
		return "Invalid irradianceHours value: " + w.Value
	}
}

// Jump is emitted when a record's counter differs from the previous valid
// record's counter.
type Jump struct {
	// Record holds the current record with every field trimmed.
	Record        types.Record
	NewMeter      float64
	LastMeter     float64
	NewMeterDate  string
	LastMeterDate string
	ResetDate     time.Time
}

func (Jump) event() {}

// ResetDateString renders ResetDate with ResetDateLayout.
func (j Jump) ResetDateString() string {
	return j.ResetDate.Format(ResetDateLayout)
}

type reading struct {
	value float64
	date  string
}

// State is the scan's memory: the counter and local date of the last record
// that had a valid counter. The zero value has no prior reading.
type State struct {
	last *reading
}

// Last returns the last valid counter and its date, and false when no
// record has been accepted yet.
func (s State) Last() (float64, string, bool) {
	if s.last == nil {
		return 0, "", false
	}
	return s.last.value, s.last.date, true
}

// Step processes one record and returns the next state along with the event
// for the record, if any. The state advances for every record whose counter
// parses, whether or not it produced a Jump. A non-nil error leaves the
// state unchanged.
func (s State) Step(rec types.Record, opts Options) (State, Event, error) {
	rec = Trim(rec)
	if rec.IrradianceHours == "" {
		return s, nil, nil
	}

	current, err := ParseCounter(rec.IrradianceHours)
	if err != nil {
		return s, Warning{Kind: WarningInvalidCounter, Value: rec.IrradianceHours}, nil
	}

	next := State{last: &reading{value: current, date: rec.LocalDate}}
	if s.last == nil || current == s.last.value {
		return next, nil, nil
	}

	lastDate, err := time.Parse(LocalDateLayout, s.last.date)
	if err != nil {
		if opts.SkipInvalidDates {
			return next, Warning{Kind: WarningInvalidDate, Value: s.last.date}, nil
		}
		return s, nil, &DateError{Date: s.last.date, Err: err}
	}

	return next, Jump{
		Record:        rec,
		NewMeter:      current,
		LastMeter:     s.last.value,
		NewMeterDate:  rec.LocalDate,
		LastMeterDate: s.last.date,
		ResetDate:     lastDate.Add(ResetOffset),
	}, nil
}

// Scan lazily folds Step over records, yielding each event. When Step fails
// the error is yielded once and the sequence ends.
func Scan(records iter.Seq[types.Record], opts Options) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		var state State
		for rec := range records {
			next, ev, err := state.Step(rec, opts)
			if err != nil {
				yield(nil, err)
				return
			}
			state = next
			if ev != nil && !yield(ev, nil) {
				return
			}
		}
	}
}

// Trim strips leading and trailing whitespace and non-printable characters
// from every field of the record.
func Trim(rec types.Record) types.Record {
	return types.Record{
		Created:         trimField(rec.Created),
		LocalDate:       trimField(rec.LocalDate),
		LocalTime:       trimField(rec.LocalTime),
		NodeID:          trimField(rec.NodeID),
		SourceID:        trimField(rec.SourceID),
		Irradiance:      trimField(rec.Irradiance),
		IrradianceHours: trimField(rec.IrradianceHours),
	}
}

func trimField(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	})
}

// ParseCounter parses a decimal counter value. Values too large for a
// float64 become ±Inf; hexadecimal notation is rejected.
func ParseCounter(s string) (float64, error) {
	if strings.ContainsAny(s, "xX") {
		return 0, fmt.Errorf("invalid counter %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		return 0, err
	}
	return v, nil
}
