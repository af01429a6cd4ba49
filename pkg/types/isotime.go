package types

import (
	"fmt"
	"strings"
	"time"
)

// ISOTime is a date-time supplied on the command line. It remembers whether
// the input carried a UTC offset so it can be rendered back the same way.
type ISOTime struct {
	time.Time
	HasZone bool
}

var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{"2006-01-02T15:04:05Z07:00", true},
	{"2006-01-02T15:04:05Z0700", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04", false},
	{"2006-01-02T15", false},
	{"2006-01-02", false},
}

// ParseISOTime parses an ISO-8601 date or date-time. A space is accepted in
// place of the T separator and fractional seconds are allowed after the
// seconds field.
func ParseISOTime(s string) (ISOTime, error) {
	v := s
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, v)
		} else {
			t, err = time.ParseInLocation(l.layout, v, time.UTC)
		}
		if err == nil {
			return ISOTime{Time: t, HasZone: l.zoned}, nil
		}
	}
	return ISOTime{}, fmt.Errorf("Invalid date format: %s. Expected format: YYYY-MM-DDTHH:MM:SS", s)
}

// String renders the time as YYYY-MM-DDTHH:MM:SS, adding microseconds only
// when present and the offset only when the input had one.
func (t ISOTime) String() string {
	if t.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.Format("2006-01-02T15:04:05"))
	if us := t.Nanosecond() / int(time.Microsecond); us != 0 {
		fmt.Fprintf(&b, ".%06d", us)
	}
	if t.HasZone {
		b.WriteString(t.Format("-07:00"))
	}
	return b.String()
}
