package scan

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taybkho/CI-CD-Energy/pkg/types"
)

func rec(date, hours string) types.Record {
	return types.Record{
		Created:         date + " 00:00:00.000Z",
		LocalDate:       date,
		LocalTime:       "00:00",
		NodeID:          "123",
		SourceID:        "/S1/IRR",
		Irradiance:      "500",
		IrradianceHours: hours,
	}
}

func collect(t *testing.T, records []types.Record, opts Options) ([]Event, error) {
	t.Helper()
	var (
		events []Event
		err    error
	)
	for ev, e := range Scan(slices.Values(records), opts) {
		if e != nil {
			err = e
			continue
		}
		events = append(events, ev)
	}
	return events, err
}

func TestScanConcreteScenario(t *testing.T) {
	events, err := collect(t, []types.Record{
		{LocalDate: "2024-01-01", IrradianceHours: "10.0"},
		{LocalDate: "2024-01-02", IrradianceHours: "15.0"},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	j, ok := events[0].(Jump)
	require.True(t, ok, "expected a Jump, got %T", events[0])
	assert.Equal(t, 15.0, j.NewMeter)
	assert.Equal(t, 10.0, j.LastMeter)
	assert.Equal(t, "2024-01-02", j.NewMeterDate)
	assert.Equal(t, "2024-01-01", j.LastMeterDate)
	assert.Equal(t, "Jan 01, 2024 00:05:00", j.ResetDateString())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), j.ResetDate)
	assert.Equal(t, "15.0", j.Record.IrradianceHours)
}

func TestScanConstantCounter(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "10.0"),
		rec("2024-01-02", "10.0"),
		rec("2024-01-03", "10"),
		rec("2024-01-04", "1e1"),
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestScanFirstRecordNeverJumps(t *testing.T) {
	events, err := collect(t, []types.Record{rec("2024-01-01", "99.5")}, Options{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestScanEmptyCounterSkipped(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "10.0"),
		rec("2024-01-02", ""),
		rec("2024-01-03", "  \t"),
		rec("2024-01-04", "\x00\u200b"),
		rec("2024-01-05", "12.0"),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	j := events[0].(Jump)
	assert.Equal(t, 10.0, j.LastMeter)
	assert.Equal(t, "2024-01-01", j.LastMeterDate, "skipped records must not move the last date")
	assert.Equal(t, "2024-01-05", j.NewMeterDate)
}

func TestScanInvalidCounter(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "10.0"),
		rec("2024-01-02", "abc"),
		rec("2024-01-03", "10.0"),
		rec("2024-01-04", "0x10"),
		rec("2024-01-05", "11.0"),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, Warning{Kind: WarningInvalidCounter, Value: "abc"}, events[0])
	assert.Equal(t, "Invalid irradianceHours value: abc", events[0].(Warning).Message())
	assert.Equal(t, Warning{Kind: WarningInvalidCounter, Value: "0x10"}, events[1])

	j := events[2].(Jump)
	assert.Equal(t, 10.0, j.LastMeter, "warnings must not update the state")
	assert.Equal(t, "2024-01-03", j.LastMeterDate)
}

func TestScanInvalidCounterBeforeFirst(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "n/a"),
		rec("2024-01-02", "5"),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.IsType(t, Warning{}, events[0])
}

func TestScanStateAdvancesAfterJump(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "10"),
		rec("2024-01-02", "20"),
		rec("2024-01-03", "20"),
		rec("2024-01-04", "5"),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0].(Jump)
	assert.Equal(t, 20.0, first.NewMeter)
	assert.Equal(t, 10.0, first.LastMeter)

	second := events[1].(Jump)
	assert.Equal(t, 5.0, second.NewMeter, "decreases are jumps too")
	assert.Equal(t, 20.0, second.LastMeter)
	assert.Equal(t, "2024-01-03", second.LastMeterDate)
	assert.Equal(t, "Jan 03, 2024 00:05:00", second.ResetDateString())
}

func TestScanExactInequality(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "10.0"),
		rec("2024-01-02", "10.000000000000002"),
	}, Options{})
	require.NoError(t, err)
	assert.Len(t, events, 1, "no epsilon tolerance")
}

func TestScanTrimsFields(t *testing.T) {
	events, err := collect(t, []types.Record{
		rec("2024-01-01", "1"),
		{
			Created:         " 2024-01-02 00:00:00.000Z\r\n",
			LocalDate:       "\t2024-01-02 ",
			LocalTime:       "\ufeff00:00",
			NodeID:          " 123 ",
			SourceID:        "/S1/IRR\x00",
			Irradiance:      " 500 ",
			IrradianceHours: " 2.5\n",
		},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, types.Record{
		Created:         "2024-01-02 00:00:00.000Z",
		LocalDate:       "2024-01-02",
		LocalTime:       "00:00",
		NodeID:          "123",
		SourceID:        "/S1/IRR",
		Irradiance:      "500",
		IrradianceHours: "2.5",
	}, events[0].(Jump).Record)
}

func TestScanInvalidLastDate(t *testing.T) {
	records := []types.Record{
		rec("01/01/2024", "10"),
		rec("2024-01-02", "11"),
		rec("2024-01-03", "12"),
	}

	t.Run("fails fast by default", func(t *testing.T) {
		events, err := collect(t, records, Options{})
		require.Error(t, err)
		assert.Empty(t, events)
		assert.True(t, errors.Is(err, ErrInvalidDate))

		var de *DateError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "01/01/2024", de.Date)
	})

	t.Run("stops after the error", func(t *testing.T) {
		var n int
		for _, err := range Scan(slices.Values(records), Options{}) {
			n++
			require.Error(t, err)
		}
		assert.Equal(t, 1, n)
	})

	t.Run("skip turns it into a warning", func(t *testing.T) {
		events, err := collect(t, records, Options{SkipInvalidDates: true})
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, Warning{Kind: WarningInvalidDate, Value: "01/01/2024"}, events[0])
		assert.Equal(t, "Invalid last meter date: 01/01/2024", events[0].(Warning).Message())

		j := events[1].(Jump)
		assert.Equal(t, 11.0, j.LastMeter, "state advances past the skipped record")
		assert.Equal(t, "2024-01-02", j.LastMeterDate)
	})

	t.Run("unchanged counter never parses the date", func(t *testing.T) {
		events, err := collect(t, []types.Record{
			rec("garbage", "10"),
			rec("2024-01-02", "10"),
		}, Options{})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestScanEarlyStop(t *testing.T) {
	records := []types.Record{
		rec("2024-01-01", "1"),
		rec("2024-01-02", "2"),
		rec("2024-01-03", "3"),
		rec("2024-01-04", "4"),
	}
	var n int
	for range Scan(slices.Values(records), Options{}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestScanEmpty(t *testing.T) {
	events, err := collect(t, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStateStep(t *testing.T) {
	var s State
	_, _, ok := s.Last()
	assert.False(t, ok)

	s, ev, err := s.Step(rec("2024-01-01", "3"), Options{})
	require.NoError(t, err)
	assert.Nil(t, ev)
	v, d, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, "2024-01-01", d)

	s2, ev, err := s.Step(rec("2024-01-02", ""), Options{})
	require.NoError(t, err)
	assert.Nil(t, ev)
	assert.Equal(t, s, s2)

	s3, ev, err := s.Step(rec("2024-01-02", "bad"), Options{})
	require.NoError(t, err)
	assert.NotNil(t, ev)
	assert.Equal(t, s, s3)
}

func TestParseCounter(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"10.0", 10, false},
		{"-3.25", -3.25, false},
		{"1e3", 1000, false},
		{".5", 0.5, false},
		{"abc", 0, true},
		{"0x1p-2", 0, true},
		{"1,5", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCounter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("overflow", func(t *testing.T) {
		got, err := ParseCounter("1e400")
		require.NoError(t, err)
		assert.True(t, got > 1e308)
	})
}
