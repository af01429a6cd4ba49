package scan

import (
	"math"
	"strconv"
	"strings"
)

// FormatMeter renders a counter the way the report has always shown them:
// shortest round-trip digits, always with a decimal point ("10.0"), and
// exponent notation outside [1e-4, 1e16).
func FormatMeter(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	e := strconv.FormatFloat(v, 'e', -1, 64)
	if v != 0 {
		exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if err == nil && (exp < -4 || exp >= 16) {
			return e
		}
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
