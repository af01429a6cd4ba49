package types

import (
	"encoding/json"
	"strconv"
)

// Record is one datum row returned by the SolarNetwork datum list API.
// Values are kept exactly as delivered so that the report reproduces them
// verbatim; numeric JSON values keep their textual form.
type Record struct {
	Created         string `json:"created"`
	LocalDate       string `json:"localDate"`
	LocalTime       string `json:"localTime"`
	NodeID          string `json:"nodeId"`
	SourceID        string `json:"sourceId"`
	Irradiance      string `json:"irradiance"`
	IrradianceHours string `json:"irradianceHours"`
}

// UnmarshalJSON decodes a datum object whose properties may be strings,
// numbers or null. Missing and null properties become empty strings.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	fields := []struct {
		key string
		dst *string
	}{
		{"created", &r.Created},
		{"localDate", &r.LocalDate},
		{"localTime", &r.LocalTime},
		{"nodeId", &r.NodeID},
		{"sourceId", &r.SourceID},
		{"irradiance", &r.Irradiance},
		{"irradianceHours", &r.IrradianceHours},
	}
	for _, f := range fields {
		s, err := rawString(raw[f.key])
		if err != nil {
			return err
		}
		*f.dst = s
	}
	return nil
}

func rawString(v json.RawMessage) (string, error) {
	if len(v) == 0 || string(v) == "null" {
		return "", nil
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default:
		// numbers, and anything nested, keep their JSON text
		return string(v), nil
	}
}
