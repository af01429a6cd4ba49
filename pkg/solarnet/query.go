package solarnet

import (
	"net/url"
	"strings"

	"github.com/taybkho/CI-CD-Energy/pkg/types"
)

// AggregationNone disables the aggregation query parameter.
const AggregationNone = "None"

// Query describes one datum list request.
type Query struct {
	NodeID      string
	SourceIDs   string
	StartDate   types.ISOTime
	EndDate     types.ISOTime
	Aggregation string
	Max         string
}

// Encode returns the query string for the datum list endpoint. Keys are
// always in alphabetical order with a fixed offset of 0, and aggregation is
// left out entirely when set to AggregationNone.
func (q Query) Encode() string {
	params := make([][2]string, 0, 7)
	if q.Aggregation != AggregationNone {
		params = append(params, [2]string{"aggregation", q.Aggregation})
	}
	params = append(params,
		[2]string{"endDate", q.EndDate.String()},
		[2]string{"max", q.Max},
		[2]string{"nodeId", q.NodeID},
		[2]string{"offset", "0"},
		[2]string{"sourceIds", q.SourceIDs},
		[2]string{"startDate", q.StartDate.String()},
	)

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(uriEncode(p[0]))
		b.WriteByte('=')
		b.WriteString(uriEncode(p[1]))
	}
	return b.String()
}

// uriEncode percent-encodes everything outside the RFC 3986 unreserved set.
func uriEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
