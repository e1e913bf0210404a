package join

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/vinceanalytics/logjoin/internal/pixel"
	"github.com/vinceanalytics/logjoin/internal/session"
	"google.golang.org/protobuf/encoding/protowire"
)

func testCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "test", Help: "test"})
}

func TestAnalyticsJoin(t *testing.T) {
	queries := prometheus.NewCounter(prometheus.CounterOpts{Name: "q", Help: "q"})
	visits := prometheus.NewCounter(prometheus.CounterOpts{Name: "v", Help: "v"})
	target := NewAnalytics(queries, visits)

	s := &session.TrackedSession{UID: "u1", CustomerKey: "CUST1"}
	s.Insert(1000e6, "q", "e1", []pixel.Param{{Name: "qstr~en", Value: "socks"}})
	s.Insert(1001e6, "v", "e2", []pixel.Param{{Name: "i", Value: "p~1"}})
	s.Insert(1002e6, "v", "e3", []pixel.Param{{Name: "i", Value: "p~2"}})
	s.Insert(1003e6, "c", "e4", nil)
	s.Insert(1004e6, "u", "e5", nil)

	data, err := target.Join(s)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	require.Equal(t, float64(1), testutil.ToFloat64(queries))
	require.Equal(t, float64(2), testutil.ToFloat64(visits))

	counts, queryStrings, itemIDs := decodeSummary(t, data)
	require.Equal(t, map[int]uint64{
		sumQueries:    1,
		sumItemVisits: 2,
		sumClicks:     1,
		sumUserUpdate: 1,
	}, counts)
	require.Equal(t, []string{"socks"}, queryStrings)
	require.Equal(t, []string{"p~1", "p~2"}, itemIDs)
}

func TestAnalyticsToleratesDisorder(t *testing.T) {
	target := NewAnalytics(testCounter(), testCounter())
	s := &session.TrackedSession{UID: "u1", CustomerKey: "c"}
	// Duplicate and out-of-order timestamps are the contract, not an edge.
	s.Insert(2000e6, "q", "e1", nil)
	s.Insert(1000e6, "q", "e1", nil)
	s.Insert(1000e6, "q", "e1", nil)
	_, err := target.Join(s)
	require.NoError(t, err)
}

func decodeSummary(t *testing.T, buf []byte) (map[int]uint64, []string, []string) {
	t.Helper()
	counts := make(map[int]uint64)
	var queryStrings, itemIDs []string
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		require.GreaterOrEqual(t, n, 0)
		buf = buf[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			require.GreaterOrEqual(t, n, 0)
			counts[int(num)] = v
			buf = buf[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeString(buf)
			require.GreaterOrEqual(t, n, 0)
			if num == sumQueryStr {
				queryStrings = append(queryStrings, v)
			} else {
				itemIDs = append(itemIDs, v)
			}
			buf = buf[n:]
		default:
			t.Fatalf("unexpected wire type %v", typ)
		}
	}
	return counts, queryStrings, itemIDs
}
