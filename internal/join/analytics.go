package join

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vinceanalytics/logjoin/internal/session"
	"google.golang.org/protobuf/encoding/protowire"
)

// Summary wire fields.
const (
	sumQueries    = 1
	sumItemVisits = 2
	sumClicks     = 3
	sumUserUpdate = 4
	sumQueryStr   = 5
	sumItemID     = 6
)

// Analytics is the default join target. It reduces a session to per-type
// event counts plus the observed query strings and visited item ids, and
// reports joined queries and item visits on the sessionizer counters.
type Analytics struct {
	joinedQueries    prometheus.Counter
	joinedItemVisits prometheus.Counter
}

func NewAnalytics(joinedQueries, joinedItemVisits prometheus.Counter) *Analytics {
	return &Analytics{
		joinedQueries:    joinedQueries,
		joinedItemVisits: joinedItemVisits,
	}
}

var _ Target = (*Analytics)(nil)

func (a *Analytics) Join(s *session.TrackedSession) ([]byte, error) {
	var queries, visits, clicks, updates uint64
	var queryStrings, itemIDs []string
	for _, e := range s.Events {
		switch e.Type {
		case "q":
			queries++
			for _, p := range e.Params {
				if strings.HasPrefix(p.Name, "qstr") {
					queryStrings = append(queryStrings, p.Value)
				}
			}
		case "v":
			visits++
			for _, p := range e.Params {
				if p.Name == "i" {
					itemIDs = append(itemIDs, p.Value)
				}
			}
		case "c":
			clicks++
		case "u":
			updates++
		}
	}

	buf := protowire.AppendTag(nil, sumQueries, protowire.VarintType)
	buf = protowire.AppendVarint(buf, queries)
	buf = protowire.AppendTag(buf, sumItemVisits, protowire.VarintType)
	buf = protowire.AppendVarint(buf, visits)
	buf = protowire.AppendTag(buf, sumClicks, protowire.VarintType)
	buf = protowire.AppendVarint(buf, clicks)
	buf = protowire.AppendTag(buf, sumUserUpdate, protowire.VarintType)
	buf = protowire.AppendVarint(buf, updates)
	for _, q := range queryStrings {
		buf = protowire.AppendTag(buf, sumQueryStr, protowire.BytesType)
		buf = protowire.AppendString(buf, q)
	}
	for _, i := range itemIDs {
		buf = protowire.AppendTag(buf, sumItemID, protowire.BytesType)
		buf = protowire.AppendString(buf, i)
	}

	if a.joinedQueries != nil {
		a.joinedQueries.Add(float64(queries))
	}
	if a.joinedItemVisits != nil {
		a.joinedItemVisits.Add(float64(visits))
	}
	return buf, nil
}
