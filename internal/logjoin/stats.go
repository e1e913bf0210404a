package logjoin

import "github.com/prometheus/client_golang/prometheus"

// Stats are the sessionizer counters. JoinedQueries and JoinedItemVisits
// are owned here but incremented by the join target.
type Stats struct {
	LoglinesTotal    prometheus.Counter
	LoglinesInvalid  prometheus.Counter
	JoinedSessions   prometheus.Counter
	JoinedQueries    prometheus.Counter
	JoinedItemVisits prometheus.Counter
}

func NewStats(namespace string) *Stats {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}
	return &Stats{
		LoglinesTotal:    counter("loglines_total", "Loglines offered to the sessionizer."),
		LoglinesInvalid:  counter("loglines_invalid", "Loglines or stored events that failed to parse."),
		JoinedSessions:   counter("joined_sessions", "Sessions finalized and successfully joined by the join target."),
		JoinedQueries:    counter("joined_queries", "Queries observed in joined sessions."),
		JoinedItemVisits: counter("joined_item_visits", "Item visits observed in joined sessions."),
	}
}

func (s *Stats) Register(r prometheus.Registerer) error {
	for _, c := range s.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stats) MustRegister(r prometheus.Registerer) {
	r.MustRegister(s.collectors()...)
}

func (s *Stats) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.LoglinesTotal,
		s.LoglinesInvalid,
		s.JoinedSessions,
		s.JoinedQueries,
		s.JoinedItemVisits,
	}
}
