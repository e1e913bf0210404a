package tracker

import "github.com/prometheus/client_golang/prometheus"

// Stats are the servlet-level counters, separate from the sessionizer's:
// they track the ingress edge, not the join.
type Stats struct {
	RPCRequestsTotal       prometheus.Counter
	RPCErrorsTotal         prometheus.Counter
	LoglinesTotal          prometheus.Counter
	LoglinesVersionTooOld  prometheus.Counter
	LoglinesInvalid        prometheus.Counter
	LoglinesWrittenSuccess prometheus.Counter
	LoglinesWrittenFailure prometheus.Counter
}

func newStats() *Stats {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      name,
			Help:      help,
		})
	}
	return &Stats{
		RPCRequestsTotal:       counter("rpc_requests_total", "Requests served by the tracker servlet."),
		RPCErrorsTotal:         counter("rpc_errors_total", "Requests answered with an error status."),
		LoglinesTotal:          counter("loglines_total", "Tracking pixels offered to the servlet."),
		LoglinesVersionTooOld:  counter("loglines_versiontooold", "Pixels rejected by the version gate."),
		LoglinesInvalid:        counter("loglines_invalid", "Pixels that failed validation."),
		LoglinesWrittenSuccess: counter("loglines_written_success", "Loglines appended to the ingest feed."),
		LoglinesWrittenFailure: counter("loglines_written_failure", "Loglines dropped because the feed was full."),
	}
}

func (s *Stats) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		s.RPCRequestsTotal,
		s.RPCErrorsTotal,
		s.LoglinesTotal,
		s.LoglinesVersionTooOld,
		s.LoglinesInvalid,
		s.LoglinesWrittenSuccess,
		s.LoglinesWrittenFailure,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
