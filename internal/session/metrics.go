package session

import "github.com/prometheus/client_golang/prometheus"

const labelCollection = "collection"

// Metrics counts the failure paths the store degrades through silently.
type Metrics struct {
	PersistFailures *prometheus.CounterVec
	CorruptRecords  *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collection_persist_failures_total",
				Help: "Slot writes that failed and were absorbed in-memory",
			},
			[]string{labelCollection},
		),
		CorruptRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collection_corrupt_records_total",
				Help: "Persisted slots discarded as unparsable during rehydration",
			},
			[]string{labelCollection},
		),
	}

	reg.MustRegister(m.PersistFailures, m.CorruptRecords)
	return m
}
