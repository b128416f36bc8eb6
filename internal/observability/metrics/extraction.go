package metrics

import "github.com/prometheus/client_golang/prometheus"

// ExtractionMetrics counts per-field extraction hits and correction memory
// decisions. It satisfies ports.ExtractionObserver.
type ExtractionMetrics struct {
	service string

	fieldsTotal    *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
}

func NewExtractionMetrics(service string, registerer prometheus.Registerer) *ExtractionMetrics {
	fieldsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "fields_total",
			Help:      "Extracted invoice fields by field type and whether a value was found.",
		},
		[]string{"service", "field", "found"},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "corrections",
			Name:      "decisions_total",
			Help:      "Correction memory decisions by field type.",
		},
		[]string{"service", "field", "decision"},
	)
	registerer.MustRegister(fieldsTotal, decisionsTotal)

	return &ExtractionMetrics{
		service:        service,
		fieldsTotal:    fieldsTotal,
		decisionsTotal: decisionsTotal,
	}
}

func (m *ExtractionMetrics) RecordFieldExtraction(field string, found bool) {
	if field == "" {
		field = "unknown"
	}
	label := "false"
	if found {
		label = "true"
	}
	m.fieldsTotal.WithLabelValues(m.service, field, label).Inc()
}

func (m *ExtractionMetrics) RecordCorrectionDecision(field, decision string) {
	if field == "" {
		field = "unknown"
	}
	if decision == "" {
		decision = "unknown"
	}
	m.decisionsTotal.WithLabelValues(m.service, field, decision).Inc()
}
