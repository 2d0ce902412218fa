package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Transaction kinds
const (
	KindQuery  = "query"
	KindMotion = "motion"
	KindSetup  = "setup"
	KindRaw    = "raw"
)

var (
	registerOnce sync.Once

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imc",
			Name:      "transactions_total",
			Help:      "Serial transactions with the controller.",
		},
		[]string{"controller", "kind", "result"},
	)
	decodeSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imc",
			Subsystem: "poll",
			Name:      "decode_skipped_total",
			Help:      "Position polls whose payload could not be decoded.",
		},
		[]string{"controller"},
	)
	axisPosition = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "imc",
			Subsystem: "axis",
			Name:      "position",
			Help:      "Last polled axis position in controller units.",
		},
		[]string{"controller", "axis"},
	)
	axisMoving = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "imc",
			Subsystem: "axis",
			Name:      "moving",
			Help:      "1 while the axis is believed to be moving.",
		},
		[]string{"controller", "axis"},
	)
)

// RegisterMetrics registers the iMC collectors with the default registry once
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transactions, decodeSkipped, axisPosition, axisMoving)
	})
}

// RecordTransaction counts one controller exchange by kind and outcome
func RecordTransaction(controller, kind string, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	transactions.WithLabelValues(controller, kind, result).Inc()
}

// RecordDecodeSkip counts a poll reply that could not be decoded
func RecordDecodeSkip(controller string) {
	RegisterMetrics()
	decodeSkipped.WithLabelValues(controller).Inc()
}

// SetAxisState publishes the cached position and moving flag of one axis
func SetAxisState(controller, axis string, position float64, moving bool) {
	RegisterMetrics()
	axisPosition.WithLabelValues(controller, axis).Set(position)
	v := 0.0
	if moving {
		v = 1
	}
	axisMoving.WithLabelValues(controller, axis).Set(v)
}
