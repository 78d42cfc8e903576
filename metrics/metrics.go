package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exit reasons recorded for pumped inputs.
const (
	ReasonStopped     = "stopped"
	ReasonInterrupted = "interrupted"
	ReasonFailed      = "failed"
)

// PumpMetrics holds the collectors for pumped inputs.
type PumpMetrics struct {
	Chunks *prometheus.CounterVec
	Bytes  *prometheus.CounterVec
	Exits  *prometheus.CounterVec
}

var (
	metrics  = newPumpMetrics()
	register sync.Once
)

func newPumpMetrics() *PumpMetrics {
	return &PumpMetrics{
		Chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pumper",
				Name:      "chunks_total",
				Help:      "chunks delivered by pumped inputs",
			},
			[]string{"input"},
		),
		Bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pumper",
				Name:      "bytes_total",
				Help:      "bytes delivered by pumped inputs",
			},
			[]string{"input"},
		),
		Exits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pumper",
				Name:      "pump_exits_total",
				Help:      "pump exits by reason",
			},
			[]string{"input", "reason"},
		),
	}
}

// Get returns the process wide PumpMetrics.
func Get() *PumpMetrics {
	return metrics
}

// Register registers the pump collectors once with reg.
func Register(reg prometheus.Registerer) (err error) {
	register.Do(func() {
		for _, c := range []prometheus.Collector{metrics.Chunks, metrics.Bytes, metrics.Exits} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})
	return
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveChunk records a delivered chunk of n bytes.
func (m *PumpMetrics) ObserveChunk(input string, n int) {
	m.Chunks.WithLabelValues(input).Inc()
	m.Bytes.WithLabelValues(input).Add(float64(n))
}

// ObserveExit records a pump exit.
func (m *PumpMetrics) ObserveExit(input, reason string) {
	m.Exits.WithLabelValues(input, reason).Inc()
}
