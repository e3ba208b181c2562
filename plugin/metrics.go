package plugin

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RobertWHurst/ndstream"
)

// Metrics holds the Prometheus metrics of one plugin instance. Every metric
// carries a port label with the plugin's port name.
type Metrics struct {
	arraysSent       prometheus.Counter
	arraysDropped    prometheus.Counter
	encodedBytes     prometheus.Histogram
	connectionStatus prometheus.Gauge
	unsentMessages   prometheus.Gauge
}

// NewMetrics creates the metrics for portName and registers them with reg.
func NewMetrics(reg prometheus.Registerer, portName string) (*Metrics, error) {
	labels := prometheus.Labels{"port": portName}
	m := &Metrics{
		arraysSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ndstream",
			Name:        "arrays_sent_total",
			Help:        "Arrays handed to the broker connection",
			ConstLabels: labels,
		}),
		arraysDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ndstream",
			Name:        "arrays_dropped_total",
			Help:        "Arrays that could not be encoded or sent",
			ConstLabels: labels,
		}),
		encodedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "ndstream",
			Name:        "encoded_message_bytes",
			Help:        "Size of encoded array messages",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		connectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "ndstream",
			Name:        "connection_status",
			Help:        "Broker connection status: 0 connected, 1 connecting, 2 disconnected, 3 error",
			ConstLabels: labels,
		}),
		unsentMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "ndstream",
			Name:        "unsent_messages",
			Help:        "Messages queued locally and not yet delivered",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{m.arraysSent, m.arraysDropped, m.encodedBytes, m.connectionStatus, m.unsentMessages} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics for %s: %w", portName, err)
		}
	}
	m.connectionStatus.Set(float64(ndstream.StatusDisconnected))
	return m, nil
}

func (m *Metrics) observeStatus(s ndstream.Status) {
	m.connectionStatus.Set(float64(s.State))
	m.unsentMessages.Set(float64(s.Unsent))
}
