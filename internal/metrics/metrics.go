// Package metrics defines the Prometheus collectors exported by the
// lampsmart bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsBuiltTotal counts encoded packets by opcode name
	PacketsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lampsmart_packets_built_total",
			Help: "Total number of command packets encoded",
		},
		[]string{"opcode"},
	)

	// TransmissionsTotal counts advertise cycles by outcome
	TransmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lampsmart_transmissions_total",
			Help: "Total number of advertise cycles by outcome",
		},
		[]string{"status"},
	)

	// RadioErrorsTotal counts failed radio steps
	RadioErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lampsmart_radio_errors_total",
			Help: "Total number of failed radio operations by step",
		},
		[]string{"op"},
	)

	// TransmissionDurationSeconds measures full configure/start/hold/stop cycles
	TransmissionDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lampsmart_transmission_duration_seconds",
			Help:    "Wall time of one advertise cycle including hold",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// RadioWaitSeconds measures time spent waiting for the radio lock
	RadioWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lampsmart_radio_wait_seconds",
			Help:    "Time spent waiting for exclusive access to the radio",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
	)

	// CommandsTotal counts entity-level commands by device kind and action
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lampsmart_commands_total",
			Help: "Total number of device commands by kind and action",
		},
		[]string{"kind", "action"},
	)

	// EventSubscribers tracks connected WebSocket event subscribers
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lampsmart_event_subscribers",
			Help: "Number of connected transmission event subscribers",
		},
	)
)

// Transmission outcome labels
const (
	StatusOK    = "ok"
	StatusError = "error"
)
