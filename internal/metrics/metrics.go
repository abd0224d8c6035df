// Package metrics provides Prometheus metrics for the accelerator service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandDuration tracks host command handling duration in seconds.
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slcrypto_command_duration_seconds",
			Help:    "Duration of host command handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command", "code"},
	)

	// CommandTotal tracks the total number of host commands handled.
	CommandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slcrypto_commands_total",
			Help: "Total number of host commands handled",
		},
		[]string{"command", "code"},
	)

	// DeviceBusyTotal tracks commands rejected because no device was free.
	DeviceBusyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slcrypto_device_busy_total",
			Help: "Total number of commands rejected with a busy device",
		},
		[]string{"command"},
	)

	// InflightRequests tracks host commands currently being handled.
	InflightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slcrypto_inflight_requests",
			Help: "Number of host commands currently being handled",
		},
	)
)

// RecordCommand records one handled command with its response code and duration.
func RecordCommand(command, code string, seconds float64) {
	CommandDuration.WithLabelValues(command, code).Observe(seconds)
	CommandTotal.WithLabelValues(command, code).Inc()
}

// RecordDeviceBusy records a command turned away by device arbitration.
func RecordDeviceBusy(command string) {
	DeviceBusyTotal.WithLabelValues(command).Inc()
}

// RequestStarted increments the in-flight request gauge.
func RequestStarted() {
	InflightRequests.Inc()
}

// RequestDone decrements the in-flight request gauge.
func RequestDone() {
	InflightRequests.Dec()
}
