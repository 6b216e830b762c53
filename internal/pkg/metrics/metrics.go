// Package metrics defines the Prometheus metrics of the EFLS bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "efls_bridge"

// Registry holds every bridge metric plus the Go and process collectors.
// It is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// ReconcileTicks counts reconciliation ticks.
	ReconcileTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_ticks_total",
			Help:      "Total number of reconciliation ticks.",
		},
	)

	// FetchAttempts counts mission downloads by result (started, complete, timeout, anomaly).
	FetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mission_fetch_total",
			Help:      "Mission downloads by result.",
		},
		[]string{"result"},
	)

	// Splices counts splice attempts by result (success, no_anchor, empty_plan, error).
	Splices = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splice_total",
			Help:      "Landing plan splices by result.",
		},
		[]string{"result"},
	)

	// ExchangeErrors counts exchange channel failures by operation (write, read, clear).
	ExchangeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_errors_total",
			Help:      "Exchange channel failures by operation.",
		},
		[]string{"op"},
	)

	// VehicleCommands counts commands sent to the vehicle by type and status (success, failed).
	VehicleCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_commands_total",
			Help:      "Commands sent to the vehicle by type and status.",
		},
		[]string{"type", "status"},
	)

	// MissionItems is the size of the last downloaded mission.
	MissionItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mission_items",
			Help:      "Number of items of the last downloaded mission.",
		},
	)

	// DroppedEvents counts vehicle events dropped because the event queue was full.
	DroppedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Vehicle events dropped because the queue was full.",
		},
	)

	// VehicleLinkUp is 1 while the MQTT vehicle link is connected.
	VehicleLinkUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicle_link_up",
			Help:      "The connectivity status of the MQTT vehicle link (1=Up, 0=Down).",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ReconcileTicks,
		FetchAttempts,
		Splices,
		ExchangeErrors,
		VehicleCommands,
		MissionItems,
		DroppedEvents,
		VehicleLinkUp,
	)
}

// CommandStatus maps an error to the status label of VehicleCommands.
func CommandStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
