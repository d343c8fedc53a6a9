// Package metrics defines the sink contracts for recording scheduling
// outcomes. Implementations live under infra/metrics.
package metrics

import (
	"time"

	"github.com/chauffeurjet/dispatch/core/factory"
)

// AssignmentRecord captures one vehicle-assignment decision.
type AssignmentRecord struct {
	BookingID     string
	VehicleID     string // empty when the assignment was rejected
	RequestedID   string
	VehicleTypeID string
	Outcome       string // "assigned", "auto_allocated" or "rejected"
	Conflicts     int    // blocking bookings seen on the requested vehicle
	Time          time.Time
}

// FeasibilityRecord captures one travel-time feasibility check.
type FeasibilityRecord struct {
	VehicleID string
	Status    string // "feasible", "infeasible" or "unknown"
	Warnings  int
	Time      time.Time
}

// SeriesRecord captures one repeat-series expansion.
type SeriesRecord struct {
	GroupID string
	Size    int
	Returns int
	Time    time.Time
}

// MetricsSink records assignment decisions for observability purposes.
type MetricsSink interface {
	RecordAssignment(recs []AssignmentRecord) error
}

// FeasibilityRecorder is implemented by sinks that track feasibility checks.
type FeasibilityRecorder interface {
	RecordFeasibility(rec FeasibilityRecord) error
}

// SeriesRecorder is implemented by sinks that track series expansions.
type SeriesRecorder interface {
	RecordSeries(rec SeriesRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordAssignment([]AssignmentRecord) error { return nil }
func (NopSink) RecordFeasibility(FeasibilityRecord) error { return nil }
func (NopSink) RecordSeries(SeriesRecord) error           { return nil }

// Config selects the concrete sinks by module type ("nop", "prometheus",
// "influx"). PrometheusPort is used by the metrics HTTP server when a
// prometheus sink is configured.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusPort string                 `json:"prometheus_port"`
}
