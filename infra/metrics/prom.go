package metrics

import (
	coremetrics "github.com/chauffeurjet/dispatch/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling outcomes in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	feasibility *prometheus.CounterVec
	seriesSize  prometheus.Histogram
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_events_total",
		Help: "Vehicle assignment decisions recorded by the sink",
	}, []string{"vehicle_id", "outcome"})
	feasibility := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feasibility_events_total",
		Help: "Travel-time feasibility checks recorded by the sink",
	}, []string{"status"})
	seriesSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "series_expansion_size",
		Help:    "Occurrences produced per repeat-series expansion",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 52},
	})

	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(feasibility); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			feasibility = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(seriesSize); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			seriesSize = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{assignments: assignments, feasibility: feasibility, seriesSize: seriesSize}, nil
}

// RecordAssignment increments the assignment counter per record. Rejected
// assignments carry no vehicle and are labelled "none".
func (s *PromSink) RecordAssignment(recs []coremetrics.AssignmentRecord) error {
	for _, r := range recs {
		vehicle := r.VehicleID
		if vehicle == "" {
			vehicle = "none"
		}
		s.assignments.WithLabelValues(vehicle, r.Outcome).Inc()
	}
	return nil
}

// RecordFeasibility increments the feasibility counter.
func (s *PromSink) RecordFeasibility(rec coremetrics.FeasibilityRecord) error {
	s.feasibility.WithLabelValues(rec.Status).Inc()
	return nil
}

// RecordSeries observes the series size.
func (s *PromSink) RecordSeries(rec coremetrics.SeriesRecord) error {
	s.seriesSize.Observe(float64(rec.Size))
	return nil
}
