package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	assignmentsTotal  *prometheus.CounterVec
	feasibilityChecks *prometheus.CounterVec
	seriesSize        prometheus.Histogram
	bookingsCreated   prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram, prometheus.Counter) {
	asn := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_assignments_total",
			Help: "Number of vehicle assignment attempts by outcome",
		},
		[]string{"outcome"},
	)
	feas := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feasibility_checks_total",
			Help: "Number of travel-time feasibility checks by status",
		},
		[]string{"status"},
	)
	series := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repeat_series_size",
			Help:    "Number of bookings produced per repeat-series expansion",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 52},
		},
	)
	created := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Number of bookings persisted, returns included",
		},
	)
	return asn, feas, series, created
}

func init() {
	assignmentsTotal, feasibilityChecks, seriesSize, bookingsCreated = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduling metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, feasibilityChecks, seriesSize, bookingsCreated)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	assignmentsTotal, feasibilityChecks, seriesSize, bookingsCreated = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
