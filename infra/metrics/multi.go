package metrics

import coremetrics "github.com/chauffeurjet/dispatch/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignment(recs []coremetrics.AssignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordFeasibility forwards the record to sinks that track feasibility.
func (m *MultiSink) RecordFeasibility(rec coremetrics.FeasibilityRecord) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(coremetrics.FeasibilityRecorder); ok {
			if err := fr.RecordFeasibility(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSeries forwards the record to sinks that track series expansions.
func (m *MultiSink) RecordSeries(rec coremetrics.SeriesRecord) error {
	for _, s := range m.Sinks {
		if sr, ok := s.(coremetrics.SeriesRecorder); ok {
			if err := sr.RecordSeries(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
