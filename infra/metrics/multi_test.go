package metrics

import (
	"testing"
	"time"

	coremetrics "github.com/chauffeurjet/dispatch/core/metrics"
)

type countingSink struct {
	assignments int
	feasibility int
	series      int
}

func (s *countingSink) RecordAssignment(recs []coremetrics.AssignmentRecord) error {
	s.assignments += len(recs)
	return nil
}

func (s *countingSink) RecordFeasibility(coremetrics.FeasibilityRecord) error {
	s.feasibility++
	return nil
}

func (s *countingSink) RecordSeries(coremetrics.SeriesRecord) error {
	s.series++
	return nil
}

func TestMultiSinkFanOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	m := NewMultiSink(a, b, coremetrics.NopSink{})

	now := time.Now()
	if err := m.RecordAssignment([]coremetrics.AssignmentRecord{{BookingID: "b1", Outcome: "assigned", Time: now}}); err != nil {
		t.Fatalf("assignment: %v", err)
	}
	if err := m.RecordFeasibility(coremetrics.FeasibilityRecord{Status: "feasible", Time: now}); err != nil {
		t.Fatalf("feasibility: %v", err)
	}
	if err := m.RecordSeries(coremetrics.SeriesRecord{GroupID: "g", Size: 3, Time: now}); err != nil {
		t.Fatalf("series: %v", err)
	}

	for i, s := range []*countingSink{a, b} {
		if s.assignments != 1 || s.feasibility != 1 || s.series != 1 {
			t.Errorf("sink %d counts = %+v, want 1/1/1", i, *s)
		}
	}
}
