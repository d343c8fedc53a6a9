package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/chauffeurjet/dispatch/core/metrics"
)

func TestInfluxSink_RecordAssignment(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	rec := coremetrics.AssignmentRecord{
		BookingID:     "b1",
		VehicleID:     "v2",
		RequestedID:   "v1",
		VehicleTypeID: "exec",
		Outcome:       "auto_allocated",
		Conflicts:     1,
		Time:          now,
	}

	if err := sink.RecordAssignment([]coremetrics.AssignmentRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("assignment_event").
		AddTag("outcome", "auto_allocated").
		AddTag("vehicle_type", "exec").
		AddTag("auto_allocated", "true").
		AddTag("component", "booking_manager").
		AddField("booking_id", "b1").
		AddField("vehicle_id", "v2").
		AddField("requested_vehicle_id", "v1").
		AddField("conflicts", 1).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
