package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/chauffeurjet/dispatch/core/metrics"
	"github.com/chauffeurjet/dispatch/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing time-series backend never
// blocks scheduling.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignment writes each assignment decision as a point.
func (s *InfluxSink) RecordAssignment(recs []coremetrics.AssignmentRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("assignment_event").
			AddTag("outcome", r.Outcome).
			AddTag("vehicle_type", r.VehicleTypeID).
			AddTag("auto_allocated", strconv.FormatBool(r.Outcome == "auto_allocated")).
			AddTag("component", "booking_manager").
			AddField("booking_id", r.BookingID).
			AddField("vehicle_id", r.VehicleID).
			AddField("requested_vehicle_id", r.RequestedID).
			AddField("conflicts", r.Conflicts).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordFeasibility writes one feasibility check outcome.
func (s *InfluxSink) RecordFeasibility(rec coremetrics.FeasibilityRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("feasibility_check").
		AddTag("status", rec.Status).
		AddTag("component", "booking_manager").
		AddField("vehicle_id", rec.VehicleID).
		AddField("warnings", rec.Warnings).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSeries writes one repeat-series expansion.
func (s *InfluxSink) RecordSeries(rec coremetrics.SeriesRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("series_expansion").
		AddTag("component", "booking_manager").
		AddField("group_id", rec.GroupID).
		AddField("size", rec.Size).
		AddField("returns", rec.Returns).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
