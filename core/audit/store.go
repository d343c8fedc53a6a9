// Package audit persists a queryable trail of scheduling decisions.
package audit

import (
	"context"
	"time"
)

// Record captures one scheduling decision and its outcome.
type Record struct {
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation"` // create, assign, series, delete
	BookingID string            `json:"booking_id"`
	VehicleID string            `json:"vehicle_id,omitempty"`
	Outcome   string            `json:"outcome"`
	Details   map[string]string `json:"details,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	BookingID string
	VehicleID string
	Operation string
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.BookingID != "" && r.BookingID != q.BookingID {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Operation != "" && r.Operation != q.Operation {
		return false
	}
	return true
}

// LogStore persists Records and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
