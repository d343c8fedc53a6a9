package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBooking wraps every validation failure so callers can match the
// whole class.
var ErrInvalidBooking = errors.New("invalid booking")

// Booking represents a single chauffeured journey occupying a vehicle for a
// bounded interval of time.
type Booking struct {
	ID        string `json:"id"`
	DisplayID string `json:"display_id"` // short human code, e.g. CJ-042

	VehicleID     string `json:"vehicle_id,omitempty"` // empty until assigned
	VehicleTypeID string `json:"vehicle_type_id"`

	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`

	Pickup  string   `json:"pickup_location"`
	Dropoff string   `json:"dropoff_location"`
	Stops   []string `json:"additional_stops,omitempty"`

	// Flight is passed through untouched; the scheduling core never
	// interprets it.
	Flight *FlightInfo `json:"flight_info,omitempty"`

	IsReturn        bool   `json:"is_return"`
	LinkedBookingID string `json:"linked_booking_id,omitempty"`

	RepeatGroupID string `json:"repeat_group_id,omitempty"`
	RepeatIndex   int    `json:"repeat_index,omitempty"` // 1-based
	RepeatTotal   int    `json:"repeat_total,omitempty"`

	ClientID string `json:"client_id,omitempty"` // opaque billing reference
}

// FlightInfo carries airline details attached to airport journeys. Opaque to
// the engine.
type FlightInfo struct {
	Number    string `json:"number"`
	Airline   string `json:"airline,omitempty"`
	Direction string `json:"direction,omitempty"` // arrival or departure
	Terminal  string `json:"terminal,omitempty"`
}

// Interval is the closed-open time range [Start, End) a booking occupies on a
// vehicle.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Interval computes the occupied interval from StartTime and DurationMinutes.
func (b Booking) Interval() Interval {
	return Interval{
		Start: b.StartTime,
		End:   b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute),
	}
}

// Overlaps reports whether two intervals intersect under closed-open
// semantics: an interval ending exactly when another starts does not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Validate checks that the booking fields are sound before it enters the
// timetable.
func (b Booking) Validate() error {
	if b.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidBooking, b.DurationMinutes)
	}
	if b.VehicleTypeID == "" {
		return fmt.Errorf("%w: vehicle type is required", ErrInvalidBooking)
	}
	if b.StartTime.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidBooking)
	}
	if b.Pickup == "" || b.Dropoff == "" {
		return fmt.Errorf("%w: pickup and dropoff locations are required", ErrInvalidBooking)
	}
	return nil
}

// Clone returns a deep copy of the booking. Stops and Flight are copied so
// callers can mutate the result freely.
func (b Booking) Clone() Booking {
	c := b
	if len(b.Stops) > 0 {
		c.Stops = append([]string(nil), b.Stops...)
	}
	if b.Flight != nil {
		f := *b.Flight
		c.Flight = &f
	}
	return c
}
