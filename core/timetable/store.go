package timetable

import (
	"errors"

	"github.com/chauffeurjet/dispatch/core/model"
)

// ErrNotFound is returned when a booking id is unknown to the store.
var ErrNotFound = errors.New("timetable: booking not found")

// Store is the source of truth for booking intervals. Conflict queries and
// assignments read and write through it.
type Store interface {
	// Get returns the booking with the given id or ErrNotFound.
	Get(id string) (model.Booking, error)
	// Upsert inserts or replaces a booking keyed by its id.
	Upsert(b model.Booking) error
	// Delete removes the booking. Deleting an unknown id returns ErrNotFound.
	Delete(id string) error
	// VehicleBookings returns the bookings assigned to the vehicle, ordered
	// by start time ascending.
	VehicleBookings(vehicleID string) ([]model.Booking, error)
	// GroupBookings returns the members of a repeat series ordered by
	// repeat index.
	GroupBookings(groupID string) ([]model.Booking, error)
	// All returns every booking in the store in unspecified order.
	All() ([]model.Booking, error)
	Close() error
}
