package dispatch

import (
	"fmt"

	"github.com/chauffeurjet/dispatch/core/model"
)

// VehicleConflictError is returned when every vehicle of the required type
// has an overlapping booking at the candidate time. The requested vehicle's
// blocking bookings are attached so the operator can see what is in the way.
type VehicleConflictError struct {
	RequestedID string
	TypeID      string
	Blocking    []model.Booking
}

func (e *VehicleConflictError) Error() string {
	return fmt.Sprintf("vehicle %s and all %s siblings are booked for the requested time (%d blocking)",
		e.RequestedID, e.TypeID, len(e.Blocking))
}

// InvalidVehicleTypeError is returned when an assignment references a type
// with zero eligible vehicles, an unknown type id, or a requested vehicle
// that does not belong to the booking's type.
type InvalidVehicleTypeError struct {
	TypeID    string
	VehicleID string // set when a requested vehicle is of the wrong type
}

func (e *InvalidVehicleTypeError) Error() string {
	if e.VehicleID != "" {
		return fmt.Sprintf("vehicle %s is not of required type %s", e.VehicleID, e.TypeID)
	}
	return fmt.Sprintf("vehicle type %s has no eligible vehicles", e.TypeID)
}

// NotFoundError is returned for unknown booking or vehicle ids.
type NotFoundError struct {
	Kind string // "booking" or "vehicle"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
