package events

import "github.com/chauffeurjet/dispatch/core/model"

// BookingCreated is published when a booking is persisted for the first time.
// Linked holds the derived return journey when one was requested.
type BookingCreated struct {
	Booking model.Booking
	Linked  *model.Booking
}

// VehicleAssigned is published after an assignment commits. AutoAllocated is
// true when the committed vehicle differs from the requested one.
type VehicleAssigned struct {
	BookingID     string
	VehicleID     string
	RequestedID   string
	AutoAllocated bool
}

// AssignmentRejected is published when no vehicle of the required type was
// free for the booking's interval.
type AssignmentRejected struct {
	BookingID   string
	RequestedID string
	TypeID      string
}

// SeriesExpanded is published once per repeat-series creation.
type SeriesExpanded struct {
	GroupID string
	Size    int
	Returns int
}

// BookingDeleted is published when a booking is removed. CascadeDeleted names
// the linked booking removed in the same operation, if any.
type BookingDeleted struct {
	BookingID      string
	CascadeDeleted string
}
