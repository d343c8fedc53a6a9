package dispatch

import "github.com/chauffeurjet/dispatch/core/model"

// AssignmentResult reports a committed vehicle assignment.
type AssignmentResult struct {
	BookingID   string `json:"booking_id"`
	VehicleID   string `json:"vehicle_id"`
	RequestedID string `json:"requested_vehicle_id"`
	// AutoAllocated is true when the committed vehicle differs from the
	// requested one because of a conflict.
	AutoAllocated bool `json:"auto_allocated"`
	// RequestedConflicts holds the bookings that blocked the requested
	// vehicle when an auto-allocation happened.
	RequestedConflicts []model.Booking `json:"requested_conflicts,omitempty"`
}

// Feasibility statuses. Unknown means the routing service could not be
// consulted; callers decide how to treat it.
const (
	StatusFeasible   = "feasible"
	StatusInfeasible = "infeasible"
	StatusUnknown    = "unknown"
)

// Travel conflict and warning kinds.
const (
	ConflictInsufficientTravelTime = "insufficient_travel_time"
	WarningTightSchedule           = "tight_schedule"
)

// TravelConflict describes a transition the driver cannot physically make.
type TravelConflict struct {
	Type             string `json:"type"` // ConflictInsufficientTravelTime
	BookingID        string `json:"booking_id"`
	TravelMinutes    int    `json:"travel_minutes"`
	GraceMinutes     int    `json:"grace_minutes"`
	RequiredMinutes  int    `json:"required_minutes"`
	AvailableMinutes int    `json:"available_minutes"`
}

// TravelWarning flags a transition that works but leaves little slack.
type TravelWarning struct {
	Type         string `json:"type"` // WarningTightSchedule
	BookingID    string `json:"booking_id"`
	SlackMinutes int    `json:"slack_minutes"`
}

// FeasibilityResult is the advisory outcome of a travel-time check. It never
// blocks persistence by itself.
type FeasibilityResult struct {
	Feasible  bool             `json:"feasible"`
	Status    string           `json:"status"`
	Conflicts []TravelConflict `json:"conflicts,omitempty"`
	Warnings  []TravelWarning  `json:"warnings,omitempty"`
	Message   string           `json:"message"`
}
