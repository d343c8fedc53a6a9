package dispatch

import (
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/timetable"
)

// Detector answers overlap queries against the timetable. It is deterministic
// and has no side effects.
type Detector struct {
	store timetable.Store
}

// NewDetector creates a Detector reading from store.
func NewDetector(store timetable.Store) *Detector {
	return &Detector{store: store}
}

// FindOverlaps returns the bookings assigned to vehicleID whose interval
// intersects iv under closed-open semantics. excludeID, when non-empty, skips
// that booking so a booking never conflicts with itself during reassignment.
func (d *Detector) FindOverlaps(vehicleID string, iv model.Interval, excludeID string) ([]model.Booking, error) {
	assigned, err := d.store.VehicleBookings(vehicleID)
	if err != nil {
		return nil, err
	}
	var overlaps []model.Booking
	for _, b := range assigned {
		if b.ID == excludeID {
			continue
		}
		if b.Interval().Overlaps(iv) {
			overlaps = append(overlaps, b)
		}
	}
	return overlaps, nil
}
