package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chauffeurjet/dispatch/core/fleet"
	"github.com/chauffeurjet/dispatch/core/logger"
	"github.com/chauffeurjet/dispatch/core/timetable"
)

// Allocator commits vehicle assignments while upholding the no-overlap
// invariant. The read-decide-write sequence for one vehicle type runs under
// an exclusive critical section, so two concurrent assignments targeting the
// same vehicle and overlapping times can never both succeed.
type Allocator struct {
	store    timetable.Store
	fleet    fleet.Directory
	detector *Detector
	log      logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // one critical section per vehicle type
}

// NewAllocator creates an Allocator over the given store and fleet directory.
func NewAllocator(store timetable.Store, dir fleet.Directory, log logger.Logger) (*Allocator, error) {
	if store == nil || dir == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewAllocator")
	}
	return &Allocator{
		store:    store,
		fleet:    dir,
		detector: NewDetector(store),
		log:      log,
		locks:    map[string]*sync.Mutex{},
	}, nil
}

func (a *Allocator) typeLock(typeID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[typeID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[typeID] = l
	}
	return l
}

// AssignVehicle assigns the booking to the requested vehicle, or to the first
// conflict-free sibling of the booking's vehicle type. On success exactly one
// booking's vehicle field changes. On failure nothing is mutated and the
// previous assignment, if any, is left in place.
func (a *Allocator) AssignVehicle(ctx context.Context, bookingID, requestedVehicleID string) (AssignmentResult, error) {
	booking, err := a.store.Get(bookingID)
	if err != nil {
		if errors.Is(err, timetable.ErrNotFound) {
			return AssignmentResult{}, &NotFoundError{Kind: "booking", ID: bookingID}
		}
		return AssignmentResult{}, err
	}
	requested, err := a.fleet.Vehicle(requestedVehicleID)
	if err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			return AssignmentResult{}, &NotFoundError{Kind: "vehicle", ID: requestedVehicleID}
		}
		return AssignmentResult{}, err
	}
	if requested.TypeID != booking.VehicleTypeID {
		return AssignmentResult{}, &InvalidVehicleTypeError{
			TypeID:    booking.VehicleTypeID,
			VehicleID: requestedVehicleID,
		}
	}

	siblings, err := a.fleet.VehiclesOfType(booking.VehicleTypeID)
	if err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			return AssignmentResult{}, &InvalidVehicleTypeError{TypeID: booking.VehicleTypeID}
		}
		return AssignmentResult{}, err
	}
	if len(siblings) == 0 {
		return AssignmentResult{}, &InvalidVehicleTypeError{TypeID: booking.VehicleTypeID}
	}

	lock := a.typeLock(booking.VehicleTypeID)
	lock.Lock()
	defer lock.Unlock()

	iv := booking.Interval()

	blocking, err := a.detector.FindOverlaps(requestedVehicleID, iv, booking.ID)
	if err != nil {
		return AssignmentResult{}, err
	}
	if len(blocking) == 0 {
		if err := a.commit(booking.ID, requestedVehicleID); err != nil {
			return AssignmentResult{}, err
		}
		return AssignmentResult{
			BookingID:   booking.ID,
			VehicleID:   requestedVehicleID,
			RequestedID: requestedVehicleID,
		}, nil
	}

	for _, v := range siblings {
		if v.ID == requestedVehicleID {
			continue
		}
		overlaps, err := a.detector.FindOverlaps(v.ID, iv, booking.ID)
		if err != nil {
			return AssignmentResult{}, err
		}
		if len(overlaps) > 0 {
			continue
		}
		if err := a.commit(booking.ID, v.ID); err != nil {
			return AssignmentResult{}, err
		}
		a.log.Infof("booking %s auto-allocated to %s (requested %s busy)", booking.DisplayID, v.ID, requestedVehicleID)
		return AssignmentResult{
			BookingID:          booking.ID,
			VehicleID:          v.ID,
			RequestedID:        requestedVehicleID,
			AutoAllocated:      true,
			RequestedConflicts: blocking,
		}, nil
	}

	return AssignmentResult{}, &VehicleConflictError{
		RequestedID: requestedVehicleID,
		TypeID:      booking.VehicleTypeID,
		Blocking:    blocking,
	}
}

// commit re-reads the booking so concurrent field edits between our read and
// the lock acquisition are not clobbered, then writes the assignment.
func (a *Allocator) commit(bookingID, vehicleID string) error {
	b, err := a.store.Get(bookingID)
	if err != nil {
		return err
	}
	b.VehicleID = vehicleID
	return a.store.Upsert(b)
}
