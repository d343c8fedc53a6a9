package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/chauffeurjet/dispatch/core/logger"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/routing"
	"github.com/chauffeurjet/dispatch/core/timetable"
)

// Checker verifies that a driver can physically reach the candidate booking
// from the previous dropoff and the next pickup from the candidate dropoff.
// The check is advisory: it never mutates the timetable and never blocks
// persistence by itself.
type Checker struct {
	store  timetable.Store
	router routing.Router
	cfg    Config
	log    logger.Logger
}

// NewChecker creates a Checker.
func NewChecker(store timetable.Store, router routing.Router, cfg Config, log logger.Logger) (*Checker, error) {
	if store == nil || router == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewChecker")
	}
	cfg.SetDefaults()
	return &Checker{store: store, router: router, cfg: cfg, log: log}, nil
}

// CheckFeasibility inspects the candidate's neighbors in vehicleID's
// timetable and consults the routing service for both transitions. A routing
// failure degrades the result to StatusUnknown rather than an error.
func (c *Checker) CheckFeasibility(ctx context.Context, vehicleID string, candidate model.Booking) (FeasibilityResult, error) {
	assigned, err := c.store.VehicleBookings(vehicleID)
	if err != nil {
		return FeasibilityResult{}, err
	}

	iv := candidate.Interval()
	prev, next := neighbors(assigned, iv, candidate.ID)
	if prev == nil && next == nil {
		return FeasibilityResult{
			Feasible: true,
			Status:   StatusFeasible,
			Message:  "no adjacent bookings on this vehicle",
		}, nil
	}

	res := FeasibilityResult{Feasible: true, Status: StatusFeasible}

	if prev != nil {
		travel, ok := c.travelMinutes(ctx, prev.Dropoff, candidate.Pickup)
		if !ok {
			return unknownResult(), nil
		}
		available := wholeMinutes(iv.Start.Sub(prev.Interval().End))
		c.judge(&res, prev.ID, travel, available)
	}
	if next != nil {
		travel, ok := c.travelMinutes(ctx, candidate.Dropoff, next.Pickup)
		if !ok {
			return unknownResult(), nil
		}
		available := wholeMinutes(next.Interval().Start.Sub(iv.End))
		c.judge(&res, next.ID, travel, available)
	}

	switch {
	case !res.Feasible:
		res.Message = fmt.Sprintf("insufficient travel time for %d transition(s)", len(res.Conflicts))
	case len(res.Warnings) > 0:
		res.Message = "schedule is feasible but tight"
	default:
		res.Message = "schedule is feasible"
	}
	return res, nil
}

// judge applies the grace-period rule for one transition and folds the
// outcome into res.
func (c *Checker) judge(res *FeasibilityResult, neighborID string, travel, available int) {
	required := travel + c.cfg.GraceMinutes
	if available < required {
		res.Feasible = false
		res.Status = StatusInfeasible
		res.Conflicts = append(res.Conflicts, TravelConflict{
			Type:             ConflictInsufficientTravelTime,
			BookingID:        neighborID,
			TravelMinutes:    travel,
			GraceMinutes:     c.cfg.GraceMinutes,
			RequiredMinutes:  required,
			AvailableMinutes: available,
		})
		return
	}
	if slack := available - required; slack < c.cfg.TightBufferMinutes {
		res.Warnings = append(res.Warnings, TravelWarning{
			Type:         WarningTightSchedule,
			BookingID:    neighborID,
			SlackMinutes: slack,
		})
	}
}

// travelMinutes resolves the transition travel time, bounded by the
// configured routing timeout. Identical normalized locations skip the
// routing call entirely.
func (c *Checker) travelMinutes(ctx context.Context, origin, dest string) (int, bool) {
	if routing.SameLocation(origin, dest) {
		return 0, true
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.RoutingTimeoutSeconds)*time.Second)
	defer cancel()
	est, err := c.router.TravelTime(ctx, origin, dest)
	if err != nil {
		c.log.Warnf("routing %q -> %q failed: %v", origin, dest, err)
		return 0, false
	}
	return est.Minutes, true
}

func unknownResult() FeasibilityResult {
	return FeasibilityResult{
		Feasible: false,
		Status:   StatusUnknown,
		Message:  "routing service unavailable, feasibility unknown",
	}
}

// neighbors finds the nearest preceding booking (latest end at or before the
// candidate start) and nearest following booking (earliest start at or after
// the candidate end). Bookings overlapping the candidate are neither; the
// conflict detector reports those.
func neighbors(assigned []model.Booking, iv model.Interval, excludeID string) (prev, next *model.Booking) {
	for i := range assigned {
		b := assigned[i]
		if b.ID == excludeID {
			continue
		}
		biv := b.Interval()
		if !biv.End.After(iv.Start) {
			if prev == nil || biv.End.After(prev.Interval().End) {
				prev = &assigned[i]
			}
		} else if !biv.Start.Before(iv.End) {
			if next == nil || biv.Start.Before(next.Interval().Start) {
				next = &assigned[i]
			}
		}
	}
	return prev, next
}

func wholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
