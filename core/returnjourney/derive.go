// Package returnjourney derives the mirrored return booking for an outbound
// journey and maintains the mutual link between the pair.
package returnjourney

import (
	"fmt"
	"time"

	"github.com/chauffeurjet/dispatch/core/model"
)

// Options controls the derivation. StartTime is required. Pickup and Dropoff,
// when both set, override the mirroring rules. Flight, when set, becomes the
// return booking's flight record; the outbound record is never reused for the
// opposite direction.
type Options struct {
	StartTime       time.Time
	DurationMinutes int // 0 means inherit the outbound duration
	Pickup          string
	Dropoff         string
	Flight          *model.FlightInfo
}

// Derive builds the return booking for outbound and rewrites both link
// pointers. The returned outbound copy carries the updated LinkedBookingID;
// callers persist the two as a unit.
//
// Route mirroring: with no intermediate stops the journey simply reverses.
// With stops, the last stop becomes the return pickup, the outbound dropoff
// becomes the first return stop, and the remaining stops are visited in
// reverse order.
func Derive(outbound model.Booking, id, displayID string, opts Options) (ret model.Booking, updated model.Booking, err error) {
	if opts.StartTime.IsZero() {
		return model.Booking{}, model.Booking{}, fmt.Errorf("return start time is required")
	}
	if outbound.IsReturn {
		return model.Booking{}, model.Booking{}, fmt.Errorf("booking %s is already a return journey", outbound.ID)
	}

	ret = outbound.Clone()
	ret.ID = id
	ret.DisplayID = displayID
	ret.VehicleID = ""
	ret.StartTime = opts.StartTime
	if opts.DurationMinutes > 0 {
		ret.DurationMinutes = opts.DurationMinutes
	}
	ret.IsReturn = true
	ret.LinkedBookingID = outbound.ID
	// returns never belong to the outbound's repeat series
	ret.RepeatGroupID = ""
	ret.RepeatIndex = 0
	ret.RepeatTotal = 0
	ret.Flight = nil
	if opts.Flight != nil {
		f := *opts.Flight
		ret.Flight = &f
	}

	if opts.Pickup != "" && opts.Dropoff != "" {
		ret.Pickup = opts.Pickup
		ret.Dropoff = opts.Dropoff
		ret.Stops = nil
	} else {
		ret.Pickup, ret.Dropoff, ret.Stops = mirror(outbound)
	}

	updated = outbound.Clone()
	updated.LinkedBookingID = id
	return ret, updated, nil
}

func mirror(out model.Booking) (pickup, dropoff string, stops []string) {
	dropoff = out.Pickup
	switch n := len(out.Stops); {
	case n == 0:
		pickup = out.Dropoff
	case n == 1:
		// the single stop is consumed as the new pickup
		pickup = out.Stops[0]
	default:
		pickup = out.Stops[n-1]
		stops = make([]string, 0, n)
		stops = append(stops, out.Dropoff)
		for i := n - 2; i >= 0; i-- {
			stops = append(stops, out.Stops[i])
		}
	}
	return pickup, dropoff, stops
}
