package recurrence

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chauffeurjet/dispatch/core/ident"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/returnjourney"
)

// Series is the result of expanding one template.
type Series struct {
	GroupID  string
	Bookings []model.Booking
	// Returns holds the derived return booking for each outbound, in the
	// same order, when the template requested paired returns. Returns are
	// not counted in the series size.
	Returns []model.Booking
}

// Generator expands booking templates into concrete series.
type Generator struct {
	ids   ident.Allocator
	newID func() string
}

// NewGenerator creates a Generator allocating display ids from ids.
func NewGenerator(ids ident.Allocator) *Generator {
	return &Generator{ids: ids, newID: uuid.NewString}
}

// Expand produces the concrete bookings for template on the given pattern.
// Every generated booking copies the template except for its start time,
// identifiers and series bookkeeping. When ret is non-nil each occurrence
// additionally gets its own linked return journey, shifted by the same
// per-occurrence offset as the outbound.
func (g *Generator) Expand(template model.Booking, pattern Pattern, ret *returnjourney.Options) (Series, error) {
	if err := template.Validate(); err != nil {
		return Series{}, fmt.Errorf("invalid template: %w", err)
	}
	if err := pattern.Validate(template.StartTime); err != nil {
		return Series{}, err
	}

	times := pattern.OccurrenceTimes(template.StartTime)
	series := Series{GroupID: g.newID()}
	if len(times) == 0 {
		return series, nil
	}

	total := len(times)
	for i, start := range times {
		b := template.Clone()
		b.ID = g.newID()
		b.DisplayID = g.ids.NextDisplayID()
		b.StartTime = start
		b.RepeatGroupID = series.GroupID
		b.RepeatIndex = i + 1
		b.RepeatTotal = total
		b.VehicleID = "" // occurrences start unassigned
		b.IsReturn = false
		b.LinkedBookingID = ""

		if ret != nil {
			offset := start.Sub(template.StartTime)
			opts := *ret
			opts.StartTime = ret.StartTime.Add(offset)
			r, linked, err := returnjourney.Derive(b, g.newID(), g.ids.NextDisplayID(), opts)
			if err != nil {
				return Series{}, fmt.Errorf("derive return for occurrence %d: %w", i+1, err)
			}
			b = linked
			series.Returns = append(series.Returns, r)
		}

		series.Bookings = append(series.Bookings, b)
	}
	return series, nil
}
