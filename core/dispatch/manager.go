package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chauffeurjet/dispatch/core/audit"
	"github.com/chauffeurjet/dispatch/core/events"
	"github.com/chauffeurjet/dispatch/core/fleet"
	"github.com/chauffeurjet/dispatch/core/ident"
	"github.com/chauffeurjet/dispatch/core/logger"
	"github.com/chauffeurjet/dispatch/core/metrics"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/recurrence"
	"github.com/chauffeurjet/dispatch/core/returnjourney"
	"github.com/chauffeurjet/dispatch/core/routing"
	"github.com/chauffeurjet/dispatch/core/timetable"
	"github.com/chauffeurjet/dispatch/internal/eventbus"
)

// Manager is the scheduling facade. It orchestrates booking creation, repeat
// series expansion, vehicle assignment, feasibility checks and deletion, and
// fans out events, metrics and audit records around the core operations.
type Manager struct {
	store     timetable.Store
	fleet     fleet.Directory
	allocator *Allocator
	checker   *Checker
	gen       *recurrence.Generator
	ids       ident.Allocator
	bus       eventbus.EventBus
	sink      metrics.MetricsSink
	audit     audit.LogStore
	log       logger.Logger
	cfg       Config
	newID     func() string
}

// ManagerParams bundles the Manager's collaborators. Sink and Audit are
// optional; nil disables the corresponding side effects.
type ManagerParams struct {
	Store  timetable.Store
	Fleet  fleet.Directory
	Router routing.Router
	IDs    ident.Allocator
	Bus    eventbus.EventBus
	Sink   metrics.MetricsSink
	Audit  audit.LogStore
	Log    logger.Logger
	Config Config
}

// NewManager wires a Manager from its parameters.
func NewManager(p ManagerParams) (*Manager, error) {
	if p.Store == nil || p.Fleet == nil || p.Router == nil || p.IDs == nil || p.Log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	p.Config.SetDefaults()
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	alloc, err := NewAllocator(p.Store, p.Fleet, p.Log)
	if err != nil {
		return nil, err
	}
	checker, err := NewChecker(p.Store, p.Router, p.Config, p.Log)
	if err != nil {
		return nil, err
	}
	if p.Bus == nil {
		p.Bus = eventbus.New()
	}
	if p.Sink == nil {
		p.Sink = metrics.NopSink{}
	}
	return &Manager{
		store:     p.Store,
		fleet:     p.Fleet,
		allocator: alloc,
		checker:   checker,
		gen:       recurrence.NewGenerator(p.IDs),
		ids:       p.IDs,
		bus:       p.Bus,
		sink:      p.Sink,
		audit:     p.Audit,
		log:       p.Log,
		cfg:       p.Config,
		newID:     uuid.NewString,
	}, nil
}

// CreateBooking validates and persists one booking, minting its internal and
// display identifiers. When ret is non-nil the derived return journey is
// persisted in the same operation and the pair is mutually linked; a failure
// on the second write rolls back the first.
func (m *Manager) CreateBooking(ctx context.Context, b model.Booking, ret *returnjourney.Options) (model.Booking, *model.Booking, error) {
	if err := b.Validate(); err != nil {
		return model.Booking{}, nil, err
	}
	if b.ID == "" {
		b.ID = m.newID()
	}
	if b.DisplayID == "" {
		b.DisplayID = m.ids.NextDisplayID()
	}
	// assignments commit only through the allocator
	b.VehicleID = ""
	b.IsReturn = false
	b.LinkedBookingID = ""

	if ret == nil {
		if err := m.store.Upsert(b); err != nil {
			return model.Booking{}, nil, err
		}
		bookingsCreated.Inc()
		m.bus.Publish(events.BookingCreated{Booking: b})
		m.auditRecord(ctx, "create", b.ID, "", "created", map[string]string{"display_id": b.DisplayID})
		m.log.Infof("booking %s created", b.DisplayID)
		return b, nil, nil
	}

	r, linked, err := returnjourney.Derive(b, m.newID(), m.ids.NextDisplayID(), *ret)
	if err != nil {
		return model.Booking{}, nil, err
	}
	if err := m.store.Upsert(linked); err != nil {
		return model.Booking{}, nil, err
	}
	if err := m.store.Upsert(r); err != nil {
		if derr := m.store.Delete(linked.ID); derr != nil {
			m.log.Errorf("rollback of booking %s failed: %v", linked.ID, derr)
		}
		return model.Booking{}, nil, err
	}
	bookingsCreated.Add(2)
	m.bus.Publish(events.BookingCreated{Booking: linked, Linked: &r})
	m.auditRecord(ctx, "create", linked.ID, "", "created", map[string]string{
		"display_id": linked.DisplayID,
		"return_id":  r.ID,
	})
	m.log.Infof("booking %s created with return %s", linked.DisplayID, r.DisplayID)
	return linked, &r, nil
}

// CreateRepeatSeries expands the template on the pattern and persists the
// whole series, returns included, as a unit. Any write failure removes the
// occurrences already persisted.
func (m *Manager) CreateRepeatSeries(ctx context.Context, template model.Booking, pattern recurrence.Pattern, ret *returnjourney.Options) (recurrence.Series, error) {
	series, err := m.gen.Expand(template, pattern, ret)
	if err != nil {
		return recurrence.Series{}, err
	}

	var written []string
	rollback := func() {
		for _, id := range written {
			if derr := m.store.Delete(id); derr != nil {
				m.log.Errorf("series rollback of %s failed: %v", id, derr)
			}
		}
	}
	for i := range series.Bookings {
		if err := m.store.Upsert(series.Bookings[i]); err != nil {
			rollback()
			return recurrence.Series{}, err
		}
		written = append(written, series.Bookings[i].ID)
		if i < len(series.Returns) {
			if err := m.store.Upsert(series.Returns[i]); err != nil {
				rollback()
				return recurrence.Series{}, err
			}
			written = append(written, series.Returns[i].ID)
		}
	}

	bookingsCreated.Add(float64(len(written)))
	seriesSize.Observe(float64(len(series.Bookings)))
	m.bus.Publish(events.SeriesExpanded{
		GroupID: series.GroupID,
		Size:    len(series.Bookings),
		Returns: len(series.Returns),
	})
	if rec, ok := m.sink.(metrics.SeriesRecorder); ok {
		if err := rec.RecordSeries(metrics.SeriesRecord{
			GroupID: series.GroupID,
			Size:    len(series.Bookings),
			Returns: len(series.Returns),
			Time:    time.Now(),
		}); err != nil {
			m.log.Warnf("series metrics: %v", err)
		}
	}
	m.auditRecord(ctx, "series", series.GroupID, "", "expanded", map[string]string{
		"size":    strconv.Itoa(len(series.Bookings)),
		"returns": strconv.Itoa(len(series.Returns)),
	})
	m.log.Infof("series %s expanded into %d bookings", series.GroupID, len(series.Bookings))
	return series, nil
}

// AssignVehicle commits an assignment through the allocator and records the
// outcome on the bus, the metrics sink and the audit trail. Conflict and
// validation failures are returned to the caller after being recorded.
func (m *Manager) AssignVehicle(ctx context.Context, bookingID, vehicleID string) (AssignmentResult, error) {
	res, err := m.allocator.AssignVehicle(ctx, bookingID, vehicleID)
	now := time.Now()
	if err != nil {
		var conflict *VehicleConflictError
		if errors.As(err, &conflict) {
			assignmentsTotal.WithLabelValues("rejected").Inc()
			m.bus.Publish(events.AssignmentRejected{
				BookingID:   bookingID,
				RequestedID: vehicleID,
				TypeID:      conflict.TypeID,
			})
			m.recordAssignment(metrics.AssignmentRecord{
				BookingID:     bookingID,
				RequestedID:   vehicleID,
				VehicleTypeID: conflict.TypeID,
				Outcome:       "rejected",
				Conflicts:     len(conflict.Blocking),
				Time:          now,
			})
			m.auditRecord(ctx, "assign", bookingID, vehicleID, "rejected", map[string]string{
				"blocking": strconv.Itoa(len(conflict.Blocking)),
			})
		}
		return AssignmentResult{}, err
	}

	outcome := "assigned"
	if res.AutoAllocated {
		outcome = "auto_allocated"
	}
	assignmentsTotal.WithLabelValues(outcome).Inc()
	m.bus.Publish(events.VehicleAssigned{
		BookingID:     res.BookingID,
		VehicleID:     res.VehicleID,
		RequestedID:   res.RequestedID,
		AutoAllocated: res.AutoAllocated,
	})
	m.recordAssignment(metrics.AssignmentRecord{
		BookingID:   res.BookingID,
		VehicleID:   res.VehicleID,
		RequestedID: res.RequestedID,
		Outcome:     outcome,
		Conflicts:   len(res.RequestedConflicts),
		Time:        now,
	})
	m.auditRecord(ctx, "assign", res.BookingID, res.VehicleID, outcome, nil)
	return res, nil
}

// CheckFeasibility runs the advisory travel-time check for placing candidate
// on vehicleID's timetable.
func (m *Manager) CheckFeasibility(ctx context.Context, vehicleID string, candidate model.Booking) (FeasibilityResult, error) {
	res, err := m.checker.CheckFeasibility(ctx, vehicleID, candidate)
	if err != nil {
		return FeasibilityResult{}, err
	}
	feasibilityChecks.WithLabelValues(res.Status).Inc()
	if rec, ok := m.sink.(metrics.FeasibilityRecorder); ok {
		if ferr := rec.RecordFeasibility(metrics.FeasibilityRecord{
			VehicleID: vehicleID,
			Status:    res.Status,
			Warnings:  len(res.Warnings),
			Time:      time.Now(),
		}); ferr != nil {
			m.log.Warnf("feasibility metrics: %v", ferr)
		}
	}
	return res, nil
}

// DeleteBooking removes the booking. When it is half of a linked pair the
// cascade policy decides the partner's fate: cascade deletes it too,
// otherwise only its back-reference is cleared so no dangling link survives.
func (m *Manager) DeleteBooking(ctx context.Context, id string) error {
	b, err := m.store.Get(id)
	if err != nil {
		if errors.Is(err, timetable.ErrNotFound) {
			return &NotFoundError{Kind: "booking", ID: id}
		}
		return err
	}

	cascaded := ""
	if b.LinkedBookingID != "" {
		linked, err := m.store.Get(b.LinkedBookingID)
		switch {
		case errors.Is(err, timetable.ErrNotFound):
			// dangling link, nothing to repair
		case err != nil:
			return err
		case m.cfg.CascadeLinkedDelete:
			if err := m.store.Delete(linked.ID); err != nil {
				return err
			}
			cascaded = linked.ID
		default:
			linked.LinkedBookingID = ""
			if err := m.store.Upsert(linked); err != nil {
				return err
			}
		}
	}

	if err := m.store.Delete(id); err != nil {
		return err
	}
	m.bus.Publish(events.BookingDeleted{BookingID: id, CascadeDeleted: cascaded})
	details := map[string]string{}
	if cascaded != "" {
		details["cascaded"] = cascaded
	}
	m.auditRecord(ctx, "delete", id, "", "deleted", details)
	m.log.Infof("booking %s deleted", b.DisplayID)
	return nil
}

// Booking returns one booking by internal id.
func (m *Manager) Booking(id string) (model.Booking, error) {
	b, err := m.store.Get(id)
	if err != nil {
		if errors.Is(err, timetable.ErrNotFound) {
			return model.Booking{}, &NotFoundError{Kind: "booking", ID: id}
		}
		return model.Booking{}, err
	}
	return b, nil
}

// VehicleTimetable returns the vehicle's bookings ordered by start time.
func (m *Manager) VehicleTimetable(vehicleID string) ([]model.Booking, error) {
	return m.store.VehicleBookings(vehicleID)
}

// SeriesBookings returns the members of a repeat group ordered by index.
func (m *Manager) SeriesBookings(groupID string) ([]model.Booking, error) {
	return m.store.GroupBookings(groupID)
}

// Bookings returns every booking in the store.
func (m *Manager) Bookings() ([]model.Booking, error) {
	return m.store.All()
}

func (m *Manager) recordAssignment(rec metrics.AssignmentRecord) {
	if err := m.sink.RecordAssignment([]metrics.AssignmentRecord{rec}); err != nil {
		m.log.Warnf("assignment metrics: %v", err)
	}
}

func (m *Manager) auditRecord(ctx context.Context, op, bookingID, vehicleID, outcome string, details map[string]string) {
	if m.audit == nil {
		return
	}
	rec := audit.Record{
		Timestamp: time.Now(),
		Operation: op,
		BookingID: bookingID,
		VehicleID: vehicleID,
		Outcome:   outcome,
		Details:   details,
	}
	if err := m.audit.Append(ctx, rec); err != nil {
		m.log.Warnf("audit append: %v", err)
	}
}
