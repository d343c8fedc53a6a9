package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/chauffeurjet/dispatch/core/events"
	"github.com/chauffeurjet/dispatch/core/ident"
	"github.com/chauffeurjet/dispatch/core/metrics"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/recurrence"
	"github.com/chauffeurjet/dispatch/core/returnjourney"
	"github.com/chauffeurjet/dispatch/core/routing"
	"github.com/chauffeurjet/dispatch/core/timetable"
	"github.com/chauffeurjet/dispatch/infra/logger"
	"github.com/chauffeurjet/dispatch/internal/eventbus"
)

// captureSink records everything it receives.
type captureSink struct {
	mu          sync.Mutex
	assignments []metrics.AssignmentRecord
	feasibility []metrics.FeasibilityRecord
	series      []metrics.SeriesRecord
}

func (s *captureSink) RecordAssignment(recs []metrics.AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, recs...)
	return nil
}

func (s *captureSink) RecordFeasibility(rec metrics.FeasibilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feasibility = append(s.feasibility, rec)
	return nil
}

func (s *captureSink) RecordSeries(rec metrics.SeriesRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = append(s.series, rec)
	return nil
}

type managerFixture struct {
	manager *Manager
	store   timetable.Store
	bus     *eventbus.Bus
	sink    *captureSink
	router  *routing.Static
}

func newManagerFixture(t *testing.T, cfg Config) *managerFixture {
	t.Helper()
	ResetMetrics(prometheus.NewRegistry())
	f := &managerFixture{
		store:  timetable.NewMemoryStore(),
		bus:    eventbus.New(),
		sink:   &captureSink{},
		router: routing.NewStatic(),
	}
	m, err := NewManager(ManagerParams{
		Store:  f.store,
		Fleet:  newTestFleet(),
		Router: f.router,
		IDs:    ident.NewCounter(0),
		Bus:    f.bus,
		Sink:   f.sink,
		Log:    logger.NopLogger{},
		Config: cfg,
	})
	require.NoError(t, err)
	f.manager = m
	return f
}

func outboundTemplate(start time.Time) model.Booking {
	return model.Booking{
		VehicleTypeID:   "exec",
		StartTime:       start,
		DurationMinutes: 60,
		Pickup:          "Mayfair",
		Dropoff:         "Heathrow T5",
		ClientID:        "acct-9",
	}
}

func drainEvent(t *testing.T, ch <-chan eventbus.Event) eventbus.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return nil
	}
}

func TestCreateBookingMintsIdentifiers(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b, ret, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start), nil)
	require.NoError(t, err)
	require.Nil(t, ret)
	require.NotEmpty(t, b.ID)
	require.Equal(t, "CJ-001", b.DisplayID)

	stored, err := f.store.Get(b.ID)
	require.NoError(t, err)
	require.Equal(t, b, stored)
}

func TestCreateBookingIgnoresPresetVehicle(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := outboundTemplate(start)
	first.VehicleID = "v1"
	second := outboundTemplate(start.Add(30 * time.Minute))
	second.VehicleID = "v1"

	b1, _, err := f.manager.CreateBooking(context.Background(), first, nil)
	require.NoError(t, err)
	b2, _, err := f.manager.CreateBooking(context.Background(), second, nil)
	require.NoError(t, err)
	require.Empty(t, b1.VehicleID)
	require.Empty(t, b2.VehicleID)

	// nothing reached v1's timetable without going through the allocator
	onV1, err := f.store.VehicleBookings("v1")
	require.NoError(t, err)
	require.Empty(t, onV1)

	// same for the linked-pair path
	third := outboundTemplate(start.Add(4 * time.Hour))
	third.VehicleID = "v1"
	out, ret, err := f.manager.CreateBooking(context.Background(), third,
		&returnjourney.Options{StartTime: start.Add(8 * time.Hour)})
	require.NoError(t, err)
	require.Empty(t, out.VehicleID)
	require.Empty(t, ret.VehicleID)
}

func TestCreateBookingRejectsInvalid(t *testing.T) {
	f := newManagerFixture(t, Config{})
	bad := outboundTemplate(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	bad.Pickup = ""
	_, _, err := f.manager.CreateBooking(context.Background(), bad, nil)
	require.Error(t, err)

	all, err := f.store.All()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestCreateBookingWithReturnPair(t *testing.T) {
	f := newManagerFixture(t, Config{})
	sub := f.bus.Subscribe()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	out, ret, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start), &returnjourney.Options{
		StartTime: start.Add(8 * time.Hour),
	})
	require.NoError(t, err)
	require.NotNil(t, ret)

	require.Equal(t, out.ID, ret.LinkedBookingID)
	require.Equal(t, ret.ID, out.LinkedBookingID)
	require.True(t, ret.IsReturn)
	require.Equal(t, "Heathrow T5", ret.Pickup)
	require.Equal(t, "Mayfair", ret.Dropoff)
	require.Equal(t, "CJ-001", out.DisplayID)
	require.Equal(t, "CJ-002", ret.DisplayID)

	for _, id := range []string{out.ID, ret.ID} {
		_, err := f.store.Get(id)
		require.NoError(t, err)
	}

	e := drainEvent(t, sub)
	created, ok := e.(events.BookingCreated)
	require.True(t, ok, "unexpected event %T", e)
	require.NotNil(t, created.Linked)
	require.Equal(t, ret.ID, created.Linked.ID)
}

func TestCreateRepeatSeriesPersistsAll(t *testing.T) {
	f := newManagerFixture(t, Config{})
	sub := f.bus.Subscribe()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	series, err := f.manager.CreateRepeatSeries(context.Background(), outboundTemplate(start), recurrence.Pattern{
		Kind:        recurrence.Daily,
		Occurrences: 4,
	}, nil)
	require.NoError(t, err)
	require.Len(t, series.Bookings, 4)

	members, err := f.manager.SeriesBookings(series.GroupID)
	require.NoError(t, err)
	require.Len(t, members, 4)
	for i, b := range members {
		require.Equal(t, i+1, b.RepeatIndex)
		require.Equal(t, 4, b.RepeatTotal)
		require.Equal(t, start.AddDate(0, 0, i), b.StartTime)
	}

	e := drainEvent(t, sub)
	expanded, ok := e.(events.SeriesExpanded)
	require.True(t, ok, "unexpected event %T", e)
	require.Equal(t, 4, expanded.Size)

	require.Len(t, f.sink.series, 1)
	require.Equal(t, series.GroupID, f.sink.series[0].GroupID)
}

func TestCreateRepeatSeriesInvalidPattern(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := f.manager.CreateRepeatSeries(context.Background(), outboundTemplate(start), recurrence.Pattern{
		Kind: recurrence.Custom, // no days selected
	}, nil)
	require.ErrorIs(t, err, recurrence.ErrInvalidPattern)

	all, err := f.store.All()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestAssignVehiclePublishesAndRecords(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b, _, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start), nil)
	require.NoError(t, err)

	sub := f.bus.Subscribe()
	res, err := f.manager.AssignVehicle(context.Background(), b.ID, "v1")
	require.NoError(t, err)
	require.Equal(t, "v1", res.VehicleID)

	e := drainEvent(t, sub)
	assigned, ok := e.(events.VehicleAssigned)
	require.True(t, ok, "unexpected event %T", e)
	require.Equal(t, b.ID, assigned.BookingID)
	require.False(t, assigned.AutoAllocated)

	require.Len(t, f.sink.assignments, 1)
	require.Equal(t, "assigned", f.sink.assignments[0].Outcome)
}

func TestAssignVehicleRejectionRecorded(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, v := range []string{"v1", "v2", "v3"} {
		blocker, _, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start), nil)
		require.NoError(t, err)
		_, err = f.manager.AssignVehicle(context.Background(), blocker.ID, v)
		require.NoError(t, err)
	}
	candidate, _, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start.Add(30*time.Minute)), nil)
	require.NoError(t, err)

	sub := f.bus.Subscribe()
	_, err = f.manager.AssignVehicle(context.Background(), candidate.ID, "v1")
	var conflict *VehicleConflictError
	require.ErrorAs(t, err, &conflict)

	e := drainEvent(t, sub)
	rejected, ok := e.(events.AssignmentRejected)
	require.True(t, ok, "unexpected event %T", e)
	require.Equal(t, candidate.ID, rejected.BookingID)

	last := f.sink.assignments[len(f.sink.assignments)-1]
	require.Equal(t, "rejected", last.Outcome)
	require.Empty(t, last.VehicleID)
}

func TestCheckFeasibilityRecords(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	res, err := f.manager.CheckFeasibility(context.Background(), "v1", candidateAt(start))
	require.NoError(t, err)
	require.True(t, res.Feasible)

	require.Len(t, f.sink.feasibility, 1)
	require.Equal(t, StatusFeasible, f.sink.feasibility[0].Status)
}

func TestDeleteBookingClearsBackReference(t *testing.T) {
	f := newManagerFixture(t, Config{})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	out, ret, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start), &returnjourney.Options{
		StartTime: start.Add(8 * time.Hour),
	})
	require.NoError(t, err)

	sub := f.bus.Subscribe()
	require.NoError(t, f.manager.DeleteBooking(context.Background(), out.ID))

	_, err = f.manager.Booking(out.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	partner, err := f.manager.Booking(ret.ID)
	require.NoError(t, err)
	require.Empty(t, partner.LinkedBookingID, "dangling link must be cleared")

	e := drainEvent(t, sub)
	deleted, ok := e.(events.BookingDeleted)
	require.True(t, ok, "unexpected event %T", e)
	require.Empty(t, deleted.CascadeDeleted)
}

func TestDeleteBookingCascade(t *testing.T) {
	f := newManagerFixture(t, Config{CascadeLinkedDelete: true})
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	out, ret, err := f.manager.CreateBooking(context.Background(), outboundTemplate(start), &returnjourney.Options{
		StartTime: start.Add(8 * time.Hour),
	})
	require.NoError(t, err)

	sub := f.bus.Subscribe()
	require.NoError(t, f.manager.DeleteBooking(context.Background(), out.ID))

	var nf *NotFoundError
	_, err = f.manager.Booking(out.ID)
	require.ErrorAs(t, err, &nf)
	_, err = f.manager.Booking(ret.ID)
	require.ErrorAs(t, err, &nf)

	e := drainEvent(t, sub)
	deleted, ok := e.(events.BookingDeleted)
	require.True(t, ok, "unexpected event %T", e)
	require.Equal(t, ret.ID, deleted.CascadeDeleted)
}

func TestDeleteBookingUnknown(t *testing.T) {
	f := newManagerFixture(t, Config{})
	var nf *NotFoundError
	err := f.manager.DeleteBooking(context.Background(), "ghost")
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "booking", nf.Kind)
}
