package test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/chauffeurjet/dispatch/core/audit"
	"github.com/chauffeurjet/dispatch/core/dispatch"
	"github.com/chauffeurjet/dispatch/core/fleet"
	"github.com/chauffeurjet/dispatch/core/ident"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/notify"
	"github.com/chauffeurjet/dispatch/core/recurrence"
	"github.com/chauffeurjet/dispatch/core/returnjourney"
	"github.com/chauffeurjet/dispatch/core/routing"
	"github.com/chauffeurjet/dispatch/core/timetable"
	"github.com/chauffeurjet/dispatch/infra/logger"
	"github.com/chauffeurjet/dispatch/infra/mqtt"
	"github.com/chauffeurjet/dispatch/internal/eventbus"
)

type integrationEnv struct {
	mgr      *dispatch.Manager
	store    timetable.Store
	auditLog audit.LogStore
	notifier *mqtt.MockNotifier
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	dispatch.ResetMetrics(prometheus.NewRegistry())
	dir := t.TempDir()

	store, err := timetable.NewSQLiteStore(filepath.Join(dir, "bookings.db"))
	require.NoError(t, err)
	auditLog, err := audit.NewSQLiteStore(filepath.Join(dir, "audit.db"))
	require.NoError(t, err)

	fl := fleet.NewMemoryDirectory()
	fl.AddType(model.VehicleType{ID: "exec", Name: "Executive Saloon"})
	fl.AddVehicle(model.Vehicle{ID: "v1", Registration: "AA11 AAA", TypeID: "exec"})
	fl.AddVehicle(model.Vehicle{ID: "v2", Registration: "BB22 BBB", TypeID: "exec"})

	bus := eventbus.New()
	mgr, err := dispatch.NewManager(dispatch.ManagerParams{
		Store:  store,
		Fleet:  fl,
		Router: routing.NewStatic(),
		IDs:    ident.NewCounter(0),
		Bus:    bus,
		Audit:  auditLog,
		Log:    logger.NopLogger{},
	})
	require.NoError(t, err)

	notifier := mqtt.NewMockNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	notify.Forward(ctx, bus, notifier, logger.NopLogger{})

	env := &integrationEnv{mgr: mgr, store: store, auditLog: auditLog, notifier: notifier}
	t.Cleanup(func() {
		cancel()
		require.NoError(t, auditLog.Close())
		require.NoError(t, store.Close())
	})
	return env
}

func waitForTopic(t *testing.T, n *mqtt.MockNotifier, topic string, count int) []any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := n.Published(topic); len(msgs) >= count {
			return msgs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d message(s) on %s, got %d", count, topic, len(n.Published(topic)))
	return nil
}

func TestSQLiteBookingLifecycle(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	out, ret, err := env.mgr.CreateBooking(ctx, model.Booking{
		VehicleTypeID:   "exec",
		StartTime:       start,
		DurationMinutes: 60,
		Pickup:          "Grand Hotel",
		Dropoff:         "City Airport",
	}, &returnjourney.Options{StartTime: start.Add(5 * time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, ret)
	require.Equal(t, "CJ-001", out.DisplayID)
	require.Equal(t, out.ID, ret.LinkedBookingID)
	require.Equal(t, ret.ID, out.LinkedBookingID)
	require.True(t, ret.IsReturn)

	res, err := env.mgr.AssignVehicle(ctx, out.ID, "v1")
	require.NoError(t, err)
	require.Equal(t, "v1", res.VehicleID)
	require.False(t, res.AutoAllocated)

	// A second booking over the same interval on v1 auto-allocates to v2.
	second, _, err := env.mgr.CreateBooking(ctx, model.Booking{
		VehicleTypeID:   "exec",
		StartTime:       start.Add(30 * time.Minute),
		DurationMinutes: 60,
		Pickup:          "Mayfair",
		Dropoff:         "Kings Cross",
	}, nil)
	require.NoError(t, err)
	res, err = env.mgr.AssignVehicle(ctx, second.ID, "v1")
	require.NoError(t, err)
	require.True(t, res.AutoAllocated)
	require.Equal(t, "v2", res.VehicleID)
	require.NotEmpty(t, res.RequestedConflicts)

	waitForTopic(t, env.notifier, notify.TopicBookingCreated, 2)
	waitForTopic(t, env.notifier, notify.TopicVehicleAssigned, 2)

	// Deleting the outbound clears the back-reference on the return.
	require.NoError(t, env.mgr.DeleteBooking(ctx, out.ID))
	left, err := env.mgr.Booking(ret.ID)
	require.NoError(t, err)
	require.Empty(t, left.LinkedBookingID)
}

func TestSQLiteSeriesSurvivesReopen(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 14, 8, 30, 0, 0, time.UTC)

	series, err := env.mgr.CreateRepeatSeries(ctx, model.Booking{
		VehicleTypeID:   "exec",
		StartTime:       start,
		DurationMinutes: 45,
		Pickup:          "Richmond",
		Dropoff:         "Canary Wharf",
	}, recurrence.Pattern{Kind: recurrence.Weekly, Occurrences: 4}, nil)
	require.NoError(t, err)
	require.Len(t, series.Bookings, 4)

	listed, err := env.mgr.SeriesBookings(series.GroupID)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	for i, b := range listed {
		require.Equal(t, i+1, b.RepeatIndex)
		require.Equal(t, 4, b.RepeatTotal)
	}

	// The series is visible through a fresh store handle on the same file.
	path := filepath.Join(t.TempDir(), "reopen.db")
	st, err := timetable.NewSQLiteStore(path)
	require.NoError(t, err)
	for _, b := range series.Bookings {
		require.NoError(t, st.Upsert(b))
	}
	require.NoError(t, st.Close())
	st, err = timetable.NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close()) }()
	all, err := st.All()
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestAuditTrailQueries(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	b, _, err := env.mgr.CreateBooking(ctx, model.Booking{
		VehicleTypeID:   "exec",
		StartTime:       start,
		DurationMinutes: 60,
		Pickup:          "Grand Hotel",
		Dropoff:         "City Airport",
	}, nil)
	require.NoError(t, err)
	_, err = env.mgr.AssignVehicle(ctx, b.ID, "v1")
	require.NoError(t, err)
	require.NoError(t, env.mgr.DeleteBooking(ctx, b.ID))

	recs, err := env.auditLog.Query(ctx, audit.Query{BookingID: b.ID})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assigns, err := env.auditLog.Query(ctx, audit.Query{Operation: "assign"})
	require.NoError(t, err)
	require.Len(t, assigns, 1)
	require.Equal(t, "v1", assigns[0].VehicleID)
}
