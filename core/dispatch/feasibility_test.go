package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/routing"
	"github.com/chauffeurjet/dispatch/core/timetable"
	"github.com/chauffeurjet/dispatch/infra/logger"
)

func newTestChecker(t *testing.T, router routing.Router) (*Checker, timetable.Store) {
	t.Helper()
	store := timetable.NewMemoryStore()
	c, err := NewChecker(store, router, Config{}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return c, store
}

func candidateAt(start time.Time) model.Booking {
	return model.Booking{
		ID:              "cand",
		VehicleTypeID:   "exec",
		StartTime:       start,
		DurationMinutes: 60,
		Pickup:          "Grand Hotel",
		Dropoff:         "City Airport",
	}
}

// Previous booking ends 15:33 and its dropoff is 40 minutes from the
// candidate pickup. With the 15 minute grace period the driver needs 55
// minutes between the jobs.
func TestCheckFeasibilityAgainstPrevious(t *testing.T) {
	router := routing.NewStatic()
	router.Set("Westfield Office", "Grand Hotel", routing.Estimate{Minutes: 40})
	c, store := newTestChecker(t, router)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	prev := model.Booking{
		ID:              "prev",
		VehicleID:       "v1",
		VehicleTypeID:   "exec",
		StartTime:       day.Add(14*time.Hour + 33*time.Minute),
		DurationMinutes: 60, // ends 15:33
		Pickup:          "Richmond",
		Dropoff:         "Westfield Office",
	}
	if err := store.Upsert(prev); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	t.Run("insufficient gap", func(t *testing.T) {
		res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(15*time.Hour+45*time.Minute)))
		if err != nil {
			t.Fatalf("CheckFeasibility: %v", err)
		}
		if res.Feasible || res.Status != StatusInfeasible {
			t.Fatalf("expected infeasible, got %+v", res)
		}
		if len(res.Conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(res.Conflicts))
		}
		cf := res.Conflicts[0]
		if cf.Type != ConflictInsufficientTravelTime || cf.BookingID != "prev" {
			t.Fatalf("unexpected conflict %+v", cf)
		}
		if cf.TravelMinutes != 40 || cf.RequiredMinutes != 55 || cf.AvailableMinutes != 12 {
			t.Fatalf("unexpected arithmetic %+v", cf)
		}
	})

	t.Run("tight but feasible", func(t *testing.T) {
		res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(16*time.Hour+30*time.Minute)))
		if err != nil {
			t.Fatalf("CheckFeasibility: %v", err)
		}
		if !res.Feasible || res.Status != StatusFeasible {
			t.Fatalf("expected feasible, got %+v", res)
		}
		if len(res.Warnings) != 1 {
			t.Fatalf("expected 1 warning, got %d", len(res.Warnings))
		}
		w := res.Warnings[0]
		if w.Type != WarningTightSchedule || w.SlackMinutes != 2 {
			t.Fatalf("unexpected warning %+v", w)
		}
	})

	t.Run("comfortable gap", func(t *testing.T) {
		res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(17*time.Hour)))
		if err != nil {
			t.Fatalf("CheckFeasibility: %v", err)
		}
		if !res.Feasible || len(res.Warnings) != 0 || len(res.Conflicts) != 0 {
			t.Fatalf("expected clean pass, got %+v", res)
		}
	})
}

func TestCheckFeasibilityAgainstNext(t *testing.T) {
	router := routing.NewStatic()
	router.Set("City Airport", "Kings Cross", routing.Estimate{Minutes: 50})
	c, store := newTestChecker(t, router)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	next := model.Booking{
		ID:              "next",
		VehicleID:       "v1",
		VehicleTypeID:   "exec",
		StartTime:       day.Add(18 * time.Hour),
		DurationMinutes: 45,
		Pickup:          "Kings Cross",
		Dropoff:         "Canary Wharf",
	}
	if err := store.Upsert(next); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// candidate ends 17:30, next starts 18:00: 30 available < 50+15 required
	res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(16*time.Hour+30*time.Minute)))
	if err != nil {
		t.Fatalf("CheckFeasibility: %v", err)
	}
	if res.Feasible {
		t.Fatalf("expected infeasible, got %+v", res)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].BookingID != "next" {
		t.Fatalf("unexpected conflicts %+v", res.Conflicts)
	}
	if res.Conflicts[0].AvailableMinutes != 30 || res.Conflicts[0].RequiredMinutes != 65 {
		t.Fatalf("unexpected arithmetic %+v", res.Conflicts[0])
	}
}

func TestCheckFeasibilitySameLocationSkipsRouting(t *testing.T) {
	router := routing.NewStatic()
	router.Err = errors.New("routing down")
	c, store := newTestChecker(t, router)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	prev := model.Booking{
		ID:              "prev",
		VehicleID:       "v1",
		VehicleTypeID:   "exec",
		StartTime:       day.Add(14 * time.Hour),
		DurationMinutes: 60,
		Pickup:          "Richmond",
		Dropoff:         "grand  hotel", // normalizes equal to the candidate pickup
	}
	if err := store.Upsert(prev); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// zero travel time, so the 20 minute gap beats the 15 minute grace
	res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(15*time.Hour+20*time.Minute)))
	if err != nil {
		t.Fatalf("CheckFeasibility: %v", err)
	}
	if !res.Feasible {
		t.Fatalf("expected feasible, got %+v", res)
	}
}

func TestCheckFeasibilityRoutingFailure(t *testing.T) {
	router := routing.NewStatic()
	router.Err = routing.ErrUnavailable
	c, store := newTestChecker(t, router)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	prev := model.Booking{
		ID:              "prev",
		VehicleID:       "v1",
		VehicleTypeID:   "exec",
		StartTime:       day.Add(14 * time.Hour),
		DurationMinutes: 60,
		Pickup:          "Richmond",
		Dropoff:         "Westfield Office",
	}
	if err := store.Upsert(prev); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(17*time.Hour)))
	if err != nil {
		t.Fatalf("routing failure must degrade, not error: %v", err)
	}
	if res.Feasible || res.Status != StatusUnknown {
		t.Fatalf("expected unknown status, got %+v", res)
	}
}

func TestCheckFeasibilityNoNeighbors(t *testing.T) {
	c, _ := newTestChecker(t, routing.NewStatic())
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	res, err := c.CheckFeasibility(context.Background(), "v1", candidateAt(day.Add(12*time.Hour)))
	if err != nil {
		t.Fatalf("CheckFeasibility: %v", err)
	}
	if !res.Feasible || res.Status != StatusFeasible {
		t.Fatalf("empty timetable must be feasible, got %+v", res)
	}
}
