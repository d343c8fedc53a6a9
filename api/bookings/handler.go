// Package bookings exposes the scheduling engine over HTTP under /api.
package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chauffeurjet/dispatch/core/dispatch"
	"github.com/chauffeurjet/dispatch/core/model"
	"github.com/chauffeurjet/dispatch/core/recurrence"
	"github.com/chauffeurjet/dispatch/core/returnjourney"
	"github.com/chauffeurjet/dispatch/pkg/export"
)

type returnRequest struct {
	StartTime       time.Time         `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	Pickup          string            `json:"pickup_location,omitempty"`
	Dropoff         string            `json:"dropoff_location,omitempty"`
	Flight          *model.FlightInfo `json:"flight_info,omitempty"`
}

func (r *returnRequest) options() *returnjourney.Options {
	if r == nil {
		return nil
	}
	return &returnjourney.Options{
		StartTime:       r.StartTime,
		DurationMinutes: r.DurationMinutes,
		Pickup:          r.Pickup,
		Dropoff:         r.Dropoff,
		Flight:          r.Flight,
	}
}

type createBookingRequest struct {
	model.Booking
	Return *returnRequest `json:"return,omitempty"`
}

type createBookingResponse struct {
	Booking model.Booking  `json:"booking"`
	Return  *model.Booking `json:"return,omitempty"`
}

type createSeriesRequest struct {
	Template model.Booking      `json:"template"`
	Pattern  recurrence.Pattern `json:"pattern"`
	Return   *returnRequest     `json:"return,omitempty"`
}

type createSeriesResponse struct {
	GroupID  string          `json:"group_id"`
	Bookings []model.Booking `json:"bookings"`
	Returns  []model.Booking `json:"returns,omitempty"`
}

type assignRequest struct {
	VehicleID string `json:"vehicle_id"`
}

type feasibilityRequest struct {
	VehicleID string        `json:"vehicle_id"`
	Booking   model.Booking `json:"booking"`
}

// NewHandler returns the HTTP handler for the booking API. Requests must
// include an Authorization header with "Bearer <token>" when token is
// non-empty.
func NewHandler(m *dispatch.Manager, token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bookings", func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		b, ret, err := m.CreateBooking(r.Context(), req.Booking, req.Return.options())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createBookingResponse{Booking: b, Return: ret})
	})

	mux.HandleFunc("GET /api/bookings", func(w http.ResponseWriter, r *http.Request) {
		var (
			list []model.Booking
			err  error
		)
		if vehicleID := r.URL.Query().Get("vehicle_id"); vehicleID != "" {
			list, err = m.VehicleTimetable(vehicleID)
		} else {
			list, err = m.Bookings()
		}
		if err != nil {
			writeError(w, err)
			return
		}
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
			if err := export.WriteCSV(w, list); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /api/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		b, err := m.Booking(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	})

	mux.HandleFunc("DELETE /api/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := m.DeleteBooking(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/bookings/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		var req assignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		res, err := m.AssignVehicle(r.Context(), r.PathValue("id"), req.VehicleID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("POST /api/series", func(w http.ResponseWriter, r *http.Request) {
		var req createSeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		series, err := m.CreateRepeatSeries(r.Context(), req.Template, req.Pattern, req.Return.options())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createSeriesResponse{
			GroupID:  series.GroupID,
			Bookings: series.Bookings,
			Returns:  series.Returns,
		})
	})

	mux.HandleFunc("GET /api/series/{id}", func(w http.ResponseWriter, r *http.Request) {
		list, err := m.SeriesBookings(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("POST /api/feasibility", func(w http.ResponseWriter, r *http.Request) {
		var req feasibilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		res, err := m.CheckFeasibility(r.Context(), req.VehicleID, req.Booking)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return withAuth(mux, token)
}

func withAuth(next http.Handler, token string) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error     string          `json:"error"`
	Conflicts []model.Booking `json:"conflicts,omitempty"`
}

// writeError maps engine errors to HTTP statuses: unknown ids to 404, vehicle
// conflicts to 409, bad types and patterns to 422/400, everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound    *dispatch.NotFoundError
		conflict    *dispatch.VehicleConflictError
		invalidType *dispatch.InvalidVehicleTypeError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Conflicts: conflict.Blocking})
	case errors.As(err, &invalidType):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, recurrence.ErrInvalidPattern), errors.Is(err, model.ErrInvalidBooking):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
