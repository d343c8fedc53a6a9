package bookings

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chauffeurjet/dispatch/core/audit"
)

// NewAuditHandler returns an HTTP handler exposing the audit trail via
// GET /api/audit. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewAuditHandler(store audit.LogStore, token string) http.Handler {
	return withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := audit.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.BookingID = r.URL.Query().Get("booking_id")
		q.VehicleID = r.URL.Query().Get("vehicle_id")
		q.Operation = r.URL.Query().Get("operation")

		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}), token)
}
