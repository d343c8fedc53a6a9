// Package export renders booking timetables for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/chauffeurjet/dispatch/core/model"
)

// WriteJSON writes the bookings to w as a JSON array.
func WriteJSON(w io.Writer, bookings []model.Booking) error {
	enc := json.NewEncoder(w)
	return enc.Encode(bookings)
}

// WriteCSV writes the bookings to w as CSV, one row per booking, ordered as
// given. Times are RFC 3339.
func WriteCSV(w io.Writer, bookings []model.Booking) error {
	cw := csv.NewWriter(w)
	header := []string{
		"display_id", "vehicle_id", "vehicle_type_id",
		"start_time", "end_time", "duration_minutes",
		"pickup", "dropoff", "is_return", "linked_booking_id", "repeat_group_id",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, b := range bookings {
		iv := b.Interval()
		rec := []string{
			b.DisplayID,
			b.VehicleID,
			b.VehicleTypeID,
			iv.Start.Format(time.RFC3339),
			iv.End.Format(time.RFC3339),
			strconv.Itoa(b.DurationMinutes),
			b.Pickup,
			b.Dropoff,
			strconv.FormatBool(b.IsReturn),
			b.LinkedBookingID,
			b.RepeatGroupID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
