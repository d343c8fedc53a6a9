package timetable

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/chauffeurjet/dispatch/core/model"
)

// SQLiteStore persists the timetable to a SQLite database. Bookings are
// stored as JSON documents with indexed columns for the queries the engine
// runs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS bookings (
        id TEXT PRIMARY KEY,
        vehicle_id TEXT,
        repeat_group_id TEXT,
        repeat_index INTEGER,
        start_ts INTEGER,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_bookings_vehicle ON bookings(vehicle_id, start_ts);
    CREATE INDEX IF NOT EXISTS idx_bookings_group ON bookings(repeat_group_id);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(id string) (model.Booking, error) {
	var data string
	err := s.db.QueryRow(`SELECT record FROM bookings WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	return decode(data)
}

func (s *SQLiteStore) Upsert(b model.Booking) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO bookings (id, vehicle_id, repeat_group_id, repeat_index, start_ts, record)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             vehicle_id = excluded.vehicle_id,
             repeat_group_id = excluded.repeat_group_id,
             repeat_index = excluded.repeat_index,
             start_ts = excluded.start_ts,
             record = excluded.record`,
		b.ID, b.VehicleID, b.RepeatGroupID, b.RepeatIndex, b.StartTime.Unix(), string(data))
	return err
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) VehicleBookings(vehicleID string) ([]model.Booking, error) {
	return s.query(`SELECT record FROM bookings WHERE vehicle_id = ? ORDER BY start_ts`, vehicleID)
}

func (s *SQLiteStore) GroupBookings(groupID string) ([]model.Booking, error) {
	return s.query(`SELECT record FROM bookings WHERE repeat_group_id = ? ORDER BY repeat_index`, groupID)
}

func (s *SQLiteStore) All() ([]model.Booking, error) {
	return s.query(`SELECT record FROM bookings`)
}

func (s *SQLiteStore) query(q string, args ...any) ([]model.Booking, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Booking
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		b, err := decode(data)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func decode(data string) (model.Booking, error) {
	var b model.Booking
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return model.Booking{}, fmt.Errorf("unmarshal booking: %w", err)
	}
	return b, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
