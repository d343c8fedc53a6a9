package timetable

import (
	"sort"
	"sync"

	"github.com/chauffeurjet/dispatch/core/model"
)

// MemoryStore keeps bookings in memory with a per-vehicle index. It is safe
// for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	bookings  map[string]model.Booking
	byVehicle map[string]map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:  map[string]model.Booking{},
		byVehicle: map[string]map[string]struct{}{},
	}
}

func (s *MemoryStore) Get(id string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b.Clone(), nil
}

func (s *MemoryStore) Upsert(b model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.bookings[b.ID]; ok && prev.VehicleID != b.VehicleID {
		if idx, ok := s.byVehicle[prev.VehicleID]; ok {
			delete(idx, b.ID)
			if len(idx) == 0 {
				delete(s.byVehicle, prev.VehicleID)
			}
		}
	}
	s.bookings[b.ID] = b.Clone()
	if b.VehicleID != "" {
		idx, ok := s.byVehicle[b.VehicleID]
		if !ok {
			idx = map[string]struct{}{}
			s.byVehicle[b.VehicleID] = idx
		}
		idx[b.ID] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.bookings, id)
	if idx, ok := s.byVehicle[b.VehicleID]; ok {
		delete(idx, id)
		if len(idx) == 0 {
			delete(s.byVehicle, b.VehicleID)
		}
	}
	return nil
}

func (s *MemoryStore) VehicleBookings(vehicleID string) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byVehicle[vehicleID]
	res := make([]model.Booking, 0, len(idx))
	for id := range idx {
		res = append(res, s.bookings[id].Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].StartTime.Before(res[j].StartTime) })
	return res, nil
}

func (s *MemoryStore) GroupBookings(groupID string) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Booking
	for _, b := range s.bookings {
		if b.RepeatGroupID == groupID {
			res = append(res, b.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].RepeatIndex < res[j].RepeatIndex })
	return res, nil
}

func (s *MemoryStore) All() ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		res = append(res, b.Clone())
	}
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
