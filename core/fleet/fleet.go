// Package fleet holds the vehicle directory consulted during allocation.
package fleet

import (
	"errors"
	"sort"
	"sync"

	"github.com/chauffeurjet/dispatch/core/model"
)

// ErrNotFound is returned for unknown vehicle or type ids.
var ErrNotFound = errors.New("fleet: not found")

// Directory answers vehicle and vehicle-type lookups. Sibling enumeration must
// be stable so auto-allocation is deterministic.
type Directory interface {
	// Vehicle returns the vehicle with the given id or ErrNotFound.
	Vehicle(id string) (model.Vehicle, error)
	// VehiclesOfType returns all vehicles of the type ordered by
	// registration then id ascending. An unknown type id yields ErrNotFound.
	VehiclesOfType(typeID string) ([]model.Vehicle, error)
	// Type returns the vehicle type or ErrNotFound.
	Type(id string) (model.VehicleType, error)
}

// MemoryDirectory is a Directory backed by in-memory maps.
type MemoryDirectory struct {
	mu       sync.RWMutex
	vehicles map[string]model.Vehicle
	types    map[string]model.VehicleType
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		vehicles: map[string]model.Vehicle{},
		types:    map[string]model.VehicleType{},
	}
}

// AddType registers a vehicle type.
func (d *MemoryDirectory) AddType(t model.VehicleType) {
	d.mu.Lock()
	d.types[t.ID] = t
	d.mu.Unlock()
}

// AddVehicle registers a vehicle.
func (d *MemoryDirectory) AddVehicle(v model.Vehicle) {
	d.mu.Lock()
	d.vehicles[v.ID] = v
	d.mu.Unlock()
}

func (d *MemoryDirectory) Vehicle(id string) (model.Vehicle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.vehicles[id]
	if !ok {
		return model.Vehicle{}, ErrNotFound
	}
	return v, nil
}

func (d *MemoryDirectory) VehiclesOfType(typeID string) ([]model.Vehicle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.types[typeID]; !ok {
		return nil, ErrNotFound
	}
	var res []model.Vehicle
	for _, v := range d.vehicles {
		if v.TypeID == typeID {
			res = append(res, v)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Registration != res[j].Registration {
			return res[i].Registration < res[j].Registration
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (d *MemoryDirectory) Type(id string) (model.VehicleType, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.types[id]
	if !ok {
		return model.VehicleType{}, ErrNotFound
	}
	return t, nil
}
