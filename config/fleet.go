package config

import (
	"fmt"

	"github.com/chauffeurjet/dispatch/core/model"
)

// FleetConfig declares the vehicle types and vehicles available for
// allocation. The directory is static for the lifetime of the process.
type FleetConfig struct {
	Types    []model.VehicleType `json:"types"`
	Vehicles []model.Vehicle     `json:"vehicles"`
}

// Validate checks that every vehicle references a declared type.
func (c FleetConfig) Validate() error {
	types := map[string]bool{}
	for _, t := range c.Types {
		if t.ID == "" {
			return fmt.Errorf("vehicle type without id")
		}
		types[t.ID] = true
	}
	for _, v := range c.Vehicles {
		if v.ID == "" {
			return fmt.Errorf("vehicle without id")
		}
		if !types[v.TypeID] {
			return fmt.Errorf("vehicle %s references unknown type %s", v.ID, v.TypeID)
		}
	}
	return nil
}
