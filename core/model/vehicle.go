package model

// Vehicle is a fleet car eligible for booking assignments.
type Vehicle struct {
	ID           string `json:"id"`
	Registration string `json:"registration"`
	TypeID       string `json:"type_id"`
	Name         string `json:"name,omitempty"`
}

// VehicleType groups interchangeable vehicles. Eligibility for auto-allocation
// is a data query over TypeID, not a type hierarchy.
type VehicleType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
