package dispatch

import "fmt"

// Config defines the scheduling parameters loaded from configuration.
type Config struct {
	// GraceMinutes is the safety margin added to computed travel time
	// before a schedule is declared infeasible.
	GraceMinutes int `json:"grace_minutes"`
	// TightBufferMinutes is the slack below which a feasible transition
	// still emits a tight_schedule warning.
	TightBufferMinutes int `json:"tight_buffer_minutes"`
	// RoutingTimeoutSeconds bounds each routing-service call. On timeout
	// the feasibility check degrades to an unknown status.
	RoutingTimeoutSeconds int `json:"routing_timeout_seconds"`
	// CascadeLinkedDelete removes the linked return/outbound booking when
	// its pair is deleted. When false only the back-reference is cleared.
	CascadeLinkedDelete bool `json:"cascade_linked_delete"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.GraceMinutes == 0 {
		c.GraceMinutes = 15
	}
	if c.TightBufferMinutes == 0 {
		c.TightBufferMinutes = 10
	}
	if c.RoutingTimeoutSeconds == 0 {
		c.RoutingTimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.GraceMinutes < 0 {
		return fmt.Errorf("grace_minutes must not be negative")
	}
	if c.TightBufferMinutes < 0 {
		return fmt.Errorf("tight_buffer_minutes must not be negative")
	}
	if c.RoutingTimeoutSeconds <= 0 {
		return fmt.Errorf("routing_timeout_seconds must be positive")
	}
	return nil
}
