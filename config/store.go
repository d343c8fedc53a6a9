package config

import "fmt"

// StoreConfig selects the timetable storage backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the database file location for the sqlite backend.
	Path string `json:"path"`
	// DisplaySeed is the last issued display-id sequence number, used to
	// resume numbering after a restart of the memory backend.
	DisplaySeed int64 `json:"display_seed"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "timetable.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	if c.DisplaySeed < 0 {
		return fmt.Errorf("display_seed must not be negative")
	}
	return nil
}
