package config

import "fmt"

// AuditConfig defines settings for audit trail storage and rotation.
type AuditConfig struct {
	// Enabled turns the audit trail on.
	Enabled bool `json:"enabled"`
	// Backend selects the store type: "jsonl", "rotating" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "audit.log"
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "rotating", "sqlite":
	default:
		return fmt.Errorf("unknown audit backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
