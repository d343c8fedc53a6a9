package config

// HTTPConfig defines the booking API server settings.
type HTTPConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr"`
	// AuthToken, when set, is required as a bearer token on every request.
	AuthToken string `json:"auth_token"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
