// Package config loads the service configuration from YAML or JSON files
// with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/chauffeurjet/dispatch/core/dispatch"
	"github.com/chauffeurjet/dispatch/core/metrics"
	"github.com/chauffeurjet/dispatch/infra/mqtt"
	"github.com/chauffeurjet/dispatch/infra/routing"
)

type Config struct {
	HTTP     HTTPConfig      `json:"http"`
	Store    StoreConfig     `json:"store"`
	Dispatch dispatch.Config `json:"dispatch"`
	Routing  routing.Config  `json:"routing"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Metrics  metrics.Config  `json:"metrics"`
	Audit    AuditConfig     `json:"audit"`
	Fleet    FleetConfig     `json:"fleet"`
}

// Load reads the file at path, applies CJ_-prefixed environment overrides
// (CJ_HTTP__ADDR maps to http.addr) and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CJ_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cj_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Audit.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Fleet.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
