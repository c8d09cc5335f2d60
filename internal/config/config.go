// Package config loads the service's YAML configuration. Redis and Postgres
// are both optional: without Redis the service keeps sessions in process
// memory, and without Postgres it serves the built-in demo packs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Sessions Sessions `yaml:"sessions"`
	Packs    Packs    `yaml:"packs"`
}

type Server struct {
	Port string `yaml:"port"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

// Sessions controls session-document retention in the external store.
type Sessions struct {
	TTL string `yaml:"ttl"`
}

// Packs controls the content-pack cache.
type Packs struct {
	TTL string `yaml:"ttl"`
}

// Load reads the config file at path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// unparsable.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
