// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the resolver configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the resolver, its sources and the
// surrounding transport.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Transport TransportConfig `yaml:"transport"`
	Server    ServerConfig    `yaml:"server"`
}

// SourcesConfig holds the per-source endpoints and credentials.
type SourcesConfig struct {
	TGN      TGNConfig      `yaml:"tgn"`
	WHG      WHGConfig      `yaml:"whg"`
	Geonames GeonamesConfig `yaml:"geonames"`
	Wikidata WikidataConfig `yaml:"wikidata"`
}

// TGNConfig configures the Getty TGN SPARQL source.
type TGNConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Lang selects the language of place-type labels in SPARQL filters
	Lang string `yaml:"lang"`
	// RequestsPerSecond caps outbound calls (TGN allows 5/s)
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// WHGConfig configures the World Historical Gazetteer source.
type WHGConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Dataset restricts searches to one WHG collection (empty = all)
	Dataset           string  `yaml:"dataset"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GeonamesConfig configures the Geonames source. The username is required
// by the API; GEONAMES_USERNAME overrides the file value.
type GeonamesConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	Username          string  `yaml:"username"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// WikidataConfig configures the Wikidata source.
type WikidataConfig struct {
	SearchEndpoint    string  `yaml:"search_endpoint"`
	EntityEndpoint    string  `yaml:"entity_endpoint"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ResolverConfig tunes the resolution engine.
type ResolverConfig struct {
	// AdapterTimeout bounds each source query
	AdapterTimeout time.Duration `yaml:"adapter_timeout"`
	// ShortNameLen is the rune-length cutoff of the short-name band
	ShortNameLen int `yaml:"short_name_len"`
	// ShortThreshold admits short names (edit distance is harsher on them)
	ShortThreshold float64 `yaml:"short_threshold"`
	// StandardThreshold admits everything longer
	StandardThreshold float64 `yaml:"standard_threshold"`
	// Priority lists the sources to query, in order
	Priority []string `yaml:"priority"`
	// PlaceTypeMap is the path of the shared-vocabulary mapping table
	PlaceTypeMap string `yaml:"place_type_map"`
}

// TransportConfig tunes the HTTP layer shared by all adapters.
type TransportConfig struct {
	UserAgent string        `yaml:"user_agent"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	Redis     RedisConfig   `yaml:"redis"`
}

// RedisConfig selects the optional shared response cache. An empty address
// keeps caching in-process. REDIS_ADDR / REDIS_PASSWORD override the file.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			TGN: TGNConfig{
				Endpoint:          "http://vocab.getty.edu/sparql",
				Lang:              "en",
				RequestsPerSecond: 5,
			},
			WHG: WHGConfig{
				Endpoint:          "https://whgazetteer.org/api",
				RequestsPerSecond: 5,
			},
			Geonames: GeonamesConfig{
				Endpoint:          "http://api.geonames.org",
				RequestsPerSecond: 30,
			},
			Wikidata: WikidataConfig{
				SearchEndpoint:    "https://www.wikidata.org/w/api.php",
				EntityEndpoint:    "https://www.wikidata.org/wiki/Special:EntityData/",
				RequestsPerSecond: 30,
			},
		},
		Resolver: ResolverConfig{
			AdapterTimeout:    10 * time.Second,
			ShortNameLen:      4,
			ShortThreshold:    75,
			StandardThreshold: 90,
			Priority:          []string{"tgn", "whg", "geonames", "wikidata"},
			PlaceTypeMap:      "data/places_map.json",
		},
		Transport: TransportConfig{
			// UserAgent empty: the CLI stamps the build version in
			CacheTTL: 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
	}
}

// Load reads a YAML file over the defaults and applies the environment
// overrides. A missing path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path comes from the CLI flag
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if username := os.Getenv("GEONAMES_USERNAME"); username != "" {
		c.Sources.Geonames.Username = username
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Transport.Redis.Addr = addr
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Transport.Redis.Password = password
	}
}

// Validate checks the configuration for values that would only fail later.
func (c *Config) Validate() error {
	if c.Sources.TGN.Endpoint == "" {
		return fmt.Errorf("sources.tgn.endpoint is required")
	}

	if c.Sources.WHG.Endpoint == "" {
		return fmt.Errorf("sources.whg.endpoint is required")
	}

	if c.Sources.Geonames.Endpoint == "" {
		return fmt.Errorf("sources.geonames.endpoint is required")
	}

	if c.Sources.Wikidata.SearchEndpoint == "" || c.Sources.Wikidata.EntityEndpoint == "" {
		return fmt.Errorf("sources.wikidata endpoints are required")
	}

	if c.Resolver.AdapterTimeout <= 0 {
		return fmt.Errorf("resolver.adapter_timeout must be positive")
	}

	if c.Resolver.ShortThreshold > c.Resolver.StandardThreshold {
		return fmt.Errorf(
			"resolver.short_threshold (%.1f) must not exceed resolver.standard_threshold (%.1f)",
			c.Resolver.ShortThreshold, c.Resolver.StandardThreshold,
		)
	}

	if len(c.Resolver.Priority) == 0 {
		return fmt.Errorf("resolver.priority must list at least one source")
	}

	return nil
}
