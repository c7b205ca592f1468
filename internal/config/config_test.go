package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WAREHOUSE_PROJECT", "clique-bait-analytics")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Warehouse.Driver != "bigquery" || cfg.Warehouse.Dataset != "clique_bait" {
		t.Fatalf("unexpected warehouse defaults %+v", cfg.Warehouse)
	}
	if cfg.Cache.TTL != 300*time.Second || cfg.Cache.Store != "memory" {
		t.Fatalf("unexpected cache defaults %+v", cfg.Cache)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %s", cfg.Redis.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WAREHOUSE_DRIVER", "postgres")
	t.Setenv("WAREHOUSE_DSN", "postgres://localhost/clique_bait")
	t.Setenv("DASHBOARD_CACHE_TTL", "30s")
	t.Setenv("DASHBOARD_CACHE_STORE", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.TTL != 30*time.Second || cfg.Cache.Store != "redis" {
		t.Fatalf("env overrides not applied: %+v", cfg.Cache)
	}
}

func TestLoadBareSecondsDurations(t *testing.T) {
	t.Setenv("WAREHOUSE_PROJECT", "clique-bait-analytics")
	t.Setenv("DASHBOARD_CACHE_TTL", "300")
	t.Setenv("WAREHOUSE_QUERY_TIMEOUT", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.TTL != 300*time.Second {
		t.Fatalf("expected 300s ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Warehouse.QueryTimeout != 90*time.Second {
		t.Fatalf("expected 90s query timeout, got %s", cfg.Warehouse.QueryTimeout)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("WAREHOUSE_PROJECT", "clique-bait-analytics")
	t.Setenv("DASHBOARD_CACHE_TTL", "five minutes")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a malformed ttl")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Warehouse: WarehouseConfig{Driver: "mysql", DSN: "user@/db"},
		Cache:     CacheConfig{Store: "memory", TTL: time.Minute},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(c *Config){
		"unknown driver":  func(c *Config) { c.Warehouse.Driver = "snowflake" },
		"missing dsn":     func(c *Config) { c.Warehouse.DSN = "" },
		"missing project": func(c *Config) { c.Warehouse.Driver = "bigquery" },
		"unknown store":   func(c *Config) { c.Cache.Store = "disk" },
		"zero ttl":        func(c *Config) { c.Cache.TTL = 0 },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
