package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.GetServerAddr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %s", cfg.Server.GetServerAddr())
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Name != "promo" {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.Scheduler.SweepInterval != 30*time.Second {
		t.Fatalf("unexpected sweep interval %s", cfg.Scheduler.SweepInterval)
	}
	if cfg.Discount.DefaultBadgeText == "" {
		t.Fatalf("default badge text must be set")
	}
	if cfg.App.Environment != "development" || cfg.App.IsProduction() {
		t.Fatalf("expected development environment by default")
	}
	if cfg.LogLevel() != "info" {
		t.Fatalf("unexpected log level %s", cfg.LogLevel())
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER":                "memory",
		"SCHEDULER_SWEEP_INTERVAL": "5s",
		"REDIS_ENABLED":            "true",
		"REDIS_CACHE_TTL":          "2s",
		"APP_ENVIRONMENT":          "staging",
		"APP_DEBUG":                "true",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Scheduler.SweepInterval != 5*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.Redis.Enabled || cfg.Redis.CacheTTL != 2*time.Second {
		t.Fatalf("redis overrides not applied: %+v", cfg.Redis)
	}
	if cfg.App.IsProduction() {
		t.Fatalf("staging is not production")
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("APP_DEBUG must force debug logging, got %s", cfg.LogLevel())
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER": "sqlite",
	}))
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadRejectsMemoryStoreInProduction(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER":       "memory",
		"APP_ENVIRONMENT": "production",
	}))
	if err == nil {
		t.Fatalf("expected error for the memory store in production")
	}

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"APP_ENVIRONMENT": "production",
	}))
	if err != nil || !cfg.App.IsProduction() {
		t.Fatalf("postgres in production must load, got %v", err)
	}
}
