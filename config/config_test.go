package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()
	if cfg.Store.Driver != "memory" {
		t.Errorf("Expected memory store by default, got %s", cfg.Store.Driver)
	}
	if cfg.Redis.Enabled || cfg.Kafka.Enabled || cfg.Elastic.Enabled {
		t.Error("Expected optional backends disabled by default")
	}
	if cfg.Allocation.LockTTL != 5*time.Second || cfg.Allocation.LockRetries != 3 {
		t.Errorf("Unexpected allocation defaults: %+v", cfg.Allocation)
	}
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("ALLOCATION_LOCK_TTL_SECONDS", "10")
	t.Setenv("ALLOCATION_LOCK_RETRIES", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg := LoadEnv()
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Expected driver lower-cased, got %s", cfg.Store.Driver)
	}
	if !cfg.Redis.Enabled {
		t.Error("Expected redis enabled")
	}
	if cfg.Allocation.LockTTL != 10*time.Second {
		t.Errorf("Expected 10s lock ttl, got %v", cfg.Allocation.LockTTL)
	}
	if cfg.Allocation.LockRetries != 3 {
		t.Errorf("Expected fallback on bad int, got %d", cfg.Allocation.LockRetries)
	}
	if !reflect.DeepEqual(cfg.Kafka.Brokers, []string{"a:9092", "b:9092"}) {
		t.Errorf("Unexpected brokers: %v", cfg.Kafka.Brokers)
	}
}
