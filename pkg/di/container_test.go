package di

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/goliatone/go-crud-admin/entity"
	"github.com/goliatone/go-crud-admin/internal/config"
)

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	container, err := NewContainerWithDefaults(context.Background())
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	t.Cleanup(func() { container.Close() })
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Capacity = 1000
	cfg.Cache.NumShards = 16
	cfg.Cache.TTL = config.Duration{Duration: 5 * time.Minute}

	container, err := NewContainer(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	if container.CacheService() == nil || container.Gate() == nil {
		t.Error("Container should have a cache service and gate")
	}
	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if err := container.DB().PingContext(context.Background()); err != nil {
		t.Errorf("store should be reachable: %v", err)
	}

	stored := container.Config()
	if stored.Cache.Capacity != cfg.Cache.Capacity {
		t.Errorf("Expected capacity %d, got %d", cfg.Cache.Capacity, stored.Cache.Capacity)
	}
	if stored.Cache.TTL != cfg.Cache.TTL {
		t.Errorf("Expected TTL %v, got %v", cfg.Cache.TTL, stored.Cache.TTL)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "zero capacity", mutate: func(c *config.Config) { c.Cache.Capacity = 0 }},
		{name: "unknown driver", mutate: func(c *config.Config) { c.Database.Driver = "oracle" }},
		{name: "zero batch size", mutate: func(c *config.Config) { c.Engine.MaxBatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if _, err := NewContainer(context.Background(), cfg, nil); err == nil {
				t.Error("NewContainer() should fail with invalid config")
			}
		})
	}
}

func TestNewContainer_UnreachableStore(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := config.Default()
	cfg.Database.DSN = "file:/nonexistent-dir/admin.db?mode=ro"

	_, err := NewContainer(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected open failure")
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container := newTestContainer(t)

	if container.CacheService() != container.CacheService() {
		t.Error("CacheService() should return the same instance")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance")
	}
	if container.Gate() != container.Gate() {
		t.Error("Gate() should return the same instance")
	}
}

func TestKeySerializerIntegration(t *testing.T) {
	container := newTestContainer(t)
	ks := container.KeySerializer()

	a := ks.SerializeKey("products::List", 1, "q")
	b := ks.SerializeKey("products::List", 1, "q")
	c := ks.SerializeKey("products::List", 2, "q")

	if a != b {
		t.Errorf("same arguments produced different keys: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different arguments produced the same key")
	}
	if !strings.HasPrefix(a, "products::List::") {
		t.Errorf("key %q should keep the method prefix", a)
	}
}

func TestCacheServiceIntegration(t *testing.T) {
	container := newTestContainer(t)
	svc := container.CacheService()
	ctx := context.Background()

	if err := svc.Set(ctx, "test-key", []byte("test-value")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, ok, err := svc.Get(ctx, "test-key")
	if err != nil || !ok || string(got) != "test-value" {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
	if err := svc.Delete(ctx, "test-key"); err != nil {
		t.Errorf("Delete() failed: %v", err)
	}
	if _, ok, _ := svc.Get(ctx, "test-key"); ok {
		t.Error("key should be gone after Delete")
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	container := newTestContainer(t)

	if err := container.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}

	for _, table := range entity.Tables() {
		exists, err := container.DB().NewSelect().
			TableExpr("sqlite_master").
			Where("type = 'table' AND name = ?", table.Name).
			Exists(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !exists {
			t.Errorf("table %s missing", table.Name)
		}
	}
}

func TestCloseReleasesStore(t *testing.T) {
	container, err := NewContainerWithDefaults(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := container.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := container.DB().PingContext(context.Background()); err == nil {
		t.Error("store should be closed")
	}
}
