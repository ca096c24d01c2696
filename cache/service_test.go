package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockCacheService is an in-memory CacheService that can be told to fail.
type mockCacheService struct {
	mu      sync.Mutex
	storage map[string][]byte
	getErr  error
	setErr  error
	calls   []string
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{storage: make(map[string][]byte)}
}

func (m *mockCacheService) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *mockCacheService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Get:" + key)
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.storage[key]
	return v, ok, nil
}

func (m *mockCacheService) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Set:" + key)
	if m.setErr != nil {
		return m.setErr
	}
	m.storage[key] = value
	return nil
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.storage, key)
	return nil
}

func (m *mockCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.storage {
		if strings.HasPrefix(k, prefix) {
			delete(m.storage, k)
		}
	}
	return nil
}

func (m *mockCacheService) InvalidateKeys(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.storage, k)
	}
	return nil
}

func TestGate_LookupAndStore(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(newMockCacheService(), nil)

	if _, ok := gate.Lookup(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	gate.Store(ctx, "k", []byte("payload"))

	got, ok := gate.Lookup(ctx, "k")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if string(got) != "payload" {
		t.Errorf("Lookup() = %q, want %q", got, "payload")
	}
}

func TestGate_BackendFailureIsAMiss(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := newMockCacheService()
	svc.storage["k"] = []byte("stale")
	svc.getErr = errors.New("backend down")

	gate := NewGate(svc, zap.New(core))

	if _, ok := gate.Lookup(context.Background(), "k"); ok {
		t.Error("expected failed lookup to be reported as a miss")
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if msg := logs.All()[0].Message; !strings.Contains(msg, "cache lookup failed") {
		t.Errorf("unexpected log message %q", msg)
	}
}

func TestGate_StoreFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := newMockCacheService()
	svc.setErr = errors.New("disk full")

	gate := NewGate(svc, zap.New(core))
	gate.Store(context.Background(), "k", []byte("v"))

	if logs.Len() != 1 {
		t.Errorf("expected write failure to be logged once, got %d entries", logs.Len())
	}
	if _, ok := svc.storage["k"]; ok {
		t.Error("value should not have been stored")
	}
}

func TestGate_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	svc := newMockCacheService()
	gate := NewGate(svc, nil)

	gate.Store(ctx, "product::List::1", []byte("a"))
	gate.Store(ctx, "product::List::2", []byte("b"))
	gate.Store(ctx, "category::List::1", []byte("c"))

	gate.InvalidatePrefix(ctx, "product::")

	if len(svc.storage) != 1 {
		t.Fatalf("expected only category entry to survive, got %v", svc.storage)
	}
	if _, ok := svc.storage["category::List::1"]; !ok {
		t.Error("category entry should not have been invalidated")
	}
}

func TestGate_NilSafe(t *testing.T) {
	var gate *Gate
	ctx := context.Background()

	if _, ok := gate.Lookup(ctx, "k"); ok {
		t.Error("nil gate must always miss")
	}
	gate.Store(ctx, "k", nil)
	gate.Invalidate(ctx, []string{"k"})
	gate.InvalidatePrefix(ctx, "k")
}
