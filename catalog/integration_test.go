//go:build integration

package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/nexabiz/orderres/internal/testsupport"
)

// TestPostgresProductStore verifies CRUD and catalog ordering against PostgreSQL
func TestPostgresProductStore(t *testing.T) {
	db, cleanup := testsupport.SetupTestDB(t)
	defer cleanup()

	tenantID := testsupport.CreateTenant(t, db, "Acme Apparel")
	otherTenant := testsupport.CreateTenant(t, db, "Other")
	store := NewPostgresProductStore(db, tenantID)

	for _, p := range []*Product{
		{ID: "p-1", Name: "Blue Jeans", Active: true},
		{ID: "p-2", Name: "Red Shirts", Active: true},
		{ID: "p-3", Name: "Old Stock", Active: false},
	} {
		if err := store.Add(p); err != nil {
			t.Fatalf("Add(%s) failed: %v", p.ID, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := store.Add(&Product{ID: "p-1", Name: "Again"}); err == nil {
		t.Error("Add() with duplicate ID should fail")
	}

	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	names := Names(active)
	if len(names) != 2 || names[0] != "Blue Jeans" || names[1] != "Red Shirts" {
		t.Errorf("ListActive() = %v, want [Blue Jeans Red Shirts]", names)
	}

	if err := store.Update(&Product{ID: "p-2", Name: "Red Shirts XL", Active: true}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	p, err := store.Get("p-2")
	if err != nil || p.Name != "Red Shirts XL" {
		t.Errorf("Get() after Update() = %+v, %v", p, err)
	}

	if err := store.Delete("p-1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get("p-1"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrProductNotFound", err)
	}

	// Tenants are isolated
	other := NewPostgresProductStore(db, otherTenant)
	if products, _ := other.ListActive(); len(products) != 0 {
		t.Errorf("other tenant sees %d products, want 0", len(products))
	}
}

// TestRedisProductCache verifies the Redis cache round-trips and invalidates
func TestRedisProductCache(t *testing.T) {
	client, cleanup := testsupport.SetupTestRedis(t)
	defer cleanup()

	cache := NewRedisProductCache(client, "tenant-1", DefaultCacheConfig())

	if cache.Get() != nil || cache.IsValid() {
		t.Fatal("new cache should miss")
	}

	cache.Set([]*Product{{ID: "a", Name: "Blue Jeans", Active: true}})
	got := cache.Get()
	if len(got) != 1 || got[0].Name != "Blue Jeans" {
		t.Errorf("Get() = %+v", got)
	}
	if !cache.IsValid() {
		t.Error("IsValid() should be true after Set()")
	}

	cache.Set(nil)
	if got := cache.Get(); got == nil || len(got) != 0 {
		t.Errorf("Get() after Set(nil) = %#v, want empty slice", got)
	}

	cache.Invalidate()
	if cache.Get() != nil {
		t.Error("Get() after Invalidate() should miss")
	}
}
