//go:build integration

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexabiz/orderres/internal/testsupport"
)

func call(t *testing.T, baseURL, method, path string, body any) (int, map[string]any) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s returned invalid JSON: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

// TestEndToEndPostgresRedis verifies a tenant order flows through PostgreSQL
// storage, the Redis catalog cache and the policy engine
func TestEndToEndPostgresRedis(t *testing.T) {
	db, cleanupDB := testsupport.SetupTestDB(t)
	defer cleanupDB()
	rdb, cleanupRedis := testsupport.SetupTestRedis(t)
	defer cleanupRedis()

	server, err := NewServer(DefaultConfig(), db, rdb)
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	ts := httptest.NewServer(server)
	defer ts.Close()
	baseURL := ts.URL + "/api/v1"

	status, health := call(t, baseURL, http.MethodGet, "/health", nil)
	if status != http.StatusOK || health["storage"] != "postgres" || health["cache"] != "redis" {
		t.Fatalf("health = %d %v", status, health)
	}

	status, tenant := call(t, baseURL, http.MethodPost, "/tenants", map[string]any{"name": "Acme Apparel"})
	if status != http.StatusCreated {
		t.Fatalf("create tenant = %d %v", status, tenant)
	}
	tenantID := tenant["id"].(string)

	for _, name := range []string{"Blue Jeans", "Red Shirts", "Leather Belt"} {
		if status, body := call(t, baseURL, http.MethodPost, "/tenants/"+tenantID+"/products", map[string]any{"product_name": name}); status != http.StatusCreated {
			t.Fatalf("create product = %d %v", status, body)
		}
	}
	if status, body := call(t, baseURL, http.MethodPost, "/tenants/"+tenantID+"/policies", map[string]any{
		"name":       "Large order",
		"expression": "order.total_qty > 12",
	}); status != http.StatusCreated {
		t.Fatalf("create policy = %d %v", status, body)
	}

	resolve := map[string]any{
		"tenantId": tenantID,
		"message":  "I'd like to order 10 qty of Blue Jeans and 5 Red Shirts, plus a Leather Belt",
	}
	// Second call is served from the Redis cache
	for i := 0; i < 2; i++ {
		status, body := call(t, baseURL, http.MethodPost, "/resolve", resolve)
		if status != http.StatusOK {
			t.Fatalf("resolve = %d %v", status, body)
		}
		if body["summary"] != "10 qty of Blue Jeans, 5 qty of Red Shirts and 1 qty of Leather Belt" {
			t.Errorf("summary = %v", body["summary"])
		}
		if flagged := body["policyResults"].([]any); len(flagged) != 3 {
			t.Errorf("policyResults = %v, want every line flagged", flagged)
		}
	}

	// Settings survive a restart
	if status, body := call(t, baseURL, http.MethodPut, "/tenants/"+tenantID+"/settings", map[string]any{
		"definition": map[string]any{"fuzzyThreshold": 85},
	}); status != http.StatusOK {
		t.Fatalf("update settings = %d %v", status, body)
	}

	restarted, err := NewServer(DefaultConfig(), db, rdb)
	if err != nil {
		t.Fatalf("NewServer() after restart failed: %v", err)
	}
	ts2 := httptest.NewServer(restarted)
	defer ts2.Close()

	status, settings := call(t, ts2.URL+"/api/v1", http.MethodGet, "/tenants/"+tenantID+"/settings", nil)
	if status != http.StatusOK || settings["version"] != float64(1) {
		t.Errorf("settings after restart = %d %v", status, settings)
	}
}
