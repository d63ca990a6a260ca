package multitenant

import (
	"strings"
	"testing"

	"github.com/nexabiz/orderres/resolution"
)

// TestValidateCatalog verifies malformed catalogs are rejected
func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		max     int
		wantErr string
	}{
		{"valid", []string{"Blue Jeans", "Red Shirts"}, 10, ""},
		{"empty catalog", nil, 10, ""},
		{"empty name", []string{"Blue Jeans", ""}, 10, "entry 1"},
		{"blank name", []string{"   "}, 10, "empty"},
		{"too many", []string{"a", "b", "c"}, 2, "maximum allowed is 2"},
		{"no limit", []string{"a", "b", "c"}, 0, ""},
		{"overlong", []string{strings.Repeat("x", 201)}, 10, "exceeds"},
		{"invalid utf8", []string{"Blue \xff"}, 10, "UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalog(tt.names, tt.max)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateCatalog() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateCatalog() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestValidateMessage verifies size and encoding limits
func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage("10 qty of Blue Jeans", 100); err != nil {
		t.Errorf("ValidateMessage() unexpected error: %v", err)
	}
	if err := ValidateMessage("", 100); err != nil {
		t.Errorf("ValidateMessage(\"\") unexpected error: %v", err)
	}
	if err := ValidateMessage(strings.Repeat("a", 101), 100); err == nil {
		t.Error("ValidateMessage() should reject oversize messages")
	}
	if err := ValidateMessage("bad \xff", 100); err == nil {
		t.Error("ValidateMessage() should reject invalid UTF-8")
	}
}

// TestValidateOptions verifies out-of-range options are rejected
func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*resolution.Options)
		wantErr bool
	}{
		{"defaults", func(o *resolution.Options) {}, false},
		{"threshold 0", func(o *resolution.Options) { o.FuzzyThreshold = 0 }, false},
		{"threshold 100", func(o *resolution.Options) { o.FuzzyThreshold = 100 }, false},
		{"threshold negative", func(o *resolution.Options) { o.FuzzyThreshold = -1 }, true},
		{"threshold over 100", func(o *resolution.Options) { o.FuzzyThreshold = 100.5 }, true},
		{"zero window", func(o *resolution.Options) { o.WordWindow = 0 }, true},
		{"zero radius", func(o *resolution.Options) { o.ProximityRadius = 0 }, true},
		{"zero digit cap", func(o *resolution.Options) { o.MaxDigits = 0 }, true},
		{"huge digit cap", func(o *resolution.Options) { o.MaxDigits = 19 }, true},
		{"typo with space", func(o *resolution.Options) { o.Typos = map[string]string{"two words": "x"} }, true},
		{"typo empty fix", func(o *resolution.Options) { o.Typos = map[string]string{"jens": " "} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := resolution.DefaultOptions()
			tt.mutate(&opts)
			err := ValidateOptions(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateSettings verifies settings are checked against the defaults
func TestValidateSettings(t *testing.T) {
	if err := ValidateSettings(Settings{}); err != nil {
		t.Errorf("ValidateSettings(empty) unexpected error: %v", err)
	}
	if err := ValidateSettings(Settings{WordWindow: ptr(-2)}); err == nil {
		t.Error("ValidateSettings() should reject a negative window")
	}
}

// TestValidateTenantName verifies tenant names are required
func TestValidateTenantName(t *testing.T) {
	if err := ValidateTenantName("Acme"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateTenantName(" "); err == nil {
		t.Error("blank name should be rejected")
	}
	if err := ValidateTenantName(strings.Repeat("n", 201)); err == nil {
		t.Error("overlong name should be rejected")
	}
}
