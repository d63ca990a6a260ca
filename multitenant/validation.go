package multitenant

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nexabiz/orderres/resolution"
)

const (
	// DefaultMaxCatalogSize bounds the number of products resolved per request
	DefaultMaxCatalogSize = 5000
	// DefaultMaxMessageBytes bounds the size of a message or purchase-order text
	DefaultMaxMessageBytes = 64 << 10

	maxNameLength = 200
)

// ValidateCatalog rejects empty or oversized product names and catalogs larger than maxSize
func ValidateCatalog(names []string, maxSize int) error {
	if maxSize > 0 && len(names) > maxSize {
		return fmt.Errorf("catalog contains %d products, maximum allowed is %d", len(names), maxSize)
	}

	for i, name := range names {
		if err := ValidateProductName(name); err != nil {
			return fmt.Errorf("catalog entry %d: %w", i, err)
		}
	}
	return nil
}

// ValidateProductName rejects names that can never be referenced in a message
func ValidateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("product_name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("product_name %q is not valid UTF-8", name)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("product_name length %d exceeds maximum of %d bytes", len(name), maxNameLength)
	}
	return nil
}

// ValidateMessage rejects messages larger than maxBytes or not valid UTF-8
func ValidateMessage(message string, maxBytes int) error {
	if maxBytes > 0 && len(message) > maxBytes {
		return fmt.Errorf("message is %d bytes, maximum allowed is %d", len(message), maxBytes)
	}
	if !utf8.ValidString(message) {
		return fmt.Errorf("message is not valid UTF-8")
	}
	return nil
}

// ValidateOptions checks resolver options, including positive word window,
// proximity radius and digit cap, and a well-formed typo table
func ValidateOptions(opts resolution.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.WordWindow < 1 {
		return fmt.Errorf("word window %d must be positive", opts.WordWindow)
	}
	if opts.ProximityRadius < 1 {
		return fmt.Errorf("proximity radius %d must be positive", opts.ProximityRadius)
	}

	for from, to := range opts.Typos {
		if from == "" || strings.ContainsAny(from, " \t\n") {
			return fmt.Errorf("typo %q must be a single word", from)
		}
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("typo %q has an empty correction", from)
		}
	}
	return nil
}

// ValidateSettings checks s as it would apply to the default options
func ValidateSettings(s Settings) error {
	return ValidateOptions(s.Apply(resolution.DefaultOptions()))
}

// ValidateTenantName rejects blank or overlong tenant names
func ValidateTenantName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name length %d exceeds maximum of %d bytes", len(name), maxNameLength)
	}
	return nil
}
