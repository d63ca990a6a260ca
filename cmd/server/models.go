package main

import (
	"github.com/nexabiz/orderres/multitenant"
	"github.com/nexabiz/orderres/policy"
	"github.com/nexabiz/orderres/resolution"
)

// CatalogItem is one product of an inline catalog
type CatalogItem struct {
	ProductName string `json:"product_name"`
}

// ResolveRequest asks for the products and quantities in a message. The
// catalog is either inline or the tenant's active products.
type ResolveRequest struct {
	TenantID string               `json:"tenantId,omitempty"`
	Catalog  []CatalogItem        `json:"catalog,omitempty"`
	Message  string               `json:"message"`
	Options  multitenant.Settings `json:"options,omitempty"`
	Explain  bool                 `json:"explain,omitempty"`
}

// ResolveResponse carries the resolved lines and, for tenants, the lines their policies flagged
type ResolveResponse struct {
	Lines          []resolution.ResolvedOrderLine `json:"lines"`
	Summary        string                         `json:"summary"`
	PolicyResults  []*policy.Result               `json:"policyResults,omitempty"`
	Explanations   []resolution.Explanation       `json:"explanations,omitempty"`
	ResolutionTime string                         `json:"resolutionTime"`
}

// MatchRequest asks which catalog product a single phrase names
type MatchRequest struct {
	TenantID  string               `json:"tenantId,omitempty"`
	Catalog   []CatalogItem        `json:"catalog,omitempty"`
	Phrase    string               `json:"phrase"`
	Threshold *float64             `json:"threshold,omitempty"`
	Options   multitenant.Settings `json:"options,omitempty"`
}

// MatchResponse reports the best product and its score. Score is reported
// even when it does not beat the threshold.
type MatchResponse struct {
	Matched     bool    `json:"matched"`
	ProductName string  `json:"product_name,omitempty"`
	Score       float64 `json:"score"`
}

// PurchaseOrderRequest carries the text layer of a purchase order
type PurchaseOrderRequest struct {
	TenantID  string        `json:"tenantId,omitempty"`
	Catalog   []CatalogItem `json:"catalog,omitempty"`
	Text      string        `json:"text"`
	Threshold *float64      `json:"threshold,omitempty"`
}

// CreateTenantRequest is the body for creating a tenant
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// SettingsRequest is the body for replacing a tenant's resolver settings
type SettingsRequest struct {
	Definition multitenant.Settings `json:"definition"`
}

// SettingsResponse reports a tenant's stored settings and the options they produce
type SettingsResponse struct {
	Version    int                  `json:"version"`
	Definition multitenant.Settings `json:"definition"`
	Effective  resolution.Options   `json:"effective"`
}

// ProductRequest is the body for creating or updating a product
type ProductRequest struct {
	ID          string `json:"id,omitempty"`
	ProductName string `json:"product_name"`
	Active      *bool  `json:"active,omitempty"`
}

// PolicyRequest is the body for creating or updating a policy
type PolicyRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Active     *bool  `json:"active,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func catalogNames(items []CatalogItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.ProductName)
	}
	return names
}
