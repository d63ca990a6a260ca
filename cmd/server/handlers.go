package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nexabiz/orderres/catalog"
	"github.com/nexabiz/orderres/internal/logger"
	"github.com/nexabiz/orderres/multitenant"
	"github.com/nexabiz/orderres/policy"
	"github.com/nexabiz/orderres/purchaseorder"
	"github.com/nexabiz/orderres/resolution"
)

// apiError is a failure with the status it maps to
type apiError struct {
	status  int
	message string
	err     error
}

func (e *apiError) write(w http.ResponseWriter) {
	respondError(w, e.status, e.message, e.err)
}

// scope finds the tenant and catalog a request resolves against. An inline
// catalog takes precedence over the tenant's stored one.
func (s *Server) scope(tenantID string, inline []CatalogItem) (*multitenant.Tenant, []string, *apiError) {
	var tenant *multitenant.Tenant
	if tenantID != "" {
		t, err := s.manager.Get(tenantID)
		if err != nil {
			return nil, nil, tenantError(err)
		}
		tenant = t
	}

	var names []string
	switch {
	case inline != nil:
		names = catalogNames(inline)
	case tenant != nil:
		products, err := tenant.Catalog.Active()
		if err != nil {
			return nil, nil, &apiError{http.StatusInternalServerError, "failed to load catalog", err}
		}
		names = catalog.Names(products)
	default:
		return nil, nil, &apiError{http.StatusBadRequest, "tenantId or catalog is required", nil}
	}

	if err := multitenant.ValidateCatalog(names, s.config.MaxCatalogSize); err != nil {
		return nil, nil, &apiError{http.StatusBadRequest, "invalid catalog", err}
	}
	return tenant, names, nil
}

// resolverFor returns the tenant's resolver, or a one-off resolver when the
// request overrides options
func (s *Server) resolverFor(tenant *multitenant.Tenant, override multitenant.Settings) (*resolution.Resolver, *apiError) {
	base := s.resolver
	var settings multitenant.Settings
	if tenant != nil {
		base = tenant.Resolver
		settings = tenant.Settings
	}
	if override.IsZero() {
		return base, nil
	}

	opts := settings.Merge(override).Apply(resolution.DefaultOptions())
	if err := multitenant.ValidateOptions(opts); err != nil {
		return nil, &apiError{http.StatusBadRequest, "invalid options", err}
	}
	r, err := resolution.NewResolver(opts)
	if err != nil {
		return nil, &apiError{http.StatusBadRequest, "invalid options", err}
	}
	return r, nil
}

func tenantError(err error) *apiError {
	if errors.Is(err, multitenant.ErrTenantNotFound) {
		return &apiError{http.StatusNotFound, "tenant not found", err}
	}
	return &apiError{http.StatusInternalServerError, "failed to load tenant", err}
}

func storeError(err error, what string) *apiError {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, policy.ErrPolicyNotFound):
		return &apiError{http.StatusNotFound, what + " not found", err}
	case errors.Is(err, catalog.ErrProductExists), errors.Is(err, policy.ErrPolicyExists):
		return &apiError{http.StatusConflict, what + " already exists", err}
	default:
		return &apiError{http.StatusInternalServerError, what + " operation failed", err}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storage := "memory"
	if s.db != nil {
		storage = "postgres"
		if err := s.db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	cache := "memory"
	if s.redis != nil {
		cache = "redis"
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed", "error", err)
			cache = "redis-unavailable"
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"storage":       storage,
		"cache":         cache,
		"tenantsLoaded": len(s.manager.ListTenants()),
		"counters":      logger.Snapshot(),
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := multitenant.ValidateMessage(req.Message, s.config.MaxMessageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid message", err)
		return
	}

	tenant, names, apiErr := s.scope(req.TenantID, req.Catalog)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	resolver, apiErr := s.resolverFor(tenant, req.Options)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	start := time.Now()
	resp := ResolveResponse{}
	if req.Explain {
		resp.Explanations = resolver.Explain(req.Message, names)
		resp.Lines = []resolution.ResolvedOrderLine{}
		for _, ex := range resp.Explanations {
			if ex.Line != nil {
				resp.Lines = append(resp.Lines, *ex.Line)
			}
		}
	} else {
		resp.Lines = resolver.Resolve(req.Message, names)
	}
	resp.Summary = resolution.Render(resp.Lines)

	if tenant != nil {
		results, err := tenant.Policies.Evaluate(resp.Lines)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "policy evaluation failed", err)
			return
		}
		resp.PolicyResults = policy.Flagged(results)
	}
	resp.ResolutionTime = time.Since(start).String()

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Phrase == "" {
		respondError(w, http.StatusBadRequest, "phrase is required", nil)
		return
	}
	if err := multitenant.ValidateMessage(req.Phrase, s.config.MaxMessageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid phrase", err)
		return
	}

	threshold := resolution.SuggestionThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 100 {
		respondError(w, http.StatusBadRequest, "threshold must be between 0 and 100", nil)
		return
	}

	tenant, names, apiErr := s.scope(req.TenantID, req.Catalog)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	resolver, apiErr := s.resolverFor(tenant, req.Options)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	// A threshold below every possible score yields the best candidate
	best, found := resolver.MatchProduct(req.Phrase, names, -1)
	resp := MatchResponse{Score: best.Score}
	if found && best.Score > threshold {
		resp.Matched = true
		resp.ProductName = best.Entry.CanonicalName
	} else {
		logger.Unresolved(req.Phrase, threshold)
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req PurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := multitenant.ValidateMessage(req.Text, s.config.MaxMessageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid text", err)
		return
	}

	threshold := resolution.AuthoritativeThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 100 {
		respondError(w, http.StatusBadRequest, "threshold must be between 0 and 100", nil)
		return
	}

	tenant, names, apiErr := s.scope(req.TenantID, req.Catalog)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	resolver := s.resolver
	if tenant != nil {
		resolver = tenant.Resolver
	}

	order := purchaseorder.NewParser(resolver, threshold).Build(req.Text, names)
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"tenants": s.manager.ListTenants(),
	})
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := multitenant.ValidateTenantName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, "invalid tenant", err)
		return
	}

	info, err := s.manager.CreateTenant(req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create tenant", err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

// tenant resolves the {tenantId} URL parameter, writing the error response on failure
func (s *Server) tenant(w http.ResponseWriter, r *http.Request) (*multitenant.Tenant, bool) {
	t, err := s.manager.Get(chi.URLParam(r, "tenantId"))
	if err != nil {
		tenantError(err).write(w)
		return nil, false
	}
	return t, true
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, SettingsResponse{
		Version:    tenant.Version,
		Definition: tenant.Settings,
		Effective:  tenant.Resolver.Options(),
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := multitenant.ValidateSettings(req.Definition); err != nil {
		respondError(w, http.StatusBadRequest, "invalid settings", err)
		return
	}

	version, err := s.manager.UpdateSettings(chi.URLParam(r, "tenantId"), req.Definition)
	if err != nil {
		tenantError(err).write(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "active",
		"version": version,
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	products, err := tenant.Catalog.List()
	if err != nil {
		storeError(err, "product").write(w)
		return
	}
	if products == nil {
		products = []*catalog.Product{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"products": products,
	})
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := multitenant.ValidateProductName(req.ProductName); err != nil {
		respondError(w, http.StatusBadRequest, "invalid product", err)
		return
	}

	product := &catalog.Product{
		ID:     req.ID,
		Name:   req.ProductName,
		Active: req.Active == nil || *req.Active,
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	if err := tenant.Catalog.Add(product); err != nil {
		storeError(err, "product").write(w)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	product, err := tenant.Catalog.Get(chi.URLParam(r, "productId"))
	if err != nil {
		storeError(err, "product").write(w)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := tenant.Catalog.Get(chi.URLParam(r, "productId"))
	if err != nil {
		storeError(err, "product").write(w)
		return
	}

	updated := *existing
	if req.ProductName != "" {
		if err := multitenant.ValidateProductName(req.ProductName); err != nil {
			respondError(w, http.StatusBadRequest, "invalid product", err)
			return
		}
		updated.Name = req.ProductName
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	if err := tenant.Catalog.Update(&updated); err != nil {
		storeError(err, "product").write(w)
		return
	}

	respondJSON(w, http.StatusOK, &updated)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	if err := tenant.Catalog.Delete(chi.URLParam(r, "productId")); err != nil {
		storeError(err, "product").write(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	policies, err := tenant.Policies.Store().List()
	if err != nil {
		storeError(err, "policy").write(w)
		return
	}
	if policies == nil {
		policies = []*policy.Policy{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"policies": policies,
	})
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req PolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Expression == "" {
		respondError(w, http.StatusBadRequest, "name and expression are required", nil)
		return
	}

	p := &policy.Policy{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Expression: req.Expression,
		Active:     req.Active == nil || *req.Active,
	}

	if err := tenant.Policies.AddPolicy(p); err != nil {
		if errors.Is(err, policy.ErrPolicyExists) {
			storeError(err, "policy").write(w)
			return
		}
		respondError(w, http.StatusBadRequest, "failed to add policy", err)
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	p, err := tenant.Policies.Store().Get(chi.URLParam(r, "policyId"))
	if err != nil {
		storeError(err, "policy").write(w)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	var req PolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := tenant.Policies.Store().Get(chi.URLParam(r, "policyId"))
	if err != nil {
		storeError(err, "policy").write(w)
		return
	}

	updated := *existing
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Expression != "" {
		updated.Expression = req.Expression
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	if err := tenant.Policies.UpdatePolicy(&updated); err != nil {
		if errors.Is(err, policy.ErrPolicyNotFound) {
			storeError(err, "policy").write(w)
			return
		}
		respondError(w, http.StatusBadRequest, "failed to update policy", err)
		return
	}

	respondJSON(w, http.StatusOK, &updated)
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	tenant, ok := s.tenant(w, r)
	if !ok {
		return
	}

	if err := tenant.Policies.DeletePolicy(chi.URLParam(r, "policyId")); err != nil {
		storeError(err, "policy").write(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
