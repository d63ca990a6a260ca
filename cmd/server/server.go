package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/nexabiz/orderres/catalog"
	"github.com/nexabiz/orderres/internal/logger"
	"github.com/nexabiz/orderres/multitenant"
	"github.com/nexabiz/orderres/resolution"
)

const (
	slowRequestThreshold = 500 * time.Millisecond
	maxRequestBodyBytes  = 4 << 20
)

// Config is the service configuration read from the environment
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	Port            string
	RateLimit       float64
	RateBurst       int
	MaxMessageBytes int
	MaxCatalogSize  int
	CatalogCacheTTL time.Duration
}

// DefaultConfig returns the configuration used when no variables are set
func DefaultConfig() Config {
	return Config{
		Port:            "8080",
		RateLimit:       50,
		RateBurst:       100,
		MaxMessageBytes: multitenant.DefaultMaxMessageBytes,
		MaxCatalogSize:  multitenant.DefaultMaxCatalogSize,
	}
}

// LoadConfig reads the configuration from the environment
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if v := os.Getenv("RESOLVE_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("invalid RESOLVE_RATE_LIMIT %q", v)
		}
		cfg.RateLimit = limit
	}

	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl < 0 {
			return Config{}, fmt.Errorf("invalid CATALOG_CACHE_TTL %q", v)
		}
		cfg.CatalogCacheTTL = ttl
	}

	for name, dst := range map[string]*int{
		"RESOLVE_RATE_BURST": &cfg.RateBurst,
		"MAX_MESSAGE_BYTES":  &cfg.MaxMessageBytes,
		"MAX_CATALOG_SIZE":   &cfg.MaxCatalogSize,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q", name, v)
		}
		*dst = n
	}

	return cfg, nil
}

// Server is the order resolution HTTP service
type Server struct {
	db       *sql.DB
	redis    *redis.Client
	config   Config
	manager  *multitenant.Manager
	resolver *resolution.Resolver
	limiter  *rate.Limiter
	router   *chi.Mux
}

// NewServer builds a server. db and rdb may be nil, in which case tenants live
// in memory and catalogs are cached in process.
func NewServer(cfg Config, db *sql.DB, rdb *redis.Client) (*Server, error) {
	opts := []multitenant.Option{
		multitenant.WithCacheConfig(catalog.CacheConfig{TTL: cfg.CatalogCacheTTL}),
	}
	if rdb != nil {
		opts = append(opts, multitenant.WithRedis(rdb))
	}
	manager := multitenant.NewManager(db, opts...)

	if err := manager.LoadAllTenants(); err != nil {
		return nil, fmt.Errorf("failed to load tenants: %w", err)
	}

	resolver, err := resolution.NewResolver(resolution.DefaultOptions())
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:       db,
		redis:    rdb,
		config:   cfg,
		manager:  manager,
		resolver: resolver,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.RequestSize(maxRequestBodyBytes))

	r.Get("/api/v1/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.limiter))
		r.Post("/api/v1/resolve", s.handleResolve)
		r.Post("/api/v1/match", s.handleMatch)
		r.Post("/api/v1/purchase-orders", s.handlePurchaseOrder)
	})

	r.Route("/api/v1/tenants", func(r chi.Router) {
		r.Get("/", s.handleListTenants)
		r.Post("/", s.handleCreateTenant)

		r.Route("/{tenantId}", func(r chi.Router) {
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)

			r.Get("/products", s.handleListProducts)
			r.Post("/products", s.handleCreateProduct)
			r.Get("/products/{productId}", s.handleGetProduct)
			r.Put("/products/{productId}", s.handleUpdateProduct)
			r.Delete("/products/{productId}", s.handleDeleteProduct)

			r.Get("/policies", s.handleListPolicies)
			r.Post("/policies", s.handleCreatePolicy)
			r.Get("/policies/{policyId}", s.handleGetPolicy)
			r.Put("/policies/{policyId}", s.handleUpdatePolicy)
			r.Delete("/policies/{policyId}", s.handleDeletePolicy)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs every request with its status and latency and feeds the counters
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.HTTPStatus(status)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed.String(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		switch {
		case status >= 500:
			logger.Error("request failed", attrs...)
		case elapsed > slowRequestThreshold:
			logger.SlowRequest()
			logger.Warn("slow request", attrs...)
		default:
			logger.Debug("request", attrs...)
		}
	})
}

// rateLimit rejects requests once the token bucket is empty
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}
