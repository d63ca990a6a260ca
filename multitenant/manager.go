// Package multitenant keeps one resolver, catalog and policy engine per tenant
// and validates tenant input before it reaches them.
package multitenant

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexabiz/orderres/catalog"
	"github.com/nexabiz/orderres/internal/logger"
	"github.com/nexabiz/orderres/policy"
	"github.com/nexabiz/orderres/resolution"
)

// ErrTenantNotFound is returned for tenant IDs the manager does not know
var ErrTenantNotFound = errors.New("tenant not found")

// TenantInfo identifies a tenant
type TenantInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tenant is everything needed to resolve one tenant's orders. A Tenant is
// never modified after it is built; settings changes swap in a new one that
// shares the catalog and policies.
type Tenant struct {
	Info     TenantInfo
	Settings Settings
	Version  int
	Resolver *resolution.Resolver
	Catalog  *catalog.CachedCatalog
	Policies *policy.Engine
}

// Option configures a Manager
type Option func(*Manager)

// WithRedis shares each tenant's active catalog through Redis
func WithRedis(client *redis.Client) Option {
	return func(m *Manager) {
		m.redis = client
	}
}

// WithCacheConfig sets the catalog cache TTL
func WithCacheConfig(config catalog.CacheConfig) Option {
	return func(m *Manager) {
		m.cacheConfig = config
	}
}

// Manager owns the loaded tenants. With a nil database every store is in memory.
type Manager struct {
	db          *sql.DB
	redis       *redis.Client
	cacheConfig catalog.CacheConfig
	tenants     map[string]*Tenant
	mu          sync.RWMutex
	settingsMu  sync.Mutex
}

// NewManager creates a manager backed by db, which may be nil
func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{
		db:          db,
		cacheConfig: catalog.DefaultCacheConfig(),
		tenants:     make(map[string]*Tenant),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Persistent reports whether tenants are stored in PostgreSQL
func (m *Manager) Persistent() bool {
	return m.db != nil
}

// LoadAllTenants loads every tenant and its active settings from the database
func (m *Manager) LoadAllTenants() error {
	if m.db == nil {
		return nil
	}

	rows, err := m.db.Query(`
		SELECT t.id, t.name, t.created_at, s.version, s.definition
		FROM tenants t
		LEFT JOIN resolver_settings s ON s.tenant_id = t.id AND s.active = true
		ORDER BY t.created_at ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch tenants: %w", err)
	}
	defer rows.Close()

	var loaded []*Tenant
	for rows.Next() {
		var (
			info       TenantInfo
			version    sql.NullInt64
			definition []byte
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.CreatedAt, &version, &definition); err != nil {
			return fmt.Errorf("failed to scan tenant row: %w", err)
		}

		t, err := m.buildFromRow(info, version, definition)
		if err != nil {
			return err
		}
		loaded = append(loaded, t)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tenant rows: %w", err)
	}

	m.mu.Lock()
	for _, t := range loaded {
		m.tenants[t.Info.ID] = t
	}
	m.mu.Unlock()

	logger.Info("tenants loaded", "count", len(loaded))
	return nil
}

func (m *Manager) buildFromRow(info TenantInfo, version sql.NullInt64, definition []byte) (*Tenant, error) {
	var settings Settings
	if definition != nil {
		if err := json.Unmarshal(definition, &settings); err != nil {
			return nil, fmt.Errorf("invalid settings for tenant %s: %w", info.ID, err)
		}
	}

	t, err := m.build(info, settings, int(version.Int64))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tenant %s: %w", info.ID, err)
	}
	return t, nil
}

// build wires a tenant's stores, caches, policy engine and resolver
func (m *Manager) build(info TenantInfo, settings Settings, version int) (*Tenant, error) {
	resolver, err := resolution.NewResolver(settings.Apply(resolution.DefaultOptions()))
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	var (
		products catalog.ProductStore
		policies policy.PolicyStore
		cache    catalog.ProductCache
	)
	if m.db != nil {
		products = catalog.NewPostgresProductStore(m.db, info.ID)
		policies = policy.NewPostgresPolicyStore(m.db, info.ID)
	} else {
		products = catalog.NewInMemoryProductStore()
		policies = policy.NewInMemoryPolicyStore()
	}
	if m.redis != nil {
		cache = catalog.NewRedisProductCache(m.redis, info.ID, m.cacheConfig)
	} else {
		cache = catalog.NewInMemoryProductCache(m.cacheConfig)
	}

	engine, err := policy.NewEngine(policies)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy engine: %w", err)
	}

	return &Tenant{
		Info:     info,
		Settings: settings,
		Version:  version,
		Resolver: resolver,
		Catalog:  catalog.NewCachedCatalog(products, cache),
		Policies: engine,
	}, nil
}

// CreateTenant registers a new tenant with default settings
func (m *Manager) CreateTenant(name string) (TenantInfo, error) {
	if err := ValidateTenantName(name); err != nil {
		return TenantInfo{}, err
	}

	info := TenantInfo{Name: name}
	if m.db != nil {
		err := m.db.QueryRow(`
			INSERT INTO tenants (name, created_at, updated_at)
			VALUES ($1, NOW(), NOW())
			RETURNING id, created_at
		`, name).Scan(&info.ID, &info.CreatedAt)
		if err != nil {
			return TenantInfo{}, fmt.Errorf("failed to create tenant: %w", err)
		}
	} else {
		info.ID = uuid.NewString()
		info.CreatedAt = time.Now()
	}

	t, err := m.build(info, Settings{}, 0)
	if err != nil {
		return TenantInfo{}, err
	}

	m.mu.Lock()
	m.tenants[info.ID] = t
	m.mu.Unlock()

	return info, nil
}

// Get returns a tenant, loading it from the database if another instance created it
func (m *Manager) Get(tenantID string) (*Tenant, error) {
	m.mu.RLock()
	t, exists := m.tenants[tenantID]
	m.mu.RUnlock()
	if exists {
		return t, nil
	}

	if m.db == nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}
	return m.loadTenant(tenantID)
}

func (m *Manager) loadTenant(tenantID string) (*Tenant, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}

	var (
		info       TenantInfo
		version    sql.NullInt64
		definition []byte
	)
	err := m.db.QueryRow(`
		SELECT t.id, t.name, t.created_at, s.version, s.definition
		FROM tenants t
		LEFT JOIN resolver_settings s ON s.tenant_id = t.id AND s.active = true
		WHERE t.id = $1
	`, tenantID).Scan(&info.ID, &info.Name, &info.CreatedAt, &version, &definition)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	t, err := m.buildFromRow(info, version, definition)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.tenants[tenantID]; ok {
		return existing, nil
	}
	m.tenants[tenantID] = t
	return t, nil
}

// ListTenants returns the loaded tenants, oldest first
func (m *Manager) ListTenants() []TenantInfo {
	m.mu.RLock()
	infos := make([]TenantInfo, 0, len(m.tenants))
	for _, t := range m.tenants {
		infos = append(infos, t.Info)
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// UpdateSettings stores a new settings version for a tenant and swaps in a
// resolver built from it. In-flight requests keep the resolver they started with.
func (m *Manager) UpdateSettings(tenantID string, settings Settings) (int, error) {
	if err := ValidateSettings(settings); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	m.settingsMu.Lock()
	defer m.settingsMu.Unlock()

	current, err := m.Get(tenantID)
	if err != nil {
		return 0, err
	}

	resolver, err := resolution.NewResolver(settings.Apply(resolution.DefaultOptions()))
	if err != nil {
		return 0, fmt.Errorf("invalid settings: %w", err)
	}

	version := current.Version + 1
	if m.db != nil {
		if version, err = m.saveSettings(tenantID, settings); err != nil {
			return 0, err
		}
	}

	next := *current
	next.Settings = settings
	next.Version = version
	next.Resolver = resolver

	m.mu.Lock()
	m.tenants[tenantID] = &next
	m.mu.Unlock()

	logger.Info("tenant settings updated", "tenant", tenantID, "version", version)
	return version, nil
}

func (m *Manager) saveSettings(tenantID string, settings Settings) (int, error) {
	definition, err := json.Marshal(settings)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal settings: %w", err)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE resolver_settings
		SET active = false
		WHERE tenant_id = $1 AND active = true
	`, tenantID); err != nil {
		return 0, fmt.Errorf("failed to deactivate old settings: %w", err)
	}

	var version int
	err = tx.QueryRow(`
		INSERT INTO resolver_settings (tenant_id, version, definition, active, created_at)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2::jsonb, true, NOW()
		FROM resolver_settings
		WHERE tenant_id = $1
		RETURNING version
	`, tenantID, string(definition)).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to save settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit settings: %w", err)
	}
	return version, nil
}

// UnloadTenant drops a tenant from memory. Stored data is left in place.
func (m *Manager) UnloadTenant(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tenants[tenantID]; !exists {
		return fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}
	delete(m.tenants, tenantID)
	return nil
}
