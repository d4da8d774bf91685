package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type TenantConfig struct {
	TenantID string          `json:"tenant_id"`
	Name     string          `json:"name"`
	Plan     string          `json:"plan"`
	Features map[string]bool `json:"features"`

	// WebhookSecret authenticates payment-processor webhook deliveries.
	WebhookSecret string `json:"webhook_secret"`

	// APIKeyHash is the bcrypt hash of the tenant's server-to-server API key.
	APIKeyHash string `json:"api_key_hash"`
}

type TenantsFile struct {
	Tenants []TenantConfig `json:"tenants"`
}

type Registry struct {
	mu      sync.RWMutex
	tenants map[string]*TenantConfig
}

func NewRegistry() *Registry {
	return &Registry{
		tenants: make(map[string]*TenantConfig),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants config: %w", err)
	}

	var file TenantsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants config: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Tenants {
		registry.Register(&file.Tenants[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *TenantConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[cfg.TenantID] = cfg
}

func (r *Registry) Get(tenantID string) *TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[tenantID]
}

func (r *Registry) Exists(tenantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tenants[tenantID]
	return ok
}

func (r *Registry) HasFeature(tenantID, feature string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.tenants[tenantID]
	if !ok {
		return false
	}
	return cfg.Features[feature]
}

func (r *Registry) All() []*TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*TenantConfig, 0, len(r.tenants))
	for _, cfg := range r.tenants {
		result = append(result, cfg)
	}
	return result
}

func (r *Registry) GetWebhookSecret(tenantID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.tenants[tenantID]
	if !ok {
		return ""
	}
	return cfg.WebhookSecret
}

// VerifyAPIKey checks a server-to-server API key against the tenant's stored
// bcrypt hash.
func (r *Registry) VerifyAPIKey(tenantID, apiKey string) bool {
	r.mu.RLock()
	cfg, ok := r.tenants[tenantID]
	r.mu.RUnlock()
	if !ok || cfg.APIKeyHash == "" || apiKey == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(cfg.APIKeyHash), []byte(apiKey)) == nil
}
