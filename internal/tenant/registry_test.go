package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func writeTenantsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTenantsFile(t, `{
		"tenants": [
			{"tenant_id": "acme-store", "name": "Acme Store", "plan": "pro", "features": {"webhooks": true}},
			{"tenant_id": "beta-shop", "name": "Beta Shop", "plan": "free", "webhook_secret": "whsec_test"}
		]
	}`)

	registry, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Len(t, registry.All(), 2)
	assert.True(t, registry.Exists("acme-store"))
	assert.False(t, registry.Exists("unknown"))

	cfg := registry.Get("acme-store")
	require.NotNil(t, cfg)
	assert.Equal(t, "Acme Store", cfg.Name)
	assert.Equal(t, "pro", cfg.Plan)

	assert.True(t, registry.HasFeature("acme-store", "webhooks"))
	assert.False(t, registry.HasFeature("acme-store", "sso"))
	assert.False(t, registry.HasFeature("unknown", "webhooks"))

	assert.Equal(t, "whsec_test", registry.GetWebhookSecret("beta-shop"))
	assert.Equal(t, "", registry.GetWebhookSecret("acme-store"))
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeTenantsFile(t, `{not json`)
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestVerifyAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sk_live_secret"), bcrypt.MinCost)
	require.NoError(t, err)

	registry := NewRegistry()
	registry.Register(&TenantConfig{TenantID: "acme-store", APIKeyHash: string(hash)})
	registry.Register(&TenantConfig{TenantID: "no-key"})

	assert.True(t, registry.VerifyAPIKey("acme-store", "sk_live_secret"))
	assert.False(t, registry.VerifyAPIKey("acme-store", "wrong"))
	assert.False(t, registry.VerifyAPIKey("acme-store", ""))
	assert.False(t, registry.VerifyAPIKey("no-key", "sk_live_secret"))
	assert.False(t, registry.VerifyAPIKey("unknown", "sk_live_secret"))
}
