package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AAD_TENANT_ID", "test-tenant")
	t.Setenv("AAD_CLIENT_ID", "test-client")
	t.Setenv("AAD_CLIENT_SECRET", "test-secret")

	cfg, err := Load(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, "test-tenant", cfg.Azure.TenantID)
	assert.Equal(t, "test-client", cfg.Azure.ClientID)
	assert.Equal(t, "test-secret", cfg.Azure.ClientSecret)
	assert.Equal(t, 60, cfg.Client.TimeoutSeconds)
	assert.Equal(t, 100, cfg.Client.OutgoingHTTPMaxIdleConns)
	assert.Equal(t, 20, cfg.Client.OutgoingHTTPMaxConnsPerHost)
	assert.Equal(t, 10.0, cfg.Client.RequestsPerSecond)
	assert.Equal(t, 15, cfg.Client.RequestBurst)
	assert.False(t, cfg.Observe.HTTPTransportEnabled)
}

func TestLoadMissingCredentials(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"AAD_TENANT_ID": "test-tenant",
		"AAD_CLIENT_ID": "test-client",
	}))
	assert.Error(t, err)
	assert.ErrorContains(t, err, "AAD_CLIENT_SECRET")
}

func TestLoadInvalidRateLimit(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"AAD_TENANT_ID":          "test-tenant",
		"AAD_CLIENT_ID":          "test-client",
		"AAD_CLIENT_SECRET":      "test-secret",
		"GRAPH_REQUESTS_PER_SEC": "0",
	}))
	assert.Error(t, err)
	assert.ErrorContains(t, err, "GRAPH_REQUESTS_PER_SEC")
}

func TestLoadObserveEnabled(t *testing.T) {
	t.Setenv("AAD_TENANT_ID", "test-tenant")
	t.Setenv("AAD_CLIENT_ID", "test-client")
	t.Setenv("AAD_CLIENT_SECRET", "test-secret")
	t.Setenv("OBSERVE_HTTP_TRANSPORT_ENABLED", "true")

	cfg, err := Load(context.Background())
	assert.NoError(t, err)
	assert.True(t, cfg.Observe.HTTPTransportEnabled)
}
