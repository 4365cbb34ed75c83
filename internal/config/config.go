package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Azure   AzureConfig
	Client  ClientConfig
	Observe ObserveConfig
}

// AzureConfig identifies the Entra ID application used for the
// client-credentials exchange. The three credential values are required:
// there is no interactive fallback, a missing credential fails startup.
type AzureConfig struct {
	TenantID     string `env:"AAD_TENANT_ID, required"`
	ClientID     string `env:"AAD_CLIENT_ID, required"`
	ClientSecret string `env:"AAD_CLIENT_SECRET, required"`

	LoginURL string // internal only
	GraphURL string // internal only
}

type ClientConfig struct {
	TimeoutSeconds int `env:"HTTP_TIMEOUT_SECS, default=60"`

	OutgoingHTTPMaxIdleConns    int `env:"HTTP_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"HTTP_MAX_CONNS_PER_HOST, default=20"`

	// Client-side throttle for Graph requests. Graph allows roughly
	// 10,000 requests per 10 minutes; the default stays well under that.
	RequestsPerSecond float64 `env:"GRAPH_REQUESTS_PER_SEC, default=10"`
	RequestBurst      int     `env:"GRAPH_REQUEST_BURST, default=15"`
}

type ObserveConfig struct {
	HTTPTransportEnabled bool `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=false"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Client.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid client configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the client configuration is usable.
func (c *ClientConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECS must not be negative")
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("GRAPH_REQUESTS_PER_SEC must be positive")
	}

	if c.RequestBurst < 1 {
		return fmt.Errorf("GRAPH_REQUEST_BURST must be at least 1")
	}

	return nil
}
