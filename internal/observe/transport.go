// Package observe wires OpenTelemetry instrumentation into the outgoing
// HTTP path.
package observe

import (
	"net/http"

	"github.com/entra-tools/devicectl/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPTransport wraps the base transport with OTel HTTP instrumentation
// when enabled. When disabled, the base transport is returned unchanged so
// there is no telemetry overhead on the request path.
func HTTPTransport(base http.RoundTripper, cfg config.ObserveConfig) http.RoundTripper {
	if !cfg.HTTPTransportEnabled {
		return base
	}

	return otelhttp.NewTransport(base)
}
