// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// clientConfig holds resolved configuration shared by both clients.
type clientConfig struct {
	httpClient      *http.Client
	headers         map[string]string
	azureCredential azcore.TokenCredential
	apiVersion      string
	output          io.Writer
	logger          *slog.Logger
}

// Option configures a [RawClient] or a [ManagedClient].
type Option func(*clientConfig)

// WithHTTPClient provides a custom http.Client for requests. Its Timeout,
// if any, bounds each request; a timeout surfaces as a *chat.TransportError.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) { c.headers = headers }
}

// WithAzureCredential enables Microsoft Entra ID token authentication.
// Requests carry "Authorization: Bearer <token>" instead of the api-key header.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}

// WithAPIVersion sets the api-version query parameter. The managed client
// falls back to the go-openai default; the raw client omits the parameter
// unless one is set.
func WithAPIVersion(version string) Option {
	return func(c *clientConfig) { c.apiVersion = version }
}

// WithOutput sets where assistant text is displayed as it is produced.
// The default discards it.
func WithOutput(w io.Writer) Option {
	return func(c *clientConfig) { c.output = w }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

func resolveOptions(opts []Option) *clientConfig {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}
	if cfg.output == nil {
		cfg.output = io.Discard
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}
