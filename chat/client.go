// Copyright (c) Microsoft. All rights reserved.

package chat

import "context"

// Client is the interface for obtaining assistant replies from a
// chat-completion endpoint. The dial package provides two implementations
// that are interchangeable from the caller's point of view.
//
// history must be non-empty and end in a system or user message; Client
// does not re-validate it. Implementations never modify history.
type Client interface {
	// Completion sends history as a non-streaming request and returns the
	// assistant message built from the first choice.
	Completion(ctx context.Context, history []Message, opts ...CallOption) (Message, error)

	// StreamCompletion sends history with streaming enabled, displays each
	// content delta as it arrives and returns the assembled assistant message.
	StreamCompletion(ctx context.Context, history []Message, opts ...CallOption) (Message, error)
}

// CallOption configures a single [Client] call.
type CallOption func(*CallConfig)

// CallConfig holds the request-scoped parameters of one call.
type CallConfig struct {
	// Deployment overrides the client's deployment for this call when set.
	Deployment string
}

// WithDeployment targets a different deployment for one call.
func WithDeployment(name string) CallOption {
	return func(c *CallConfig) { c.Deployment = name }
}

// ResolveCallConfig applies opts over the given default deployment.
func ResolveCallConfig(defaultDeployment string, opts ...CallOption) CallConfig {
	cfg := CallConfig{Deployment: defaultDeployment}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Deployment == "" {
		cfg.Deployment = defaultDeployment
	}
	return cfg
}
