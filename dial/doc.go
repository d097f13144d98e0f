// Copyright (c) Microsoft. All rights reserved.

// Package dial provides two interchangeable [chat.Client] implementations
// for Azure-style chat-completion deployments served at
// {endpoint}/openai/deployments/{deployment}/chat/completions.
//
//   - [ManagedClient] delegates request construction, authentication and
//     event framing to the go-openai client in Azure mode.
//   - [RawClient] builds each request explicitly over net/http and decodes
//     the event stream itself with a [Decoder].
//
// Given the same history and the same upstream bytes, both produce the same
// assistant message:
//
//	client := dial.NewRaw(endpoint, os.Getenv("DIAL_API_KEY"), "gpt-4o",
//	    dial.WithOutput(os.Stdout),
//	)
//	msg, err := client.StreamCompletion(ctx, conv.Messages())
//
// # Configuration
//
// Use functional options to configure either client:
//
//   - [WithHTTPClient]: provide a custom http.Client (timeouts, proxies)
//   - [WithHeaders]: add custom headers to every request
//   - [WithAzureCredential]: authenticate with Microsoft Entra ID instead of a key
//   - [WithAPIVersion]: set the api-version query parameter
//   - [WithOutput]: display assistant text as it arrives
//   - [WithLogger]: route request diagnostics to a slog.Logger
//
// # Stream decoding
//
// Events are framed as "data: <json>" lines and terminated by "data: [DONE]".
// Other lines are skipped. A payload that is not JSON fails the call with a
// *chat.MalformedChunkError; a stream that ends without the sentinel is
// accepted with whatever text arrived.
package dial
