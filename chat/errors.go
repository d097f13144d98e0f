// Copyright (c) Microsoft. All rights reserved.

package chat

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrTransport is the base error for failures reaching the endpoint or
	// non-success responses from it.
	ErrTransport = errors.New("transport error")

	// ErrProtocol is the base error for responses that do not follow the
	// chat-completion wire format.
	ErrProtocol = errors.New("protocol error")

	// ErrNoChoices indicates a well-formed response that carries no choices.
	ErrNoChoices = fmt.Errorf("%w: no choices in response", ErrProtocol)

	// ErrMalformedChunk indicates a streaming event whose payload is not JSON.
	ErrMalformedChunk = fmt.Errorf("%w: malformed chunk", ErrProtocol)
)

// TransportError carries the diagnostic payload of a failed request.
// StatusCode is 0 when no response was received (connection failure,
// timeout); Err then holds the cause.
// Use errors.As to extract it from a wrapped error chain.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("transport error: %v", e.Err)
		}
		return "transport error"
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap exposes both the cause and [ErrTransport].
func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}

// MalformedChunkError reports a streaming event payload that could not be
// decoded. Payload is the raw text after the "data: " prefix when the
// decoder had access to it.
type MalformedChunkError struct {
	Payload string
	Err     error
}

func (e *MalformedChunkError) Error() string {
	if e.Payload == "" {
		return fmt.Sprintf("malformed chunk: %v", e.Err)
	}
	return fmt.Sprintf("malformed chunk %q: %v", e.Payload, e.Err)
}

func (e *MalformedChunkError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedChunk, e.Err}
	}
	return []error{ErrMalformedChunk}
}
