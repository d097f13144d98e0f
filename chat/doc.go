// Copyright (c) Microsoft. All rights reserved.

// Package chat provides the core types for holding a multi-turn conversation
// with a chat-completion endpoint: role-tagged [Message] values, the
// append-only [Conversation], the [Client] interface implemented by the dial
// package, and the streaming pipeline pieces shared by every implementation.
//
// # Streaming
//
// A streaming call produces a [DeltaStream], a pull-based iterator of content
// deltas decoded one event at a time on the caller's goroutine. [Drain] feeds
// each delta into an [Assembler], which displays the delta and then appends
// it, so the displayed text and the final message never diverge:
//
//	a := chat.NewAssembler(os.Stdout)
//	msg, err := chat.Drain(ctx, stream, a)
//
// # Errors
//
// Failures are reported with sentinel errors ([ErrNoChoices],
// [ErrMalformedChunk], [ErrTransport]) and the typed [TransportError] and
// [MalformedChunkError], which carry the diagnostic payload:
//
//	var te *chat.TransportError
//	if errors.As(err, &te) {
//	    log.Printf("status %d: %s", te.StatusCode, te.Body)
//	}
package chat
