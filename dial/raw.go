// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dialkit/dialchat/chat"
)

// RawClient implements [chat.Client] by building each HTTP request itself
// and decoding the event stream with a [Decoder]. Use [NewRaw] to create one.
type RawClient struct {
	tp         *httpTransport
	endpoint   string
	deployment string
	apiVersion string
	output     io.Writer
	logger     *slog.Logger
}

// Verify interface compliance at compile time.
var _ chat.Client = (*RawClient)(nil)

// NewRaw creates a [RawClient] for the deployment served at endpoint.
//
//	client := dial.NewRaw("https://ai-proxy.example.com", key, "gpt-4o",
//	    dial.WithOutput(os.Stdout),
//	)
func NewRaw(endpoint, apiKey, deployment string, opts ...Option) *RawClient {
	cfg := resolveOptions(opts)
	return &RawClient{
		tp:         newHTTPTransport(apiKey, cfg),
		endpoint:   endpoint,
		deployment: deployment,
		apiVersion: cfg.apiVersion,
		output:     cfg.output,
		logger:     cfg.logger,
	}
}

// Completion sends a non-streaming request and returns the first choice.
func (c *RawClient) Completion(ctx context.Context, history []chat.Message, opts ...chat.CallOption) (chat.Message, error) {
	call := chat.ResolveCallConfig(c.deployment, opts...)
	url := completionsURL(c.endpoint, call.Deployment, c.apiVersion)

	resp, err := c.tp.post(ctx, url, buildRequest(history, false))
	if err != nil {
		return chat.Message{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Message{}, &chat.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response body: %w", err),
		}
	}

	msg, err := parseCompletion(body)
	if err != nil {
		return chat.Message{}, err
	}
	return display(c.output, msg)
}

// StreamCompletion sends a streaming request, displays each delta as it is
// decoded and returns the assembled message.
func (c *RawClient) StreamCompletion(ctx context.Context, history []chat.Message, opts ...chat.CallOption) (chat.Message, error) {
	stream, err := c.Stream(ctx, history, opts...)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Drain(ctx, stream, chat.NewAssembler(c.output))
}

// Stream sends a streaming request and returns its content deltas without
// displaying them. The caller must drain or Close the stream.
func (c *RawClient) Stream(ctx context.Context, history []chat.Message, opts ...chat.CallOption) (*chat.DeltaStream, error) {
	call := chat.ResolveCallConfig(c.deployment, opts...)
	url := completionsURL(c.endpoint, call.Deployment, c.apiVersion)

	resp, err := c.tp.post(ctx, url, buildRequest(history, true))
	if err != nil {
		return nil, err
	}

	dec := NewDecoder(resp.Body)
	next := func(ctx context.Context) (string, bool, error) {
		chunk, err := dec.Next()
		switch {
		case err == nil:
			if chunk.Done {
				return "", false, nil
			}
			return chunk.Delta, true, nil
		case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
			c.logger.WarnContext(ctx, "stream closed before [DONE]")
			return "", false, nil
		case errors.Is(err, chat.ErrProtocol):
			return "", false, err
		case errors.Is(err, ErrErrorEvent):
			var te *chat.TransportError
			if errors.As(err, &te) {
				te.StatusCode = resp.StatusCode
			}
			return "", false, err
		default:
			return "", false, &chat.TransportError{Err: fmt.Errorf("read stream: %w", err)}
		}
	}
	return chat.NewDeltaStream(next, resp.Body), nil
}

// display writes a whole message to out the way a stream of one delta would
// be displayed.
func display(out io.Writer, msg chat.Message) (chat.Message, error) {
	a := chat.NewAssembler(out)
	if err := a.Add(msg.Content); err != nil {
		return chat.Message{}, err
	}
	return a.Finish()
}
