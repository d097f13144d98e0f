// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dialkit/dialchat/chat"
)

// ManagedClient implements [chat.Client] on top of the go-openai client in
// Azure mode, which owns request construction, the api-key header, JSON
// (de)serialization and event framing. Use [NewManaged] to create one.
type ManagedClient struct {
	api        *openai.Client
	deployment string
	output     io.Writer
	logger     *slog.Logger
}

// Verify interface compliance at compile time.
var _ chat.Client = (*ManagedClient)(nil)

// NewManaged creates a [ManagedClient] for the deployment served at endpoint.
//
//	client := dial.NewManaged("https://ai-proxy.example.com", key, "gpt-4o",
//	    dial.WithOutput(os.Stdout),
//	)
func NewManaged(endpoint, apiKey, deployment string, opts ...Option) *ManagedClient {
	cfg := resolveOptions(opts)

	oc := openai.DefaultAzureConfig(apiKey, strings.TrimRight(endpoint, "/"))
	// Deployment names are used verbatim.
	oc.AzureModelMapperFunc = func(model string) string { return model }
	if cfg.apiVersion != "" {
		oc.APIVersion = cfg.apiVersion
	}
	if cfg.azureCredential != nil {
		oc.APIType = openai.APITypeAzureAD
	}
	// Non-event lines are never an error, however many arrive in a row.
	oc.EmptyMessagesLimit = math.MaxUint
	oc.HTTPClient = &statusDoer{
		client:     cfg.httpClient,
		headers:    cfg.headers,
		credential: cfg.azureCredential,
		logger:     cfg.logger,
	}

	return &ManagedClient{
		api:        openai.NewClientWithConfig(oc),
		deployment: deployment,
		output:     cfg.output,
		logger:     cfg.logger,
	}
}

// Completion sends a non-streaming request and returns the first choice.
func (c *ManagedClient) Completion(ctx context.Context, history []chat.Message, opts ...chat.CallOption) (chat.Message, error) {
	call := chat.ResolveCallConfig(c.deployment, opts...)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    call.Deployment,
		Messages: convertMessages(history),
	})
	if err != nil {
		return chat.Message{}, mapManagedError(err, "parse response")
	}
	if len(resp.Choices) == 0 {
		return chat.Message{}, chat.ErrNoChoices
	}
	return display(c.output, chat.NewAssistantMessage(resp.Choices[0].Message.Content))
}

// StreamCompletion sends a streaming request, displays each delta as it is
// received and returns the assembled message.
func (c *ManagedClient) StreamCompletion(ctx context.Context, history []chat.Message, opts ...chat.CallOption) (chat.Message, error) {
	stream, err := c.Stream(ctx, history, opts...)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Drain(ctx, stream, chat.NewAssembler(c.output))
}

// Stream sends a streaming request and returns its content deltas without
// displaying them. The caller must drain or Close the stream.
func (c *ManagedClient) Stream(ctx context.Context, history []chat.Message, opts ...chat.CallOption) (*chat.DeltaStream, error) {
	call := chat.ResolveCallConfig(c.deployment, opts...)

	reqCtx, slot := withTapSlot(ctx)
	s, err := c.api.CreateChatCompletionStream(reqCtx, openai.ChatCompletionRequest{
		Model:    call.Deployment,
		Messages: convertMessages(history),
		Stream:   true,
	})
	if err != nil {
		return nil, mapManagedError(err, "open stream")
	}

	next := func(ctx context.Context) (string, bool, error) {
		raw, err := s.RecvRaw()
		if err != nil || len(raw) == 0 {
			// go-openai folds error events into its own error path, or
			// into an empty read when it cannot decode them.
			if evErr := slot.errorEvent(); evErr != nil {
				return "", false, evErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				c.logger.DebugContext(ctx, "stream ended")
				return "", false, nil
			}
			return "", false, mapManagedError(err, "read stream")
		}
		return decodeManagedChunk(raw, slot)
	}
	return chat.NewDeltaStream(next, closerFunc(func() error {
		s.Close()
		return nil
	})), nil
}

// decodeManagedChunk decodes one event payload handed over by go-openai.
func decodeManagedChunk(raw []byte, slot *tapSlot) (string, bool, error) {
	payload := strings.TrimSpace(string(raw))
	if payload == doneSentinel {
		return "", false, nil
	}

	var resp openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return "", false, &chat.MalformedChunkError{Payload: payload, Err: err}
	}

	var event struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &event); err == nil &&
		len(event.Error) > 0 && string(event.Error) != "null" {
		te := &chat.TransportError{Body: payload, Err: ErrErrorEvent}
		if slot.tap != nil {
			te.StatusCode = slot.tap.status
		}
		return "", false, te
	}
	return streamDelta(resp), true, nil
}

// streamDelta extracts choices[0].delta.content from a decoded chunk.
func streamDelta(resp openai.ChatCompletionStreamResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Delta.Content
}

func convertMessages(history []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// mapManagedError translates go-openai failures into the chat error taxonomy.
// Transport errors raised by statusDoer pass through untouched.
func mapManagedError(err error, op string) error {
	var te *chat.TransportError
	if errors.As(err, &te) {
		return te
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %s: %v", chat.ErrProtocol, op, err)
	}
	return &chat.TransportError{Err: fmt.Errorf("%s: %w", op, err)}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// statusDoer is the HTTP doer handed to go-openai. It applies custom headers
// and Entra ID authentication, and turns every non-2xx response into a
// *chat.TransportError with the verbatim body before go-openai parses it.
// Streaming bodies are wrapped in an [eventTap].
type statusDoer struct {
	client     *http.Client
	headers    map[string]string
	credential azcore.TokenCredential
	logger     *slog.Logger
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	if err := authenticate(ctx, req, d.credential, d.logger); err != nil {
		return nil, &chat.TransportError{Err: err}
	}

	d.logger.DebugContext(ctx, "sending chat completion request", "url", req.URL.String())
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &chat.TransportError{Err: fmt.Errorf("http request: %w", err)}
	}
	if !isSuccess(resp) {
		defer resp.Body.Close()
		return nil, newTransportError(resp)
	}
	if slot := tapSlotFrom(ctx); slot != nil {
		slot.tap = newEventTap(resp)
		resp.Body = slot.tap
	}
	return resp, nil
}
