// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/dialkit/dialchat/chat"
)

const cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// authenticate swaps the api-key header for an Entra ID bearer token when a
// credential is configured. Without one, req is left as is.
func authenticate(ctx context.Context, req *http.Request, cred azcore.TokenCredential, logger *slog.Logger) error {
	if cred == nil {
		return nil
	}
	logger.DebugContext(ctx, "acquiring Azure AD token for Cognitive Services")
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{cognitiveServicesScope},
	})
	if err != nil {
		return fmt.Errorf("get azure token: %w", err)
	}
	logger.DebugContext(ctx, "using Azure AD token authentication", "token_expires_on", token.ExpiresOn)
	req.Header.Del("api-key")
	req.Header.Set("Authorization", "Bearer "+token.Token)
	return nil
}

// isSuccess reports whether resp carries a 2xx status.
func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// newTransportError reads the body of a failed response verbatim.
func newTransportError(resp *http.Response) *chat.TransportError {
	body, err := io.ReadAll(resp.Body)
	te := &chat.TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	if err != nil {
		te.Err = fmt.Errorf("read error body: %w", err)
	}
	return te
}

// httpTransport issues raw chat-completion requests over net/http.
type httpTransport struct {
	client     *http.Client
	apiKey     string
	headers    map[string]string
	credential azcore.TokenCredential
	logger     *slog.Logger
}

func newHTTPTransport(apiKey string, cfg *clientConfig) *httpTransport {
	return &httpTransport{
		client:     cfg.httpClient,
		apiKey:     apiKey,
		headers:    cfg.headers,
		credential: cfg.azureCredential,
		logger:     cfg.logger,
	}
}

// post sends body as JSON to url. A non-2xx response is returned as a
// *chat.TransportError carrying the verbatim body; on success the caller
// owns resp.Body.
func (t *httpTransport) post(ctx context.Context, url string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = requestHeaders(t.apiKey, t.headers)
	if err := authenticate(ctx, req, t.credential, t.logger); err != nil {
		return nil, &chat.TransportError{Err: err}
	}

	t.logger.DebugContext(ctx, "sending chat completion request", "url", url, "bytes", len(b))
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &chat.TransportError{Err: fmt.Errorf("http request: %w", err)}
	}

	if !isSuccess(resp) {
		defer resp.Body.Close()
		return nil, newTransportError(resp)
	}
	return resp, nil
}
