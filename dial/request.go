// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dialkit/dialchat/chat"
)

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

// buildRequest snapshots history into a request body.
func buildRequest(history []chat.Message, stream bool) *chatRequest {
	msgs := make([]chat.Message, len(history))
	copy(msgs, history)
	return &chatRequest{Messages: msgs, Stream: stream}
}

// completionsURL returns {endpoint}/openai/deployments/{deployment}/chat/completions,
// with an api-version query parameter when apiVersion is set.
func completionsURL(endpoint, deployment, apiVersion string) string {
	u := strings.TrimRight(endpoint, "/") +
		"/openai/deployments/" + url.PathEscape(deployment) + "/chat/completions"
	if apiVersion != "" {
		u += "?api-version=" + url.QueryEscape(apiVersion)
	}
	return u
}

// requestHeaders returns the static headers of a raw request. Extra headers
// are applied last and win.
func requestHeaders(apiKey string, extra map[string]string) http.Header {
	h := make(http.Header, 2+len(extra))
	h.Set("Content-Type", "application/json")
	if apiKey != "" {
		h.Set("api-key", apiKey)
	}
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}
