// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"encoding/json"
	"fmt"

	"github.com/dialkit/dialchat/chat"
)

// completionResponse is the non-streaming chat-completions response.
// Every nested field is optional on the wire.
type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

type completionChoice struct {
	Message *responseMessage `json:"message"`
}

type responseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// completionChunk is the payload of one streaming event.
type completionChunk struct {
	Choices []chunkChoice   `json:"choices"`
	Error   json.RawMessage `json:"error,omitempty"`
}

type chunkChoice struct {
	Delta *chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// text returns choices[0].delta.content, or "" when any part of that path
// is absent. Role-only preambles and finish chunks yield "".
func (c *completionChunk) text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	d := c.Choices[0].Delta
	if d == nil || d.Content == nil {
		return ""
	}
	return *d.Content
}

// failed reports whether the chunk is an error event.
func (c *completionChunk) failed() bool {
	return len(c.Error) > 0 && string(c.Error) != "null"
}

// parseCompletion builds the assistant message from the first choice of a
// non-streaming response body.
func parseCompletion(body []byte) (chat.Message, error) {
	var raw completionResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return chat.Message{}, fmt.Errorf("%w: parse response: %v", chat.ErrProtocol, err)
	}
	if len(raw.Choices) == 0 {
		return chat.Message{}, chat.ErrNoChoices
	}
	var content string
	if m := raw.Choices[0].Message; m != nil && m.Content != nil {
		content = *m.Content
	}
	return chat.NewAssistantMessage(content), nil
}
