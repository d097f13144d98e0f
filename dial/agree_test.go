// Copyright (c) Microsoft. All rights reserved.

package dial_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dialkit/dialchat/chat"
	"github.com/dialkit/dialchat/dial"
)

// Both clients must assemble identical content from the same upstream bytes.
func TestVariantsAgree(t *testing.T) {
	streams := []struct {
		name string
		body string
		want string
	}{
		{
			name: "simple",
			body: sseBody(contentChunk("Hel"), contentChunk("lo"), "data: [DONE]"),
			want: "Hello",
		},
		{
			name: "no-op chunks",
			body: sseBody(
				`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
				contentChunk("a"),
				`data: {"choices":[{"delta":{}}]}`,
				`data: {"choices":[]}`,
				contentChunk("b"),
				`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
				"data: [DONE]",
			),
			want: "ab",
		},
		{
			name: "keep-alives and padding",
			body: sseBody(
				"",
				contentChunk("one "),
				"",
				"   "+contentChunk("two"),
				"",
				"data: [DONE]",
			),
			want: "one two",
		},
		{
			name: "unicode and escapes",
			body: sseBody(contentChunk("héllo "), contentChunk("wörld\n"), contentChunk(`"quoted" 🚀`), "data: [DONE]"),
			want: "héllo wörld\n\"quoted\" 🚀",
		},
		{
			name: "abrupt close",
			body: sseBody(contentChunk("Hi")),
			want: "Hi",
		},
		{
			name: "abrupt close mid-line",
			body: contentChunk("Hel") + "\n" + contentChunk("lo"),
			want: "Hello",
		},
		{
			name: "sentinel without line break",
			body: sseBody(contentChunk("a")) + "data: [DONE]",
			want: "a",
		},
		{
			name: "padded sentinel",
			body: sseBody(contentChunk("a"), "data:    [DONE]  ", contentChunk("ignored")),
			want: "a",
		},
		{
			name: "long run of keep-alives",
			body: strings.Repeat(": keep-alive\n\n", 400) + sseBody(contentChunk("ok"), "data: [DONE]"),
			want: "ok",
		},
	}

	for _, s := range streams {
		t.Run(s.name, func(t *testing.T) {
			srv, _ := newServer(t, 200, "text/event-stream", s.body)

			got := map[string]string{}
			for _, v := range variants(srv.URL) {
				// Decoding the same bytes twice gives the same message.
				for i := 0; i < 2; i++ {
					msg, err := v.client.StreamCompletion(context.Background(), history())
					if err != nil {
						t.Fatalf("%s: %v", v.name, err)
					}
					if msg.Role != chat.RoleAssistant {
						t.Errorf("%s: role = %q", v.name, msg.Role)
					}
					if prev, ok := got[v.name]; ok && prev != msg.Content {
						t.Errorf("%s: second decode = %q, first = %q", v.name, msg.Content, prev)
					}
					got[v.name] = msg.Content
				}
			}

			if got["managed"] != got["raw"] {
				t.Errorf("managed = %q, raw = %q", got["managed"], got["raw"])
			}
			if got["raw"] != s.want {
				t.Errorf("content = %q, want %q", got["raw"], s.want)
			}
		})
	}
}

func TestVariantsAgree_NonStreaming(t *testing.T) {
	srv, _ := newServer(t, 200, "application/json",
		`{"choices":[{"message":{"role":"assistant","content":"first"}},{"message":{"content":"second"}}]}`)

	for _, v := range variants(srv.URL) {
		msg, err := v.client.Completion(context.Background(), history())
		if err != nil {
			t.Fatalf("%s: %v", v.name, err)
		}
		if msg != chat.NewAssistantMessage("first") {
			t.Errorf("%s: msg = %+v", v.name, msg)
		}
	}
}

func TestVariantsAgree_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		stream bool
		target error
	}{
		{"no choices", 200, `{"choices":[]}`, false, chat.ErrNoChoices},
		{"http failure", 503, "unavailable", false, chat.ErrTransport},
		{"http failure streaming", 503, "unavailable", true, chat.ErrTransport},
		{"malformed chunk", 200, sseBody(contentChunk("x"), "data: {oops", "data: [DONE]"), true, chat.ErrMalformedChunk},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newServer(t, tc.status, "text/plain", tc.body)
			for _, v := range variants(srv.URL) {
				call := v.client.Completion
				if tc.stream {
					call = v.client.StreamCompletion
				}
				_, err := call(context.Background(), history())
				if !errors.Is(err, tc.target) {
					t.Errorf("%s: err = %v, want %v", v.name, err, tc.target)
				}
			}
		})
	}
}

func TestVariantsAgree_MalformedPayload(t *testing.T) {
	srv, _ := newServer(t, 200, "text/event-stream",
		sseBody(contentChunk("x"), "data:   {oops  ", "data: [DONE]"))

	for _, v := range variants(srv.URL) {
		_, err := v.client.StreamCompletion(context.Background(), history())
		var mce *chat.MalformedChunkError
		if !errors.As(err, &mce) {
			t.Fatalf("%s: err = %v, want MalformedChunkError", v.name, err)
		}
		if mce.Payload != "{oops" {
			t.Errorf("%s: Payload = %q", v.name, mce.Payload)
		}
	}
}

func TestVariantsAgree_ErrorEvent(t *testing.T) {
	const event = `{"error":{"message":"rate limited","type":"server_error"}}`
	tests := []struct {
		name    string
		body    string
		payload string
	}{
		{
			name:    "error event then sentinel",
			body:    sseBody(contentChunk("a"), "data: "+event, "data: [DONE]"),
			payload: event,
		},
		{
			name:    "error event closes the stream",
			body:    sseBody(contentChunk("a"), "data: "+event),
			payload: event,
		},
		{
			name:    "error event without line break",
			body:    sseBody(contentChunk("a")) + "data: " + event,
			payload: event,
		},
		{
			name:    "error event after comment lines",
			body:    sseBody(": keep-alive", contentChunk("a"), "event: error", "data: "+event, "data: [DONE]"),
			payload: event,
		},
		{
			name:    "comment lines then close",
			body:    sseBody(": keep-alive", contentChunk("a"), "data: "+event),
			payload: event,
		},
		{
			name:    "spaced error object",
			body:    sseBody(contentChunk("a"), `data: { "error": {"message":"boom"} }`, "data: [DONE]"),
			payload: `{ "error": {"message":"boom"} }`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newServer(t, 200, "text/event-stream", tc.body)
			for _, v := range variants(srv.URL) {
				msg, err := v.client.StreamCompletion(context.Background(), history())
				if msg != (chat.Message{}) {
					t.Errorf("%s: msg = %+v, want zero", v.name, msg)
				}
				if !errors.Is(err, dial.ErrErrorEvent) || !errors.Is(err, chat.ErrTransport) {
					t.Fatalf("%s: err = %v, want an error event", v.name, err)
				}
				var te *chat.TransportError
				if !errors.As(err, &te) {
					t.Fatalf("%s: err = %v, want TransportError", v.name, err)
				}
				if te.StatusCode != 200 || te.Body != tc.payload {
					t.Errorf("%s: TransportError = %+v", v.name, te)
				}
			}
		})
	}
}
