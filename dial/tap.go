// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dialkit/dialchat/chat"
)

// errorEventPrefix is how go-openai recognizes an in-stream error event.
var errorEventPrefix = []byte(`data: {"error":`)

// eventTap sits between a streaming response body and go-openai's line
// reader. It terminates a final line that lacks a line break, so the last
// event of an abruptly closed stream is still decoded, and it records the
// first error event ahead of the [DONE] sentinel verbatim.
type eventTap struct {
	body   io.ReadCloser
	status int

	line     []byte
	last     byte
	read     bool
	finished bool // [DONE] seen; later lines are not inspected
	atEOF    bool
	closed   bool

	errPayload string
}

func newEventTap(resp *http.Response) *eventTap {
	return &eventTap{body: resp.Body, status: resp.StatusCode}
}

func (t *eventTap) Read(p []byte) (int, error) {
	if t.closed {
		return 0, io.EOF
	}
	if t.atEOF {
		t.closed = true
		if t.read && t.last != '\n' && len(p) > 0 {
			p[0] = '\n'
			t.scan(p[:1])
			return 1, io.EOF
		}
		return 0, io.EOF
	}

	n, err := t.body.Read(p)
	if n > 0 {
		t.scan(p[:n])
	}
	// A truncated body ends the stream the same way a clean close does.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		t.atEOF = true
		if n > 0 {
			return n, nil
		}
		return t.Read(p)
	}
	return n, err
}

func (t *eventTap) Close() error { return t.body.Close() }

// scan splits b into lines and inspects each complete one.
func (t *eventTap) scan(b []byte) {
	t.read = true
	t.last = b[len(b)-1]
	if t.finished {
		return
	}
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			t.line = append(t.line, b...)
			return
		}
		t.line = append(t.line, b[:i]...)
		t.inspect(t.line)
		t.line = t.line[:0]
		b = b[i+1:]
		if t.finished {
			t.line = nil
			return
		}
	}
}

func (t *eventTap) inspect(line []byte) {
	line = bytes.TrimSpace(line)
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if string(payload) == doneSentinel {
		t.finished = true
		return
	}
	if t.errPayload == "" && bytes.HasPrefix(line, errorEventPrefix) {
		t.errPayload = string(payload)
	}
}

// errorEvent returns the recorded error event as a transport error, or nil.
func (t *eventTap) errorEvent() error {
	if t == nil || t.errPayload == "" {
		return nil
	}
	return &chat.TransportError{StatusCode: t.status, Body: t.errPayload, Err: ErrErrorEvent}
}

type tapSlotKey struct{}

// tapSlot carries the tap of one streaming call from the HTTP doer back to
// the stream that drains it.
type tapSlot struct {
	tap *eventTap
}

func withTapSlot(ctx context.Context) (context.Context, *tapSlot) {
	slot := &tapSlot{}
	return context.WithValue(ctx, tapSlotKey{}, slot), slot
}

func tapSlotFrom(ctx context.Context) *tapSlot {
	slot, _ := ctx.Value(tapSlotKey{}).(*tapSlot)
	return slot
}

func (s *tapSlot) errorEvent() error {
	return s.tap.errorEvent()
}
