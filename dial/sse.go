// Copyright (c) Microsoft. All rights reserved.

package dial

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/dialkit/dialchat/chat"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// ErrErrorEvent marks a streamed event whose payload carries an "error"
// object. It is reported inside a *chat.TransportError whose Body is the
// verbatim payload.
var ErrErrorEvent = errors.New("error event in stream")

// Chunk is one decoded server-sent event.
type Chunk struct {
	// Done marks the [DONE] sentinel.
	Done bool
	// Delta is choices[0].delta.content, possibly empty.
	Delta string
}

// Decoder reads chat-completion server-sent events line by line.
// Lines without the "data: " prefix, including blank keep-alives, are
// skipped. Lines of any length are accepted.
type Decoder struct {
	r    *bufio.Reader
	done bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next blocks until the next event is available and returns it.
//
// After the sentinel, Next keeps returning a Done chunk without reading.
// If r ends before the sentinel, Next returns io.EOF. A payload that does
// not decode as a chunk object fails with a *chat.MalformedChunkError, and
// an error event fails with a *chat.TransportError wrapping [ErrErrorEvent].
func (d *Decoder) Next() (Chunk, error) {
	if d.done {
		return Chunk{Done: true}, nil
	}
	for {
		line, err := d.r.ReadString('\n')
		if line != "" {
			c, ok, derr := decodeLine(line)
			if derr != nil {
				return Chunk{}, derr
			}
			if ok {
				d.done = c.Done
				return c, nil
			}
		}
		if err != nil {
			return Chunk{}, err
		}
	}
}

// decodeLine decodes a single line. ok is false for lines that carry no event.
func decodeLine(line string) (c Chunk, ok bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, dataPrefix) {
		return Chunk{}, false, nil
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		return Chunk{Done: true}, true, nil
	}

	var raw completionChunk
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Chunk{}, false, &chat.MalformedChunkError{Payload: payload, Err: err}
	}
	if raw.failed() {
		return Chunk{}, false, &chat.TransportError{Body: payload, Err: ErrErrorEvent}
	}
	return Chunk{Delta: raw.text()}, true, nil
}
