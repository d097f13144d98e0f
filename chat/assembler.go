// Copyright (c) Microsoft. All rights reserved.

package chat

import (
	"fmt"
	"io"
	"strings"
)

// Assembler accumulates the content deltas of one streaming call into the
// final assistant [Message] and mirrors each delta to a display writer as it
// arrives. Create one per call; Finish resets it.
type Assembler struct {
	out   io.Writer
	parts []string
}

// NewAssembler returns an Assembler that displays deltas on out.
// A nil out discards the display.
func NewAssembler(out io.Writer) *Assembler {
	if out == nil {
		out = io.Discard
	}
	return &Assembler{out: out}
}

// Add displays delta and then appends it. Empty deltas are no-ops.
func (a *Assembler) Add(delta string) error {
	if delta == "" {
		return nil
	}
	if _, err := io.WriteString(a.out, delta); err != nil {
		return fmt.Errorf("display delta: %w", err)
	}
	a.parts = append(a.parts, delta)
	return nil
}

// Len reports how many non-empty deltas have been accumulated.
func (a *Assembler) Len() int { return len(a.parts) }

// Finish writes the closing line break and returns the concatenation of all
// deltas, in order, as an assistant message.
func (a *Assembler) Finish() (Message, error) {
	content := strings.Join(a.parts, "")
	a.parts = nil
	if _, err := io.WriteString(a.out, "\n"); err != nil {
		return Message{}, fmt.Errorf("display end of message: %w", err)
	}
	return NewAssistantMessage(content), nil
}
