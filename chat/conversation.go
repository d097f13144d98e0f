// Copyright (c) Microsoft. All rights reserved.

package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Conversation is an append-only, in-memory history of turns. Insertion
// order is turn order. It lives for the duration of one process.
type Conversation struct {
	mu       sync.Mutex
	id       string
	messages []Message
}

// NewConversation creates an empty Conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.NewString()}
}

// ID returns the conversation's unique identifier.
func (c *Conversation) ID() string { return c.id }

// Add appends msgs in order.
func (c *Conversation) Add(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

// Messages returns a snapshot of the history. The snapshot is a copy;
// later Add calls do not affect it.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// DropLast removes the most recent turn if it has the given role and
// reports whether it did. It lets a caller withdraw a user turn whose
// request failed, keeping the history valid for the next request.
func (c *Conversation) DropLast(role Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.messages)
	if n == 0 || c.messages[n-1].Role != role {
		return false
	}
	c.messages = c.messages[:n-1]
	return true
}
