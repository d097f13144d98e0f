// Copyright (c) Microsoft. All rights reserved.

package chat

import (
	"context"
	"log/slog"
	"time"
)

// loggingClient decorates a [Client] with slog call logging.
type loggingClient struct {
	next   Client
	logger *slog.Logger
}

// NewLoggingClient returns a [Client] that logs every call made through
// next. A nil logger uses slog.Default().
func NewLoggingClient(next Client, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingClient{next: next, logger: logger}
}

func (c *loggingClient) Completion(ctx context.Context, history []Message, opts ...CallOption) (Message, error) {
	return c.observe(ctx, "completion", history, func() (Message, error) {
		return c.next.Completion(ctx, history, opts...)
	})
}

func (c *loggingClient) StreamCompletion(ctx context.Context, history []Message, opts ...CallOption) (Message, error) {
	return c.observe(ctx, "stream completion", history, func() (Message, error) {
		return c.next.StreamCompletion(ctx, history, opts...)
	})
}

func (c *loggingClient) observe(ctx context.Context, op string, history []Message, call func() (Message, error)) (Message, error) {
	start := time.Now()
	c.logger.DebugContext(ctx, op+" started",
		"message_count", len(history),
	)

	msg, err := call()

	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorContext(ctx, op+" failed",
			"duration", duration,
			"error", err,
		)
		return Message{}, err
	}

	c.logger.InfoContext(ctx, op+" completed",
		"duration", duration,
		"content_length", len(msg.Content),
	)
	return msg, nil
}
