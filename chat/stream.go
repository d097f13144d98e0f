// Copyright (c) Microsoft. All rights reserved.

package chat

import (
	"context"
	"io"
	"sync"
)

// NextFunc produces the next content delta of a stream. ok is false once
// the stream has ended; err is non-nil on failure.
type NextFunc func(ctx context.Context) (delta string, ok bool, err error)

// DeltaStream is a pull-based iterator over the content deltas of one
// streaming response. It runs on the caller's goroutine: each call to Next
// blocks until the next event has been decoded, so deltas are observed
// strictly in arrival order and never concurrently.
//
// Callers must call Close when done.
type DeltaStream struct {
	next      NextFunc
	closer    io.Closer
	done      bool
	err       error
	closeOnce sync.Once
	closeErr  error
}

// NewDeltaStream wraps next. closer, if non-nil, is closed by Close.
func NewDeltaStream(next NextFunc, closer io.Closer) *DeltaStream {
	return &DeltaStream{next: next, closer: closer}
}

// Next returns the next delta. ok is false when the stream is exhausted.
// Once Next has reported the end or an error it keeps reporting it.
func (s *DeltaStream) Next(ctx context.Context) (delta string, ok bool, err error) {
	if s.done {
		return "", false, s.err
	}
	if err := ctx.Err(); err != nil {
		s.done, s.err = true, err
		return "", false, err
	}
	delta, ok, err = s.next(ctx)
	if err != nil || !ok {
		s.done, s.err = true, err
		return "", false, err
	}
	return delta, true, nil
}

// Collect drains the stream and returns every delta, including empty ones.
func (s *DeltaStream) Collect(ctx context.Context) ([]string, error) {
	var deltas []string
	for {
		d, ok, err := s.Next(ctx)
		if err != nil {
			return deltas, err
		}
		if !ok {
			return deltas, nil
		}
		deltas = append(deltas, d)
	}
}

// Close releases the underlying response body. Safe to call multiple times.
func (s *DeltaStream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

// Drain feeds every delta of s into a and returns the finished message.
// On error the partial text is discarded and no message is returned.
// Drain closes s.
func Drain(ctx context.Context, s *DeltaStream, a *Assembler) (Message, error) {
	defer s.Close()
	for {
		d, ok, err := s.Next(ctx)
		if err != nil {
			return Message{}, err
		}
		if !ok {
			break
		}
		if err := a.Add(d); err != nil {
			return Message{}, err
		}
	}
	return a.Finish()
}
