// Package ai defines the provider contract shared by every LLM backend.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyReply is reported when a backend answers with no text.
	ErrEmptyReply = errors.New("empty reply")
	// ErrTimeout is reported when a backend does not answer before the deadline.
	ErrTimeout = errors.New("provider timed out")
	// ErrStatus is reported for non-success HTTP responses.
	ErrStatus = errors.New("unexpected status")
	// ErrRequest is reported for transport and client failures.
	ErrRequest = errors.New("request failed")
	// ErrPanic is reported when a backend client panics.
	ErrPanic = errors.New("provider panicked")
)

// Provider sends a prompt to one LLM backend.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reply is the outcome of one provider call. Exactly one of Text and Err is set.
type Reply struct {
	Provider string
	Model    string
	Text     string
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the reply carries text.
func (r Reply) OK() bool {
	return r.Err == nil
}

// Query calls p and converts every failure into Reply.Err. It returns as soon
// as ctx is done, even if p ignores the context.
func Query(ctx context.Context, p Provider, prompt string) Reply {
	start := time.Now()
	base := Reply{Provider: p.Name(), Model: p.Model()}

	done := make(chan Reply, 1)
	go func() {
		reply := base
		defer func() {
			if r := recover(); r != nil {
				reply.Text = ""
				reply.Err = fmt.Errorf("%w: %v", ErrPanic, r)
				done <- reply
			}
		}()

		text, err := p.Generate(ctx, prompt)
		switch {
		case err != nil:
			reply.Err = classify(err)
		case strings.TrimSpace(text) == "":
			reply.Err = ErrEmptyReply
		default:
			reply.Text = text
		}
		done <- reply
	}()

	var reply Reply
	select {
	case reply = <-done:
	case <-ctx.Done():
		reply = base
		reply.Err = fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}

	reply.Elapsed = time.Since(start)
	return reply
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrStatus), errors.Is(err, ErrEmptyReply), errors.Is(err, ErrRequest):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
}
