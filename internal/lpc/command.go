// Package lpc stands for "Local Procedure Call". It's a typed request/response handoff over Go channels: one side
// creates a Command and waits, the other side answers it exactly once, possibly from another goroutine.
package lpc

import (
	"context"
	"errors"
	"sync"

	"github.com/alanbriolat/video-fetcher/generic"
)

var (
	ErrClosed     = errors.New("command response already sent")
	ErrNoResponse = errors.New("no response")
	ErrCancelled  = errors.New("command cancelled")
)

type Command[Arg any, Response any] struct {
	initialized bool
	arg         Arg
	once        sync.Once
	// Single slot: at most one response is ever sent, so the sender never blocks
	response chan generic.Result[Response]
}

func (*Command[Arg, Response]) New(arg Arg) *Command[Arg, Response] {
	return &Command[Arg, Response]{
		initialized: true,
		arg:         arg,
		response:    make(chan generic.Result[Response], 1),
	}
}

func (c *Command[Arg, Response]) mustBeInitialized(method string) {
	if c == nil || !c.initialized {
		panic("attempted to call ." + method + "() on uninitialized Command, must use .New() first")
	}
}

func (c *Command[Arg, Response]) Arg() Arg {
	c.mustBeInitialized("Arg")
	return c.arg
}

func (c *Command[Arg, Response]) send(result generic.Result[Response]) error {
	sent := false
	c.once.Do(func() {
		c.response <- result
		sent = true
	})
	if !sent {
		return ErrClosed
	}
	return nil
}

func (c *Command[Arg, Response]) Respond(response Response) error {
	c.mustBeInitialized("Respond")
	return c.send(generic.Ok(response))
}

func (c *Command[Arg, Response]) RespondError(err error) error {
	c.mustBeInitialized("RespondError")
	return c.send(generic.Err[Response](err))
}

// Cancel answers the command with ErrCancelled.
func (c *Command[Arg, Response]) Cancel() error {
	c.mustBeInitialized("Cancel")
	return c.send(generic.Err[Response](ErrCancelled))
}

// Close answers the command with ErrNoResponse if nothing else has answered it yet.
func (c *Command[Arg, Response]) Close() {
	c.mustBeInitialized("Close")
	_ = c.send(generic.Err[Response](ErrNoResponse))
}

// Wait blocks until the command is answered or ctx is done, in which case the command is closed and ctx.Err() is
// returned. Only one caller may Wait.
func (c *Command[Arg, Response]) Wait(ctx context.Context) (Response, error) {
	c.mustBeInitialized("Wait")
	select {
	case result := <-c.response:
		return result.Parts()
	case <-ctx.Done():
		c.Close()
		var zero Response
		return zero, ctx.Err()
	}
}
