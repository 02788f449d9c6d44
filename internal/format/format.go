// Package format wraps an agentstream.Stream and a render.Renderer into a
// lazy sequence of text chunks (§4.8): the outermost of the three
// suspension points in §5's concurrency model (the other two are inside the
// line reader and the event stream driver).
package format

import (
	"context"
	"io"

	"github.com/agentstream/wren/internal/agentstream"
	"github.com/agentstream/wren/internal/render"
	"github.com/agentstream/wren/internal/providers"
)

// Driver pulls events from an agentstream.Stream, feeds each to a Renderer,
// and yields non-empty rendered chunks. At end-of-stream it yields the
// renderer's Flush output once and terminates.
type Driver struct {
	stream   *agentstream.Stream
	renderer render.Renderer
	flushed  bool
}

// New constructs a Driver over src, auto-detecting or using opts.Vendor,
// rendering with renderer.
func New(ctx context.Context, src io.Reader, reg *vendor.Registry, opts agentstream.Options, renderer render.Renderer) (*Driver, error) {
	s, err := agentstream.New(ctx, src, reg, opts)
	if err != nil {
		return nil, err
	}
	return &Driver{stream: s, renderer: renderer}, nil
}

// Next returns the next non-empty rendered chunk. ok is false once the
// stream and the trailing flush are both exhausted. Next never returns an
// empty chunk with ok true: callers may treat an empty string as equivalent
// to "nothing to write yet, call Next again."
func (d *Driver) Next() (chunk string, ok bool, err error) {
	for {
		if d.flushed {
			return "", false, nil
		}
		e, open := <-d.stream.Events()
		if !open {
			d.flushed = true
			if werr := d.stream.Wait(); werr != nil {
				return "", false, werr
			}
			out := d.renderer.Flush()
			if out == "" {
				return "", false, nil
			}
			return out, true, nil
		}
		out := d.renderer.Render(e)
		if out != "" {
			return out, true, nil
		}
	}
}

// Cancel stops the underlying stream cooperatively (§5). Flush is not
// emitted after Cancel, matching the event stream driver's contract.
func (d *Driver) Cancel() {
	d.stream.Cancel()
	d.flushed = true
}

// Drain reads the entire driver to completion and writes every chunk to w,
// convenient for CLI callers that do not need per-chunk control.
func Drain(w io.Writer, d *Driver) error {
	for {
		chunk, ok, err := d.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, werr := io.WriteString(w, chunk); werr != nil {
			return werr
		}
	}
}

// EventsOnly constructs the same agentstream.Stream a Driver would wrap, but
// returns it unrendered: the caller receives the raw AgentEvent sequence
// rather than rendered text.
func EventsOnly(ctx context.Context, src io.Reader, reg *vendor.Registry, opts agentstream.Options) (*agentstream.Stream, error) {
	return agentstream.New(ctx, src, reg, opts)
}
