// Package agentstream composes the line reader, vendor parser registry, and
// auto-detection into a single AgentEvent sequence (§4.3).
//
// The pipeline is expressed as a producer/consumer pair over a channel, the
// same shape the teacher uses in internal/agent/stream.go's StreamDecoder
// goroutine, supervised with golang.org/x/sync/errgroup so a terminal I/O
// failure on the producer side is surfaced to the consumer rather than
// silently stalling the channel.
package agentstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/agentstream/wren/internal/event"
	"github.com/agentstream/wren/internal/lines"
	"github.com/agentstream/wren/internal/providers"
)

// DefaultSampleSize is how many lines auto-detection samples before
// choosing a parser (§4.2).
const DefaultSampleSize = 10

// DefaultConfidenceFloor is the minimum fraction of sampled lines a parser
// must accept to be selected (§4.2).
const DefaultConfidenceFloor = 0.5

// Options configures one stream's behavior, mirroring the options table in
// §6.1 that apply to event production (rendering options live in
// internal/render).
type Options struct {
	Vendor          vendor.Name
	MaxLineLength   int
	Debug           bool
	SampleSize      int
	ConfidenceFloor float64
}

// NoMatchError is returned when auto-detection cannot select a parser
// confidently (§7's DetectionError).
type NoMatchError struct {
	Sampled    int
	BestVendor vendor.Name
	BestScore  float64
	Floor      float64
}

func (e *NoMatchError) Error() string {
	if e.BestVendor == "" {
		return fmt.Sprintf("agentstream: no parser matched any of %d sampled lines", e.Sampled)
	}
	return fmt.Sprintf("agentstream: best match %s scored %.2f, below floor %.2f over %d sampled lines",
		e.BestVendor, e.BestScore, e.Floor, e.Sampled)
}

// Summary is the end-of-stream counters reported as a debug event when
// Options.Debug is set (§4.3).
type Summary struct {
	TotalLines      int     `json:"totalLines"`
	SuccessfulLines int     `json:"successfulLines"`
	ErrorLines      int     `json:"errorLines"`
	SuccessRate     float64 `json:"successRate"`
}

type summaryWrapper struct {
	Summary Summary `json:"summary"`
}

// Stream pulls events from src, auto-detecting or using the requested
// vendor, and delivers them on a channel the caller ranges over.
//
// New returns once the parser is selected; the pipeline runs on an internal
// goroutine supervised by an errgroup. The Events channel is closed when the
// stream ends (cleanly or on error); the caller must call Wait after the
// channel closes to distinguish clean end-of-stream from a terminal failure.
type Stream struct {
	events chan event.Event
	group  *errgroup.Group
	cancel context.CancelFunc
}

// Events returns the channel of produced events. It is closed at end of
// stream or on terminal error.
func (s *Stream) Events() <-chan event.Event { return s.events }

// Wait blocks until the pipeline goroutine finishes and returns its
// terminal error, if any (nil on clean end-of-stream or on caller
// cancellation).
func (s *Stream) Wait() error {
	err := s.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Cancel stops the pipeline cooperatively; per §5, cancellation flows from
// caller to source and the pipeline halts at its next suspension point.
func (s *Stream) Cancel() { s.cancel() }

// New starts streaming src through the given registry, selecting a parser
// per opts.Vendor (or auto-detecting), and returns a Stream the caller reads
// events from.
func New(ctx context.Context, src io.Reader, reg *vendor.Registry, opts Options) (*Stream, error) {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.ConfidenceFloor <= 0 {
		opts.ConfidenceFloor = DefaultConfidenceFloor
	}

	lineOpts := lines.Options{MaxLineLength: opts.MaxLineLength}
	reader, err := lines.NewReader(src, lineOpts)
	if err != nil {
		return nil, err
	}
	numbered := lines.NewNumbered(reader)

	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	out := make(chan event.Event, 64)

	group.Go(func() error {
		defer close(out)
		return run(gctx, numbered, reg, opts, out)
	})

	return &Stream{events: out, group: group, cancel: cancel}, nil
}

func run(ctx context.Context, numbered *lines.Numbered, reg *vendor.Registry, opts Options, out chan<- event.Event) error {
	parser, buffered, err := selectParser(numbered, reg, opts)
	if err != nil {
		return err
	}

	total, success, failed := 0, 0, 0

	emitLine := func(lineNo int, line string) error {
		total++
		events, perr := parser.Parse(line)
		if perr != nil {
			failed++
			errEvt := event.NewError(perr.Error())
			if !deliver(ctx, out, errEvt) {
				return ctx.Err()
			}
			if opts.Debug {
				raw, _ := json.Marshal(map[string]interface{}{
					"lineNumber": lineNo,
					"line":       line,
					"error":      perr.Error(),
				})
				if !deliver(ctx, out, event.NewDebug(raw)) {
					return ctx.Err()
				}
			}
			return nil
		}
		success++
		for _, e := range events {
			if !deliver(ctx, out, e) {
				return ctx.Err()
			}
		}
		return nil
	}

	for _, b := range buffered {
		if err := emitLine(b.number, b.line); err != nil {
			return err
		}
	}

	for {
		lineNo, line, ok, err := numbered.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := emitLine(lineNo, line); err != nil {
			return err
		}
	}

	if opts.Debug {
		rate := 0.0
		if total > 0 {
			rate = float64(success) / float64(total)
		}
		raw, _ := json.Marshal(summaryWrapper{Summary: Summary{
			TotalLines:      total,
			SuccessfulLines: success,
			ErrorLines:      failed,
			SuccessRate:     rate,
		}})
		deliver(ctx, out, event.NewDebug(raw))
	}

	return nil
}

type bufferedLine struct {
	number int
	line   string
}

// selectParser resolves opts.Vendor to a concrete parser, sampling the
// first N lines and scoring confidence when Vendor is vendor.Auto (§4.2).
// Sampled lines are returned for replay since they must still be parsed.
func selectParser(numbered *lines.Numbered, reg *vendor.Registry, opts Options) (vendor.Parser, []bufferedLine, error) {
	if opts.Vendor != vendor.Auto && opts.Vendor != "" {
		p, err := reg.Get(opts.Vendor)
		return p, nil, err
	}

	sampled := make([]bufferedLine, 0, opts.SampleSize)
	for len(sampled) < opts.SampleSize {
		lineNo, line, ok, err := numbered.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		sampled = append(sampled, bufferedLine{number: lineNo, line: line})
	}

	if len(sampled) == 0 {
		return nil, nil, &NoMatchError{Sampled: 0, Floor: opts.ConfidenceFloor}
	}

	var best vendor.Parser
	var bestScore float64
	for _, name := range reg.List() {
		p, err := reg.Get(name)
		if err != nil {
			continue
		}
		hits := 0
		for _, s := range sampled {
			if p.Detect(s.line) {
				hits++
			}
		}
		score := float64(hits) / float64(len(sampled))
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil || bestScore < opts.ConfidenceFloor {
		bestName := vendor.Name("")
		if best != nil {
			bestName = best.Vendor()
		}
		return nil, nil, &NoMatchError{
			Sampled:    len(sampled),
			BestVendor: bestName,
			BestScore:  bestScore,
			Floor:      opts.ConfidenceFloor,
		}
	}

	return best, sampled, nil
}

// deliver sends e on out, returning false if ctx was canceled first.
func deliver(ctx context.Context, out chan<- event.Event, e event.Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
