// Package lines turns an arbitrary byte stream into a lazy, pull-driven
// sequence of complete text lines with bounded memory.
//
// The shape is grounded on the teacher's agent.StreamDecoder
// (bufio.Scanner wrapping an io.Reader, pulled one line at a time via
// Next), generalized in one direction the scanner cannot go: bufio.Scanner
// treats an over-long token as a fatal ErrTooLong and aborts the whole
// stream, but §4.1 requires splitting an over-long line into a bounded
// prefix and continuing. That needs resumable control over the raw buffer,
// so Reader manages its own growable buffer instead of delegating to
// bufio.Scanner.
package lines

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// DefaultMaxLineLength is used when Options.MaxLineLength is zero.
const DefaultMaxLineLength = 1 << 20 // 1 MiB

// readChunkSize is how many bytes Reader asks the underlying io.Reader for
// at a time. This is the "one chunk of bytes" half of the §4.1 memory bound.
const readChunkSize = 64 * 1024

// IoError wraps a terminal read failure from the underlying source. Per
// §4.1/§7, an IoError is never accompanied by a partial line: the sequence
// simply ends in error.
type IoError struct {
	Err error
}

func (e *IoError) Error() string { return "lines: read error: " + e.Err.Error() }
func (e *IoError) Unwrap() error { return e.Err }

// Options configures a Reader. The zero value is valid and uses defaults.
type Options struct {
	// MaxLineLength bounds how many bytes a single yielded line may contain
	// before Reader splits it. Zero means DefaultMaxLineLength.
	MaxLineLength int

	// Encoding names the byte encoding of the source. Only "utf-8" (the
	// default, case-insensitive, empty string allowed) is supported: JSON
	// Lines is defined over UTF-8, so other encodings are not transcoded.
	// Any other value is rejected by NewReader.
	Encoding string

	// IncludeEmpty, when true, yields lines that are empty after trimming
	// leading/trailing whitespace. The default drops them.
	IncludeEmpty bool
}

func (o Options) maxLineLength() int {
	if o.MaxLineLength <= 0 {
		return DefaultMaxLineLength
	}
	return o.MaxLineLength
}

// Reader yields complete lines from an io.Reader with the terminating
// newline stripped. It is not restartable: once exhausted or errored, a
// Reader must be discarded.
//
// Reader never materializes more than one pending partial line plus one
// read chunk: this is the memory-bound guarantee of §4.1's invariant 1.
type Reader struct {
	r       io.Reader
	opts    Options
	buf     []byte
	eof     bool
	done    bool
	lastErr error
}

// NewReader constructs a Reader over r. NewReader does not take ownership of
// r: closing the underlying source, if it is an io.Closer, is the caller's
// responsibility (§4.1: "must not destroy a source it did not open").
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	enc := opts.Encoding
	if enc != "" && !strings.EqualFold(enc, "utf-8") && !strings.EqualFold(enc, "utf8") {
		return nil, errors.New("lines: unsupported encoding " + enc + " (only utf-8 is supported)")
	}
	return &Reader{r: r, opts: opts, buf: make([]byte, 0, readChunkSize)}, nil
}

// Next returns the next line, with its terminating newline (and any
// preceding carriage return) stripped. ok is false when the sequence is
// exhausted; err is non-nil only on a terminal IoError, per §4.1's failure
// semantics (no partial line accompanies an IoError).
func (r *Reader) Next() (line string, ok bool, err error) {
	if r.lastErr != nil {
		return "", false, r.lastErr
	}
	if r.done {
		return "", false, nil
	}

	for {
		maxLen := r.opts.maxLineLength()
		if idx := bytes.IndexByte(r.buf, '\n'); idx >= 0 && idx <= maxLen {
			raw := r.buf[:idx]
			r.buf = append([]byte(nil), r.buf[idx+1:]...)
			return r.emit(raw)
		}

		if len(r.buf) > maxLen {
			raw := r.buf[:maxLen]
			rest := append([]byte(nil), r.buf[maxLen:]...)
			r.buf = rest
			return r.emit(raw)
		}

		if r.eof {
			r.done = true
			if len(r.buf) == 0 {
				return "", false, nil
			}
			raw := r.buf
			r.buf = nil
			return r.emit(raw)
		}

		chunk := make([]byte, readChunkSize)
		n, rerr := r.r.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
		}
		if rerr != nil {
			if rerr == io.EOF {
				r.eof = true
				continue
			}
			r.lastErr = &IoError{Err: rerr}
			return "", false, r.lastErr
		}
	}
}

// emit trims a trailing \r (CRLF support) and applies the IncludeEmpty
// filter.
func (r *Reader) emit(raw []byte) (string, bool, error) {
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	s := string(raw)
	if !r.opts.IncludeEmpty && isBlank(s) {
		return r.Next()
	}
	return s, true, nil
}

func isBlank(s string) bool {
	for _, c := range s {
		switch c {
		case ' ', '\t', '\r', '\n', '\v', '\f':
			continue
		default:
			return false
		}
	}
	return true
}

// IsIoError reports whether err is (or wraps) an IoError, distinguishing a
// terminal read failure from ordinary end-of-sequence.
func IsIoError(err error) bool {
	var ioErr *IoError
	return errors.As(err, &ioErr)
}
