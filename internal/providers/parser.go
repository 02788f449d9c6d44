// Package vendor defines the parser contract every vendor adapter
// implements and the registry that performs auto-detection, grounded on the
// teacher's internal/agent.Registry (ordered-name-to-implementation lookup
// with sentinel errors for duplicate/invalid/not-found) but generalized from
// an execution registry to a detect-and-parse registry.
package vendor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agentstream/wren/internal/event"
)

// Name identifies a supported upstream CLI whose output is being
// normalized. "auto" is the sentinel for detection and never appears as a
// registered parser's identity.
type Name string

// The four Vendor identifiers from §3.2.
const (
	Auto   Name = "auto"
	Claude Name = "claude"
	Gemini Name = "gemini"
	Amp    Name = "amp"
)

// Metadata optionally describes a parser's provenance.
type Metadata struct {
	Version           string
	SupportedVersions []string
	DocumentationURL  string
}

// Parser normalizes one vendor's line-delimited JSON into AgentEvents.
//
// Detect must be cheap, total, and non-throwing: it may inspect substrings
// before attempting a JSON parse, and must return false for any line it
// cannot confidently claim (§4.2).
type Parser interface {
	// Vendor returns this parser's identity.
	Vendor() Name

	// Detect reports whether this parser claims line.
	Detect(line string) bool

	// Parse converts one line into zero or more events. It returns a
	// *ParseError (never a bare error) on invalid input.
	Parse(line string) ([]event.Event, error)

	// Metadata returns optional provenance info; ok is false when none is
	// set.
	Metadata() (Metadata, bool)
}

// ParseError describes why a single line could not be parsed. Per §7, a
// ParseError is always recovered locally as an `error` event; it never
// terminates the stream.
type ParseError struct {
	VendorName Name
	Line       string
	Cause      error
	Context    string
}

func (e *ParseError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("vendor %s: %s: %v", e.VendorName, e.Context, e.Cause)
	}
	return fmt.Sprintf("vendor %s: %v", e.VendorName, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ErrNotRegistered is returned by Registry.Get when no parser with the
// requested name has been registered.
var ErrNotRegistered = errors.New("vendor: parser not registered")

// ErrDuplicateVendor is returned by Registry.Register when a parser for the
// same vendor name is already present.
var ErrDuplicateVendor = errors.New("vendor: parser already registered")

// ErrInvalidVendor is returned by Registry.Register when the parser is nil
// or identifies as the Auto sentinel.
var ErrInvalidVendor = errors.New("vendor: invalid parser identity")

// entry pairs a registered Parser with its detection priority.
type entry struct {
	parser   Parser
	priority int
	order    int // registration order, for stable tie-breaking
}

// Registry holds an ordered set of vendor parsers and performs detection.
//
// A Registry is effectively read-only after construction: concurrent reads
// (Get, Detect, List) are safe once registration is complete, matching §5's
// "parser registry is effectively read-only" contract.
type Registry struct {
	entries []entry
	byName  map[Name]int // index into entries
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[Name]int)}
}

// Register adds a parser at the given priority. Higher priority is tried
// first during detection; ties are broken by registration order (§4.2).
func (r *Registry) Register(p Parser, priority int) error {
	if p == nil || p.Vendor() == Auto || p.Vendor() == "" {
		return ErrInvalidVendor
	}
	if _, exists := r.byName[p.Vendor()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVendor, p.Vendor())
	}
	idx := len(r.entries)
	r.entries = append(r.entries, entry{parser: p, priority: priority, order: idx})
	r.byName[p.Vendor()] = idx
	return nil
}

// Get returns the parser registered for name.
func (r *Registry) Get(name Name) (Parser, error) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return r.entries[idx].parser, nil
}

// List returns all registered vendor names, in descending-priority,
// registration-order-broken order.
func (r *Registry) List() []Name {
	ordered := r.ordered()
	names := make([]Name, len(ordered))
	for i, e := range ordered {
		names[i] = e.parser.Vendor()
	}
	return names
}

// DetectLine returns the highest-priority parser whose Detect accepts line,
// or nil if none claims it.
func (r *Registry) DetectLine(line string) Parser {
	for _, e := range r.ordered() {
		if e.parser.Detect(line) {
			return e.parser
		}
	}
	return nil
}

// ordered returns entries sorted by descending priority, registration order
// breaking ties.
func (r *Registry) ordered() []entry {
	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		return out[i].order < out[j].order
	})
	return out
}
