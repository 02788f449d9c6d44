package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/agentstream/wren/pkg/wren"
)

// Flags shared by "wren format" and "wren events" (§6.2).
var (
	flagVendor        string
	flagFormat        string
	flagHTML          bool
	flagJSON          bool
	flagHideTools     bool
	flagHideCost      bool
	flagHideDebug     bool
	flagCollapseTools bool
	flagOnly          string
	flagEventsDebug   bool
	flagBatch         bool
)

// formatCmd implements "wren format [file]": the default rendering pipeline
// (§6.1's streamFormat, §6.2's CLI surface). With no positional argument it
// reads stdin.
//
// --vendor has no "-v" shorthand: the root command already binds "-v" to
// --verbose (internal/cli/root.go), and root_test.go pins that down, so
// --vendor is long-flag-only here -- a deliberate deviation from the plain
// spec wording noted in DESIGN.md.
var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Render an agent CLI event log as ANSI, HTML, or JSON text",
	Long: `Render a line-delimited JSON event stream emitted by an AI agent CLI
(Claude Code, Gemini CLI, Amp Code) as human-readable ANSI, HTML, or JSON
text. Reads stdin when no file argument is given. Supports doublestar glob
patterns (e.g. 'logs/**/*.jsonl') to concatenate multiple files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(cmd, args)
	},
}

// eventsCmd implements "wren events [file]": the raw AgentEvent sequence as
// JSONL, bypassing renderer selection entirely (§6.1's streamEvents).
var eventsCmd = &cobra.Command{
	Use:   "events [file]",
	Short: "Emit the normalized AgentEvent stream as JSONL",
	Long: `Parse a line-delimited JSON event stream and emit the normalized
AgentEvent sequence as JSONL, one event per line, with no rendering applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvents(cmd, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{formatCmd, eventsCmd} {
		c.Flags().StringVar(&flagVendor, "vendor", "auto", "Vendor parser: auto, claude, gemini, or amp")
		c.Flags().BoolVar(&flagHideTools, "hide-tools", false, "Hide tool events")
		c.Flags().BoolVar(&flagHideCost, "hide-cost", false, "Hide cost events")
		c.Flags().BoolVar(&flagHideDebug, "hide-debug", false, "Hide debug events")
		c.Flags().BoolVar(&flagCollapseTools, "collapse-tools", false, "Buffer tool output instead of streaming it inline")
		c.Flags().StringVar(&flagOnly, "only", "", "Comma-separated event kinds to retain (overrides hide flags)")
		c.Flags().BoolVarP(&flagEventsDebug, "debug", "d", false, "Emit diagnostic debug events")
	}

	formatCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Output format: ansi, html, or json")
	formatCmd.Flags().BoolVar(&flagHTML, "html", false, "Shortcut for --format html")
	formatCmd.Flags().BoolVar(&flagJSON, "json", false, "Shortcut for --format json")
	formatCmd.Flags().BoolVar(&flagBatch, "batch", false, "Render the whole input with one RenderBatch call instead of streaming (JSON pretty mode emits a single array)")

	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(eventsCmd)
}

// resolveOptions merges wren.toml, the environment, and CLI flags into a
// wren.Options (§9's defaults -> file -> env -> CLI priority chain).
func resolveOptions(cmd *cobra.Command) (wren.Options, error) {
	resolved, _, err := loadAndResolveConfig()
	if err != nil {
		return wren.Options{}, err
	}
	d := resolved.Config.Defaults

	vendor := d.Vendor
	if cmd.Flags().Changed("vendor") {
		vendor = flagVendor
	}

	format := d.Format
	if cmd.Flags().Changed("format") {
		format = flagFormat
	}
	if flagHTML {
		format = "html"
	}
	if flagJSON {
		format = "json"
	}

	opts := wren.Options{
		Vendor:         wren.Vendor(vendor),
		Format:         wren.Format(format),
		HideTools:      d.HideTools || flagHideTools,
		HideCost:       d.HideCost || flagHideCost,
		HideDebug:      d.HideDebug || flagHideDebug,
		CollapseTools:  d.CollapseTools || flagCollapseTools,
		CompactMode:    d.CompactMode,
		ShowTimestamps: d.ShowTimestamps,
		MaxLineLength:  d.MaxLineLength,
		Debug:          flagEventsDebug,
		Pricing:        resolved.Config.PriceTable(),
		Width:          flagColumns,
	}

	if flagOnly != "" {
		applyOnlyFilter(&opts, flagOnly)
	}

	return opts, nil
}

// applyOnlyFilter turns a comma-separated allow-list of event kinds into the
// Hide* flags the renderer understands. msg and error events carry the
// conversation's primary signal and are never hidden through --only; only
// tool, cost, and debug events are filterable this way, matching the set of
// Hide flags render.Options exposes (documented in DESIGN.md).
func applyOnlyFilter(opts *wren.Options, only string) {
	kept := make(map[string]bool)
	for _, k := range strings.Split(only, ",") {
		kept[strings.TrimSpace(k)] = true
	}
	opts.HideTools = !kept["tool"]
	opts.HideCost = !kept["cost"]
	opts.HideDebug = !kept["debug"]
}

// openSource resolves the positional argument into a readable source.
// Patterns containing glob metacharacters are expanded with
// doublestar.FilepathGlob and concatenated in matched order (§4.10); a plain
// path is opened directly; no argument falls back to stdin.
func openSource(args []string) (io.ReadCloser, error) {
	if len(args) == 0 {
		return io.NopCloser(os.Stdin), nil
	}

	pattern := args[0]
	if !isGlobPattern(pattern) {
		f, err := os.Open(pattern)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", pattern, err)
		}
		return f, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("glob %q matched no files", pattern)
	}

	readers := make([]io.Reader, 0, len(matches))
	closers := make([]io.Closer, 0, len(matches))
	for _, m := range matches {
		f, err := os.Open(m)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, fmt.Errorf("opening %s: %w", m, err)
		}
		readers = append(readers, f, strings.NewReader("\n"))
		closers = append(closers, f)
	}

	return &multiCloser{Reader: io.MultiReader(readers...), closers: closers}, nil
}

// isGlobPattern reports whether s contains any doublestar/glob metacharacter.
func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// multiCloser adapts a concatenated io.MultiReader over several files into a
// single io.ReadCloser that closes every underlying file.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); first == nil {
			first = err
		}
	}
	return first
}

func runFormat(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	src, err := openSource(args)
	if err != nil {
		return err
	}
	defer src.Close()

	if flagBatch {
		out, err := wren.FormatBatch(cmd.Context(), src, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}

	stream, err := wren.StreamFormat(cmd.Context(), src, opts)
	if err != nil {
		return err
	}
	return stream.WriteTo(cmd.OutOrStdout())
}

func runEvents(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	src, err := openSource(args)
	if err != nil {
		return err
	}
	defer src.Close()

	stream, err := wren.StreamEvents(cmd.Context(), src, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for ev := range stream.Events() {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		b = append(b, '\n')
		if _, err := out.Write(b); err != nil {
			stream.Cancel()
			return err
		}
	}
	return stream.Wait()
}
