package cli

import (
	"github.com/spf13/cobra"

	"github.com/agentstream/wren/internal/agentstream"
	"github.com/agentstream/wren/internal/render"
	"github.com/agentstream/wren/internal/tui"
	"github.com/agentstream/wren/internal/providers"
	"github.com/agentstream/wren/pkg/wren"
)

// watchCmd implements "wren watch [file]": a live scrolling viewer over the
// same ANSI renderer "wren format" uses, piped through a bubbletea TUI
// instead of plain stdout (§4.9, EXPANSION -- not part of streamFormat).
var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Watch an agent CLI event log in a live scrolling viewer",
	Long: `Render an event stream the same way "wren format" does, but in a
live terminal viewer with a status bar showing message count, cumulative
cost, and elapsed time. Reads stdin when no file argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, args)
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagVendor, "vendor", "auto", "Vendor parser: auto, claude, gemini, or amp")
	watchCmd.Flags().BoolVar(&flagCollapseTools, "collapse-tools", false, "Buffer tool output instead of streaming it inline")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	resolved, _, err := loadAndResolveConfig()
	if err != nil {
		return err
	}
	d := resolved.Config.Defaults

	vendorName := d.Vendor
	if cmd.Flags().Changed("vendor") {
		vendorName = flagVendor
	}

	src, err := openSource(args)
	if err != nil {
		return err
	}
	defer src.Close()

	reg := wren.NewRegistry(resolved.Config.PriceTable())

	streamOpts := agentstream.Options{
		Vendor:        vendor.Name(vendorName),
		MaxLineLength: d.MaxLineLength,
	}
	renderOpts := render.Options{
		CollapseTools:  d.CollapseTools || flagCollapseTools,
		ShowTimestamps: d.ShowTimestamps,
	}

	return tui.Run(cmd.Context(), src, reg, streamOpts, renderOpts)
}
