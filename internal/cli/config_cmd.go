package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/agentstream/wren/internal/config"
)

// configCmd is the parent "config" namespace command. It has no action of
// its own -- it groups debug and validate subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Inspect, validate, and debug wren configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// configDebugCmd implements "wren config debug": print the fully-resolved
// configuration with source annotations.
var configDebugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show resolved configuration with source annotations",
	Long: `Display the fully-resolved configuration showing each value and
the source where it came from (environment variable, config file, or default).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, _, err := loadAndResolveConfig()
		if err != nil {
			return err
		}
		printResolvedConfig(cmd, resolved)
		return nil
	},
}

// configValidateCmd implements "wren config validate".
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and report issues",
	Long:  "Check wren.toml for errors and warnings, including unknown keys.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, meta, err := loadAndResolveConfig()
		if err != nil {
			return err
		}
		result := config.Validate(resolved.Config, meta)
		printValidationResult(cmd, result)
		if result.HasErrors() {
			return fmt.Errorf("configuration has errors")
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDebugCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

// loadAndResolveConfig loads wren.toml and resolves it over the defaults and
// the environment; no CLI flag overrides are passed to Resolve. meta is the zero toml.MetaData when no file was found,
// which Validate treats as "no undecoded keys."
func loadAndResolveConfig() (*config.Resolved, toml.MetaData, error) {
	var (
		fileCfg  *config.Config
		fileMeta *toml.MetaData
		meta     toml.MetaData
		cfgPath  string
	)

	if flagConfig != "" {
		cfgPath = flagConfig
	} else {
		found, err := config.FindConfigFile(".")
		if err != nil {
			return nil, meta, fmt.Errorf("finding config file: %w", err)
		}
		cfgPath = found
	}

	if cfgPath != "" {
		fc, md, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, meta, fmt.Errorf("loading config: %w", err)
		}
		fileCfg = fc
		meta = md
		fileMeta = &meta
	}

	resolved := config.Resolve(config.NewDefaults(), fileCfg, fileMeta, os.LookupEnv, nil)
	resolved.Path = cfgPath

	return resolved, meta, nil
}

// ---- Lipgloss styles --------------------------------------------------------

func sourceStyle(src config.Source) lipgloss.Style {
	switch src {
	case config.SourceFile:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	case config.SourceEnv:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	case config.SourceCLI:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	}
}

var (
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleSeparator = lipgloss.NewStyle()
	styleSection   = lipgloss.NewStyle().Bold(true)
	styleErrorLbl  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarnLbl   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleSuccess   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const fieldWidth = 18

func printResolvedConfig(cmd *cobra.Command, rc *config.Resolved) {
	out := cmd.OutOrStdout()

	header := styleHeader.Render("Configuration Debug")
	fmt.Fprintln(out, header)
	fmt.Fprintln(out, styleSeparator.Render(strings.Repeat("=", len("Configuration Debug"))))
	fmt.Fprintln(out)

	if rc.Path != "" {
		fmt.Fprintf(out, "Config file: %s\n", rc.Path)
	} else {
		fmt.Fprintln(out, "Config file: none found")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, styleSection.Render("[defaults]"))
	d := rc.Config.Defaults
	printField(out, "vendor", fmt.Sprintf("%q", d.Vendor), rc.Sources["defaults.vendor"])
	printField(out, "format", fmt.Sprintf("%q", d.Format), rc.Sources["defaults.format"])
	printField(out, "hide_tools", fmt.Sprintf("%v", d.HideTools), rc.Sources["defaults.hide_tools"])
	printField(out, "hide_cost", fmt.Sprintf("%v", d.HideCost), rc.Sources["defaults.hide_cost"])
	printField(out, "hide_debug", fmt.Sprintf("%v", d.HideDebug), rc.Sources["defaults.hide_debug"])
	printField(out, "collapse_tools", fmt.Sprintf("%v", d.CollapseTools), rc.Sources["defaults.collapse_tools"])
	printField(out, "max_line_length", fmt.Sprintf("%d", d.MaxLineLength), rc.Sources["defaults.max_line_length"])
	fmt.Fprintln(out)

	if len(rc.Config.Models) > 0 {
		names := make([]string, 0, len(rc.Config.Models))
		for n := range rc.Config.Models {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, name := range names {
			price := rc.Config.Models[name]
			fmt.Fprintln(out, styleSection.Render(fmt.Sprintf("[models.%s]", name)))
			printField(out, "input_per_mtok", fmt.Sprintf("%.4f", price.InputPerMTok), rc.Sources["models."+name])
			printField(out, "output_per_mtok", fmt.Sprintf("%.4f", price.OutputPerMTok), rc.Sources["models."+name])
			fmt.Fprintln(out)
		}
	}
}

func printField(out io.Writer, name, value string, src config.Source) {
	padded := fmt.Sprintf("  %-*s", fieldWidth, name)
	srcLabel := sourceStyle(src).Render(fmt.Sprintf("(source: %s)", src))
	fmt.Fprintf(out, "%s = %-24s %s\n", padded, value, srcLabel)
}

// ---- printValidationResult --------------------------------------------------

func printValidationResult(cmd *cobra.Command, result config.ValidationResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styleHeader.Render("Configuration Validation"))
	fmt.Fprintln(out, styleSeparator.Render(strings.Repeat("=", len("Configuration Validation"))))
	fmt.Fprintln(out)

	if len(result.Issues) == 0 {
		fmt.Fprintln(out, styleSuccess.Render("No issues found."))
		return
	}

	var errs, warns int
	for _, issue := range result.Issues {
		label := styleWarnLbl
		if issue.Severity == config.SeverityError {
			label = styleErrorLbl
			errs++
		} else {
			warns++
		}
		fmt.Fprintf(out, "%s [%s] %s\n", label.Render(string(issue.Severity)), issue.Field, issue.Message)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d error(s), %d warning(s)\n", errs, warns)
}
