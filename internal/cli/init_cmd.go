package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/agentstream/wren/internal/config"
	"github.com/agentstream/wren/internal/logging"
	"github.com/agentstream/wren/internal/pricing"
)

// ErrWizardCancelled is returned when the user aborts the interactive wizard
// (huh.ErrUserAborted, e.g. Ctrl+C).
var ErrWizardCancelled = errors.New("wizard cancelled by user")

// wizardWidth is the fixed form width used by the init wizard.
const wizardWidth = 80

var initFlagForce bool

// initCmd implements "wren init": a huh-driven wizard that asks for a
// default vendor, default output format, and (optionally) Claude per-model
// token prices, then writes wren.toml in the current directory. Entirely
// optional ambient tooling -- "wren format" and "wren events" both work with
// zero configuration.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a wren.toml configuration file",
	Long: `Run an interactive wizard that asks for a default vendor, default
output format, and (optionally) Claude per-model token prices, then writes
wren.toml in the current directory.`,
	Args: cobra.NoArgs,

	// Override PersistentPreRunE with a copy of the root hook's env-var
	// checks, logging setup, color disable, and --dir handling. Unlike the
	// root hook, it does not read COLUMNS.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Root().PersistentFlags().Changed("verbose") && os.Getenv("WREN_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Root().PersistentFlags().Changed("quiet") && os.Getenv("WREN_QUIET") != "" {
			flagQuiet = true
		}
		if !cmd.Root().PersistentFlags().Changed("no-color") &&
			(os.Getenv("NO_COLOR") != "" || os.Getenv("WREN_NO_COLOR") != "") {
			flagNoColor = true
		}

		jsonFormat := os.Getenv("WREN_LOG_FORMAT") == "json"
		logging.Setup(flagVerbose, flagQuiet, jsonFormat)

		if flagNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}

		if flagDir != "" {
			if err := os.Chdir(flagDir); err != nil {
				return fmt.Errorf("changing directory to %s: %w", flagDir, err)
			}
		}

		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initFlagForce, "force", false, "Overwrite an existing wren.toml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command) error {
	destDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dest := filepath.Join(destDir, config.ConfigFileName)

	if _, statErr := os.Stat(dest); statErr == nil && !initFlagForce {
		return fmt.Errorf("%s already exists in %s; use --force to overwrite", config.ConfigFileName, destDir)
	}

	cfg, err := runWizard()
	if err != nil {
		if errors.Is(err, ErrWizardCancelled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "init cancelled, no file written")
			return nil
		}
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", dest)
	return nil
}

// runWizard drives the interactive form and returns the resulting
// configuration. It has two pages: defaults, then an optional Claude
// per-model price entry.
func runWizard() (*config.Config, error) {
	vendor := "auto"
	format := "ansi"
	addPrices := false

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default vendor:").
				Description("Which agent CLI's output wren should assume when --vendor is not given.").
				Options(
					huh.NewOption("Auto-detect", "auto"),
					huh.NewOption("Claude Code", "claude"),
					huh.NewOption("Gemini CLI", "gemini"),
					huh.NewOption("Amp Code", "amp"),
				).
				Value(&vendor),
			huh.NewSelect[string]().
				Title("Default output format:").
				Options(
					huh.NewOption("ANSI (terminal)", "ansi"),
					huh.NewOption("HTML", "html"),
					huh.NewOption("JSON", "json"),
				).
				Value(&format),
			huh.NewConfirm().
				Title("Configure a Claude per-model token price?").
				Description("Needed for usage -> cost conversion on Claude streams.").
				Value(&addPrices),
		),
	).
		WithTheme(huh.ThemeCharm()).
		WithWidth(wizardWidth).
		Run()
	if err != nil {
		return nil, mapWizardErr(err)
	}

	cfg := config.NewDefaults()
	cfg.Defaults.Vendor = vendor
	cfg.Defaults.Format = format

	if addPrices {
		model, input, output, err := runPricePage()
		if err != nil {
			return nil, err
		}
		if model != "" {
			cfg.Models = map[string]pricing.ModelPrice{
				model: {InputPerMTok: input, OutputPerMTok: output},
			}
		}
	}

	return cfg, nil
}

// runPricePage asks for a single model's input/output per-million-token
// price. The written wren.toml holds at most this one model; re-running
// "wren init --force" replaces the file rather than adding to it.
func runPricePage() (model string, input, output float64, err error) {
	inputStr := "3.00"
	outputStr := "15.00"

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model name:").
				Description("e.g. claude-3-5-sonnet-20241022").
				Value(&model),
			huh.NewInput().
				Title("Input price (USD per million tokens):").
				Value(&inputStr).
				Validate(validatePrice),
			huh.NewInput().
				Title("Output price (USD per million tokens):").
				Value(&outputStr).
				Validate(validatePrice),
		),
	).
		WithTheme(huh.ThemeCharm()).
		WithWidth(wizardWidth).
		Run()
	if err != nil {
		return "", 0, 0, mapWizardErr(err)
	}

	input, _ = strconv.ParseFloat(inputStr, 64)
	output, _ = strconv.ParseFloat(outputStr, 64)
	return model, input, output, nil
}

func validatePrice(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("must be a number")
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// mapWizardErr converts huh-specific errors into ErrWizardCancelled so
// callers do not need to import the huh package.
func mapWizardErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrWizardCancelled
	}
	return fmt.Errorf("wizard: %w", err)
}
