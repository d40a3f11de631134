// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"keysweep/internal/artifact"
	"keysweep/internal/config"
	"keysweep/internal/formatters"
	jsonfmt "keysweep/internal/formatters/json"
	textfmt "keysweep/internal/formatters/text"
	"keysweep/internal/observability"
	"keysweep/internal/orchestrator"
	"keysweep/internal/scanner"
	"keysweep/internal/store"
	"keysweep/internal/validation"
	"keysweep/internal/version"
)

// cliFlags holds command line flag values.
type cliFlags struct {
	path             string
	text             bool
	configFile       string
	outputFormat     string
	confidenceLevels string
	outputFile       string
	validatorCmd     string
	noValidate       bool
	verbose          bool
	noColor          bool
	debug            bool
	showVersion      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Println(version.Info())
		return 0
	}

	cfg := loadConfiguration(flags.configFile)
	applyFlagOverrides(cfg, flags)

	observer := newObserver(cfg)
	formatter, options, err := resolveOutput(cfg, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	st := store.New()
	defer st.Clear()
	orch := orchestrator.New(scanner.New(observer), st, observer, cfg.ScanOptions())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *orchestrator.Result
	switch {
	case flags.text:
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading stdin: %v\n", err)
			return 2
		}
		result = orch.ScanText(string(input))
	case flags.path != "":
		result, err = scanPathWithProgress(ctx, orch, flags.path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
	default:
		fmt.Fprintln(os.Stderr, "Error: either -path or -text is required")
		flag.Usage()
		return 2
	}

	if result.Phase != artifact.PhaseCancelled && cfg.Validation.Enabled && !flags.noValidate {
		if err := runValidation(ctx, cfg, st, observer); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Warning: validation incomplete: %v\n", err)
		}
		result.Artifacts = st.Snapshot()
	}

	output, err := formatter.Format(result, options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: formatting results: %v\n", err)
		return 2
	}
	if err := writeOutput(flags.outputFile, output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if result.Phase == artifact.PhaseCancelled {
		fmt.Fprintln(os.Stderr, "Scan cancelled; partial results shown above.")
		return 130
	}
	if len(result.Artifacts) > 0 {
		return 1
	}
	return 0
}

func parseFlags() cliFlags {
	var flags cliFlags
	flag.StringVar(&flags.path, "path", "", "Directory to scan recursively")
	flag.BoolVar(&flags.text, "text", false, "Scan text from stdin instead of a directory")
	flag.StringVar(&flags.configFile, "config", "", "Path to YAML config file (default: auto-discover)")
	flag.StringVar(&flags.outputFormat, "format", "", "Output format: text, json")
	flag.StringVar(&flags.confidenceLevels, "confidence", "", "Comma-separated confidence bands to show: high,medium,low")
	flag.StringVar(&flags.outputFile, "output", "", "Write report to file instead of stdout")
	flag.StringVar(&flags.validatorCmd, "validator", "", "External validator command (overrides config)")
	flag.BoolVar(&flags.noValidate, "no-validate", false, "Skip the validation phase")
	flag.BoolVar(&flags.verbose, "verbose", false, "Show per-artifact tags and warnings")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&flags.debug, "debug", false, "Emit debug records to stderr")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version information")
	flag.Parse()
	return flags
}

// loadConfiguration loads the configuration file or returns default config.
func loadConfiguration(configFile string) *config.Config {
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		return config.DefaultConfig()
	}
	return cfg
}

func applyFlagOverrides(cfg *config.Config, flags cliFlags) {
	if flags.outputFormat != "" {
		cfg.Defaults.Format = flags.outputFormat
	}
	if flags.confidenceLevels != "" {
		cfg.Defaults.ConfidenceLevels = strings.Split(flags.confidenceLevels, ",")
	}
	if flags.noColor {
		cfg.Defaults.NoColor = true
	}
	if flags.debug {
		cfg.Defaults.Debug = true
	}
	if flags.validatorCmd != "" {
		cfg.Validation.Enabled = true
		cfg.Validation.Command = flags.validatorCmd
	}
}

func newObserver(cfg *config.Config) *observability.StandardObserver {
	level := observability.LevelMetrics
	if cfg.Defaults.Debug {
		level = observability.LevelDebug
	}
	return observability.NewStandardObserver(level, os.Stderr)
}

func resolveOutput(cfg *config.Config, flags cliFlags) (formatters.Formatter, formatters.Options, error) {
	registry := formatters.NewRegistry()
	registry.Register(textfmt.NewFormatter())
	registry.Register(jsonfmt.NewFormatter())

	name := cfg.Defaults.Format
	if name == "" {
		name = "text"
	}
	formatter, ok := registry.Get(name)
	if !ok {
		return nil, formatters.Options{}, fmt.Errorf("unknown output format %q (available: %s)",
			name, strings.Join(registry.List(), ", "))
	}

	levels, err := formatters.ParseConfidenceLevels(strings.Join(cfg.Defaults.ConfidenceLevels, ","))
	if err != nil {
		return nil, formatters.Options{}, err
	}

	options := formatters.Options{
		ConfidenceLevel: levels,
		Verbose:         flags.verbose,
		NoColor:         cfg.Defaults.NoColor || !term.IsTerminal(int(os.Stdout.Fd())) || flags.outputFile != "",
	}
	return formatter, options, nil
}

// scanPathWithProgress runs the directory scan with a progress bar on stderr
// when attached to a terminal.
func scanPathWithProgress(ctx context.Context, orch *orchestrator.Orchestrator, path string) (*orchestrator.Result, error) {
	events := make(chan artifact.Progress, 64)
	interactive := term.IsTerminal(int(os.Stderr.Fd()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		var bar *progressbar.ProgressBar
		for p := range events {
			if !interactive {
				continue
			}
			if bar == nil && p.TotalFiles > 0 {
				bar = progressbar.NewOptions(p.TotalFiles,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("scanning"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			if bar != nil {
				_ = bar.Set(p.FilesScanned)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}
	}()

	result, err := orch.ScanPath(ctx, path, events)
	close(events)
	<-done
	return result, err
}

// runValidation drives the external validator over pending artifacts, with a
// spinner when attached to a terminal.
func runValidation(ctx context.Context, cfg *config.Config, st *store.Store, observer *observability.StandardObserver) error {
	validator, err := validation.NewCommandValidator(cfg.Validation.Command, cfg.ValidatorTimeout())
	if err != nil {
		return err
	}
	coordinator := validation.New(st, validator, observer, cfg.CoordinatorConfig())

	var spin *spinner.Spinner
	if term.IsTerminal(int(os.Stderr.Fd())) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = " validating..."
		spin.Start()
		defer spin.Stop()
	}

	return coordinator.ValidateAll(ctx, func(p validation.BatchProgress) {
		if spin != nil {
			spin.Suffix = fmt.Sprintf(" validating %d/%d...", p.ItemsValidated, p.ItemsTotal)
		}
	})
}

func writeOutput(path, output string) error {
	if path == "" {
		fmt.Println(output)
		return nil
	}
	if err := os.WriteFile(path, []byte(output+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
