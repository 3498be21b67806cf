package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/htmlint/internal/checker"
	"github.com/jonathan/htmlint/internal/config"
	"github.com/jonathan/htmlint/internal/observability"
	"github.com/jonathan/htmlint/internal/pipeline"
)

// errLintFailed is returned when at least one file kept a violation
var errLintFailed = errors.New("HTML validation failed")

type lintOptions struct {
	configPath   string
	angular      bool
	customTags   []string
	customAttrs  []string
	relaxError   []string
	tmplExt      string
	doctype      string
	charset      string
	reportPath   string
	noReport     bool
	validator    string
	validatorURL string
	validatorCmd []string
	timeout      time.Duration
	verbose      bool

	getenv       func(string) string
	newValidator func(*config.Resolved) (checker.Validator, error)
}

func init() {
	rootCmd.AddCommand(newLintCommand())
}

func newLintCommand() *cobra.Command {
	return newLintCommandWithOptions(&lintOptions{
		getenv:       os.Getenv,
		newValidator: pipeline.NewValidator,
	})
}

func newLintCommandWithOptions(opts *lintOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [files...]",
		Short: "Validate HTML files and templates",
		Long: `Validates every given file with the Nu HTML checker, one file at a time.
Files ending in the template suffix are wrapped in a minimal HTML5 document first.
Arguments may be glob patterns. Without arguments the 'files' list of the config is used.

Configuration can be loaded from a JSON or YAML file using --config. Command-line flags override config file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, opts, args)
		},
	}

	// Config file flag (processed first)
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")

	cmd.Flags().BoolVar(&opts.angular, "angular", true, "Accept AngularJS ng-* elements and attributes")
	cmd.Flags().StringArrayVar(&opts.customTags, "customtags", nil, "Regex fragment of element names to accept (repeatable)")
	cmd.Flags().StringArrayVar(&opts.customAttrs, "customattrs", nil, "Regex fragment of attribute names to accept (repeatable)")
	cmd.Flags().StringArrayVar(&opts.relaxError, "relaxerror", nil, "Regex of a validator message to ignore (repeatable)")
	cmd.Flags().StringVar(&opts.tmplExt, "tmplext", "", "Suffix identifying template fragments (default \"tmpl.html\")")
	cmd.Flags().StringVar(&opts.doctype, "doctype", "", "Doctype passed to the validator (default \"HTML5\")")
	cmd.Flags().StringVar(&opts.charset, "charset", "", "Charset passed to the validator (default \"utf-8\")")
	cmd.Flags().StringVarP(&opts.reportPath, "report-path", "o", "", "Path of the JSON report (default \"htmlint-report.json\")")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "Do not write a report file")
	cmd.Flags().StringVar(&opts.validator, "validator", "", "Validator backend: http or command")
	cmd.Flags().StringVar(&opts.validatorURL, "validator-url", "", "Nu checker service URL (defaults to HTMLINT_VALIDATOR_URL env var, then the public W3C service)")
	cmd.Flags().StringSliceVar(&opts.validatorCmd, "validator-cmd", nil, "Command line of a local Nu checker, e.g. java,-jar,vnu.jar")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", checker.DefaultTimeout, "Timeout of a single validator call (0 waits forever)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print debug logs and a run summary")

	return cmd
}

// resolveLintConfig merges defaults, the config file, the environment and
// explicitly set flags, in that order of precedence.
func resolveLintConfig(cmd *cobra.Command, opts *lintOptions) (*config.Resolved, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if opts.configPath != "" {
		loadedCfg, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}

		// Validate loaded config
		if err := loadedCfg.Validate(); err != nil {
			return nil, err
		}
		cfg = *loadedCfg
	}

	// Step 2: Environment
	getenv := opts.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg.ApplyEnv(getenv)

	// Step 3: Apply CLI overrides, only for flags that were explicitly set
	flags := cmd.Flags()
	if flags.Changed("angular") {
		angular := opts.angular
		cfg.Angular = &angular
	}
	if flags.Changed("customtags") {
		cfg.CustomTags = opts.customTags
	}
	if flags.Changed("customattrs") {
		cfg.CustomAttrs = opts.customAttrs
	}
	if flags.Changed("relaxerror") {
		cfg.RelaxError = opts.relaxError
	}
	if flags.Changed("tmplext") {
		cfg.TmplExt = opts.tmplExt
	}
	if flags.Changed("doctype") {
		cfg.Doctype = opts.doctype
	}
	if flags.Changed("charset") {
		cfg.Charset = opts.charset
	}
	if flags.Changed("report-path") {
		reportPath := opts.reportPath
		cfg.ReportPath = &reportPath
		cfg.DisableReport = false
	}
	if opts.noReport {
		cfg.ReportPath = nil
		cfg.DisableReport = true
	}
	if flags.Changed("validator") {
		cfg.Validator = opts.validator
	}
	if flags.Changed("validator-url") {
		cfg.ValidatorURL = opts.validatorURL
	}
	if flags.Changed("validator-cmd") {
		cfg.ValidatorCmd = opts.validatorCmd
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout.String()
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	// Step 4: Defaults, validation and compiled rules
	return cfg.Resolve()
}

func runLint(cmd *cobra.Command, opts *lintOptions, args []string) error {
	resolved, err := resolveLintConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := observability.NewLoggerFromEnv(resolved.Verbose)
	defer func() { _ = logger.Sync() }()

	newValidator := opts.newValidator
	if newValidator == nil {
		newValidator = pipeline.NewValidator
	}
	validator, err := newValidator(resolved)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	result, err := pipeline.Run(ctx, pipeline.RunOptions{
		Config:    resolved,
		Validator: validator,
		Files:     args,
		Printer:   printer,
		Logger:    logger.Sugar(),
	})
	if err != nil {
		return err
	}

	if resolved.Verbose {
		printer.PrintRunSummary(result.Counters, result.FailedPaths(), result.ReportPath)
	}

	if !result.Success {
		return errLintFailed
	}
	return nil
}
