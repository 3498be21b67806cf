// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/htmlint/internal/checker"
)

// Backend names accepted by the validator option
const (
	BackendHTTP    = "http"
	BackendCommand = "command"
)

// EnvValidatorURL overrides the checker service URL when set
const EnvValidatorURL = "HTMLINT_VALIDATOR_URL"

// Patterns added when angular mode is on
var (
	AngularTagPatterns  = []string{"ng-(.*)"}
	AngularAttrPatterns = []string{"ng-(.*)", "on"}
)

// Config represents the lint configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Policy
	Angular     *bool    `json:"angular,omitempty" yaml:"angular,omitempty"`         // Allow ng-* tags and attributes
	CustomTags  []string `json:"customtags,omitempty" yaml:"customtags,omitempty"`   // Regex fragments naming allowed custom elements
	CustomAttrs []string `json:"customattrs,omitempty" yaml:"customattrs,omitempty"` // Regex fragments naming allowed custom attributes
	RelaxError  []string `json:"relaxerror,omitempty" yaml:"relaxerror,omitempty"`   // Regex fragments of messages to ignore

	// Inputs
	TmplExt string   `json:"tmplext,omitempty" yaml:"tmplext,omitempty"` // Suffix of partial template files
	Files   []string `json:"files,omitempty" yaml:"files,omitempty"`     // Default input paths or glob patterns

	// Validator
	Doctype      string   `json:"doctype,omitempty" yaml:"doctype,omitempty"`
	Charset      string   `json:"charset,omitempty" yaml:"charset,omitempty"`
	Validator    string   `json:"validator,omitempty" yaml:"validator,omitempty" validate:"omitempty,oneof=http command"`
	ValidatorURL string   `json:"validatorurl,omitempty" yaml:"validatorurl,omitempty" validate:"omitempty,url"`
	ValidatorCmd []string `json:"validatorcmd,omitempty" yaml:"validatorcmd,omitempty" validate:"omitempty,min=1,dive,required"`
	Timeout      string   `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration; "0" waits indefinitely

	// Output
	ReportPath    *string `json:"reportpath,omitempty" yaml:"reportpath,omitempty"`
	DisableReport bool    `json:"-" yaml:"-"` // Set when reportpath is explicitly null
	Verbose       bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the configuration used when nothing else is specified
func Defaults() Config {
	angular := true
	reportPath := "htmlint-report.json"
	return Config{
		Angular:      &angular,
		TmplExt:      "tmpl.html",
		Doctype:      "HTML5",
		Charset:      "utf-8",
		Validator:    BackendHTTP,
		ValidatorURL: checker.DefaultServiceURL,
		ValidatorCmd: append([]string(nil), checker.DefaultCommand...),
		Timeout:      checker.DefaultTimeout.String(),
		ReportPath:   &reportPath,
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	// An explicit null report path disables the report
	if value, ok := raw["reportpath"]; ok && value == nil {
		cfg.DisableReport = true
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are filled
// from defaults after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check (value %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("config error: 'timeout' is not a duration: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("config error: 'timeout' must be non-negative")
		}
	}

	if c.ReportPath != nil && *c.ReportPath != "" {
		if info, err := os.Stat(*c.ReportPath); err == nil && info.IsDir() {
			return fmt.Errorf("config error: report path is a directory: %s", *c.ReportPath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// Slices are copied so the result never aliases c or defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Angular == nil && defaults.Angular != nil {
		angular := *defaults.Angular
		result.Angular = &angular
	}
	if result.TmplExt == "" {
		result.TmplExt = defaults.TmplExt
	}
	if result.Doctype == "" {
		result.Doctype = defaults.Doctype
	}
	if result.Charset == "" {
		result.Charset = defaults.Charset
	}
	if result.Validator == "" {
		result.Validator = defaults.Validator
	}
	if result.ValidatorURL == "" {
		result.ValidatorURL = defaults.ValidatorURL
	}
	if len(result.ValidatorCmd) == 0 {
		result.ValidatorCmd = defaults.ValidatorCmd
	}
	if result.Timeout == "" {
		result.Timeout = defaults.Timeout
	}
	if len(result.Files) == 0 {
		result.Files = defaults.Files
	}
	if result.ReportPath == nil && !result.DisableReport && defaults.ReportPath != nil {
		reportPath := *defaults.ReportPath
		result.ReportPath = &reportPath
	}

	// Pattern lists accumulate: defaults first, then this config's own
	result.CustomTags = concat(defaults.CustomTags, c.CustomTags)
	result.CustomAttrs = concat(defaults.CustomAttrs, c.CustomAttrs)
	result.RelaxError = concat(defaults.RelaxError, c.RelaxError)
	result.ValidatorCmd = concat(nil, result.ValidatorCmd)
	result.Files = concat(nil, result.Files)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides values from environment variables looked up with getenv
func (c *Config) ApplyEnv(getenv func(string) string) {
	if url := getenv(EnvValidatorURL); url != "" {
		c.ValidatorURL = url
	}
}

func concat(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
