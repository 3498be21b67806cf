package config

import (
	"fmt"
	"time"

	"github.com/jonathan/htmlint/internal/rules"
)

// Resolved is the immutable configuration a run works from
type Resolved struct {
	Angular      bool
	CustomTags   []string
	CustomAttrs  []string
	RelaxError   []string
	TmplExt      string
	Files        []string
	Doctype      string
	Charset      string
	Validator    string
	ValidatorURL string
	ValidatorCmd []string
	Timeout      time.Duration
	// ReportPath is empty when no report should be written.
	ReportPath string
	Verbose    bool

	Filter *rules.Filter
}

// Resolve fills defaults, validates, applies angular mode and compiles the rule filter.
// c is not modified.
func (c *Config) Resolve() (*Resolved, error) {
	merged := c.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(merged.Timeout)
	if err != nil {
		return nil, fmt.Errorf("config error: 'timeout' is not a duration: %w", err)
	}

	r := &Resolved{
		Angular:      merged.Angular != nil && *merged.Angular,
		CustomTags:   concat(nil, merged.CustomTags),
		CustomAttrs:  concat(nil, merged.CustomAttrs),
		RelaxError:   concat(nil, merged.RelaxError),
		TmplExt:      merged.TmplExt,
		Files:        merged.Files,
		Doctype:      merged.Doctype,
		Charset:      merged.Charset,
		Validator:    merged.Validator,
		ValidatorURL: merged.ValidatorURL,
		ValidatorCmd: merged.ValidatorCmd,
		Timeout:      timeout,
		Verbose:      merged.Verbose,
	}
	if merged.ReportPath != nil && !merged.DisableReport {
		r.ReportPath = *merged.ReportPath
	}

	if r.Angular {
		r.CustomTags = append(r.CustomTags, AngularTagPatterns...)
		r.CustomAttrs = append(r.CustomAttrs, AngularAttrPatterns...)
	}

	r.Filter, err = rules.NewFilter(r.RelaxError, r.CustomTags, r.CustomAttrs)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return r, nil
}
