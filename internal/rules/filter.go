// Package rules decides which validator messages are acceptable and should be suppressed.
package rules

import (
	"fmt"
	"regexp"
)

const (
	customTagFormat  = `^Element %s not allowed as child (.*)`
	customAttrFormat = `^Attribute %s not allowed on element (.*) at this point\.`
)

// PatternError reports a configured fragment that does not compile
type PatternError struct {
	Category string
	Pattern  string
	Cause    error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Category, e.Pattern, e.Cause)
}

func (e *PatternError) Unwrap() error {
	return e.Cause
}

// Filter holds the compiled suppression patterns for a run.
// The zero value suppresses nothing.
type Filter struct {
	relaxed     []*regexp.Regexp
	customTags  []*regexp.Regexp
	customAttrs []*regexp.Regexp
}

// NewFilter compiles the relaxed, custom tag and custom attribute fragments.
// Fragments are interpolated as-is so callers can pass their own regex syntax.
func NewFilter(relaxed, customTags, customAttrs []string) (*Filter, error) {
	f := &Filter{}
	var err error

	if f.relaxed, err = compileAll("relaxerror", "%s", relaxed); err != nil {
		return nil, err
	}
	if f.customTags, err = compileAll("customtags", customTagFormat, customTags); err != nil {
		return nil, err
	}
	if f.customAttrs, err = compileAll("customattrs", customAttrFormat, customAttrs); err != nil {
		return nil, err
	}

	return f, nil
}

func compileAll(category, format string, fragments []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(fragments))
	for _, fragment := range fragments {
		re, err := regexp.Compile(fmt.Sprintf(format, fragment))
		if err != nil {
			return nil, &PatternError{Category: category, Pattern: fragment, Cause: err}
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// IsSuppressed reports whether a validator message matches any relaxed,
// custom tag or custom attribute pattern.
func (f *Filter) IsSuppressed(message string) bool {
	return f.IsRelaxed(message) || f.IsCustomTag(message) || f.IsCustomAttr(message)
}

// IsRelaxed reports whether the message matches a relaxed pattern anywhere
func (f *Filter) IsRelaxed(message string) bool {
	return matchAny(f.relaxed, message)
}

// IsCustomTag reports whether the message rejects an allowed custom element
func (f *Filter) IsCustomTag(message string) bool {
	return matchAny(f.customTags, message)
}

// IsCustomAttr reports whether the message rejects an allowed custom attribute
func (f *Filter) IsCustomAttr(message string) bool {
	return matchAny(f.customAttrs, message)
}

func matchAny(patterns []*regexp.Regexp, message string) bool {
	for _, re := range patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
