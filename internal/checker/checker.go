// Package checker provides clients for the external markup-conformance service.
// The conformance rules themselves live in the service; this package only
// dispatches one file and decodes the messages it reports.
package checker

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout is the default deadline for a single validation call.
const DefaultTimeout = 30 * time.Second

// Request describes one file to validate
type Request struct {
	File    string
	Doctype string
	Charset string
}

// Message is a single raw message reported by the service
type Message struct {
	Type       string `json:"type"`
	SubType    string `json:"subType,omitempty"`
	LastLine   int    `json:"lastLine"`
	LastColumn int    `json:"lastColumn"`
	Message    string `json:"message"`
}

// Result is the structured output of one validation call
type Result struct {
	Messages []Message `json:"messages"`
}

// Validator validates a single file against the conformance service
type Validator interface {
	Validate(ctx context.Context, req Request) (*Result, error)
}

// Error represents a failure to invoke the service or to read its output
type Error struct {
	File    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validator error for %s: %s: %v", e.File, e.Message, e.Cause)
	}
	return fmt.Sprintf("validator error for %s: %s", e.File, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
