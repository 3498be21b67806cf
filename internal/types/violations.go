// Package types provides type definitions for structured data used throughout htmlint.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Violation represents a single retained markup conformance problem
type Violation struct {
	Line    int    `json:"line"`
	Column  int    `json:"col"`
	Message string `json:"msg"`
}

// WorkItem holds one input file's validation state for the duration of a run.
// Violations is nil until the file has been processed; a non-nil empty slice
// means the file was processed and passed.
type WorkItem struct {
	Path       string
	IsTemplate bool
	Violations []Violation
}

// Processed reports whether the item has been through the validation driver
func (w *WorkItem) Processed() bool {
	return w.Violations != nil
}

// Failed reports whether the item was processed and retained at least one violation
func (w *WorkItem) Failed() bool {
	return len(w.Violations) > 0
}
