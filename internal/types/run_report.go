package types

import "time"

// RunReport is the structured report persisted at the end of a run
type RunReport struct {
	GeneratedAt    time.Time    `json:"datetime"`
	FilesChecked   int          `json:"fileschecked"`
	FilesSucceeded int          `json:"filessucceeded"`
	Failures       []FailedFile `json:"failed"`
}

// FailedFile lists the retained violations of one failing file
type FailedFile struct {
	FilePath       string      `json:"filepath"`
	ViolationCount int         `json:"numerrs"`
	Violations     []Violation `json:"errors"`
}

// Counters are the per-run accumulators owned by the pipeline and handed to the reporter
type Counters struct {
	FilesChecked   int
	FilesSucceeded int
}

// Succeeded reports whether every checked file passed
func (c Counters) Succeeded() bool {
	return c.FilesChecked == c.FilesSucceeded
}
