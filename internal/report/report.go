// Package report builds and persists the structured run report and the run's final verdict.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/htmlint/internal/schemas"
	"github.com/jonathan/htmlint/internal/types"
)

// WriteError represents a failure to remove or persist the report file
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("report error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("report error for %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Summary receives the console summary line
type Summary interface {
	Success(count int)
	Failure()
}

// Reporter turns processed work items into the persisted report and the run verdict
type Reporter struct {
	// Path of the report file; empty disables the report.
	Path    string
	Summary Summary
	Logger  *zap.SugaredLogger
}

// Build assembles the report. Only processed items with at least one
// violation are listed, in worklist order.
func Build(items []types.WorkItem, counters types.Counters, generatedAt time.Time) types.RunReport {
	report := types.RunReport{
		GeneratedAt:    generatedAt,
		FilesChecked:   counters.FilesChecked,
		FilesSucceeded: counters.FilesSucceeded,
		Failures:       make([]types.FailedFile, 0),
	}

	for i := range items {
		item := &items[i]
		if !item.Processed() || !item.Failed() {
			continue
		}
		report.Failures = append(report.Failures, types.FailedFile{
			FilePath:       item.Path,
			ViolationCount: len(item.Violations),
			Violations:     item.Violations,
		})
	}

	return report
}

// Clear removes a report left over from an earlier run
func (r *Reporter) Clear() error {
	if r.Path == "" {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return &WriteError{Path: r.Path, Message: "failed to remove previous report", Cause: err}
	}
	return nil
}

// Finalize persists the report when a path is configured, prints the summary
// and returns whether every checked file succeeded.
func (r *Reporter) Finalize(items []types.WorkItem, counters types.Counters, generatedAt time.Time) (bool, error) {
	if r.Path != "" {
		if err := Write(r.Path, Build(items, counters, generatedAt), r.logger()); err != nil {
			return false, err
		}
	}

	success := counters.Succeeded()
	if r.Summary != nil {
		if success {
			r.Summary.Success(counters.FilesSucceeded)
		} else {
			r.Summary.Failure()
		}
	}
	return success, nil
}

// Write serializes report to path, replacing any existing content
func Write(path string, report types.RunReport, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	jsonBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Message: "failed to marshal report to JSON", Cause: err}
	}

	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return &WriteError{Path: path, Message: "failed to create output directory", Cause: err}
		}
	}

	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return &WriteError{Path: path, Message: "failed to write report", Cause: err}
	}

	// Schema check is non-fatal
	if err := schemas.ValidateReport(jsonBytes); err != nil {
		logger.Warnw("Generated report does not validate against schema", "report", path, "error", err)
	}

	logger.Debugw("Wrote report", "report", path, "failed", len(report.Failures))
	return nil
}

func (r *Reporter) logger() *zap.SugaredLogger {
	if r.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return r.Logger
}
