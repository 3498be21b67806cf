// Package pipeline provides the high-level orchestration of a lint run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/htmlint/internal/checker"
	"github.com/jonathan/htmlint/internal/config"
	"github.com/jonathan/htmlint/internal/observability"
	"github.com/jonathan/htmlint/internal/report"
	"github.com/jonathan/htmlint/internal/types"
	"github.com/jonathan/htmlint/internal/validation"
)

// State is the processing state of one work item
type State string

// Work item states, in the order an item moves through them
const (
	StatePending    State = "pending"
	StateValidating State = "validating"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// ProgressEvent represents a state change of one work item
type ProgressEvent struct {
	RunID string `json:"run_id"`
	Index int    `json:"index"`
	Path  string `json:"path"`
	State State  `json:"state"`
}

// ProgressCallback is called when a work item changes state
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Config    *config.Resolved
	Validator checker.Validator
	// Files overrides Config.Files when non-empty.
	Files      []string
	Printer    *observability.Printer
	Logger     *zap.SugaredLogger
	OnProgress ProgressCallback
	Now        func() time.Time
}

// Result is the outcome of a completed run
type Result struct {
	RunID    uuid.UUID
	Success  bool
	Items    []types.WorkItem
	Counters types.Counters
	// ReportPath is set when a report was written.
	ReportPath string
}

// FailedPaths returns the paths of failing items in worklist order
func (r *Result) FailedPaths() []string {
	var paths []string
	for _, item := range r.Items {
		if item.Failed() {
			paths = append(paths, item.Path)
		}
	}
	return paths
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, runID uuid.UUID, index int, path string, state State) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			RunID: runID.String(),
			Index: index,
			Path:  path,
			State: state,
		})
	}
}

// Run discovers the input files and validates them strictly one at a time in
// discovery order, then hands the results to the reporter. An error means the
// run was aborted: the validator could not be invoked or the report could not
// be written.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: missing configuration")
	}
	if opts.Validator == nil {
		return nil, errors.New("pipeline: missing validator")
	}
	cfg := opts.Config
	if opts.Printer == nil {
		opts.Printer = observability.NewPrinter(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	runID := uuid.New()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("run_id", runID.String())
	startedAt := opts.Now()

	files := opts.Files
	if len(files) == 0 {
		files = cfg.Files
	}

	// Step 1: Discovery
	candidates, err := ExpandPatterns(files, func(pattern string) {
		log.Warnw("File pattern matched no files", "pattern", pattern)
	})
	if err != nil {
		return nil, err
	}
	items := Discover(candidates, cfg.TmplExt, func(path string, err error) {
		log.Warnw("Source file not found", "file", path, "error", err)
		opts.Printer.Warn("Source file %q not found.", path)
	})

	result := &Result{RunID: runID, Items: items}

	// Step 2: Nothing to do
	if len(items) == 0 {
		log.Warnw("No source files were found")
		opts.Printer.Warn("No source files were found")
		result.Success = true
		return result, nil
	}

	// Step 3: Remove the previous report
	reporter := &report.Reporter{Path: cfg.ReportPath, Summary: opts.Printer, Logger: log}
	if err := reporter.Clear(); err != nil {
		return nil, err
	}

	for i := range items {
		emitProgress(&opts, runID, i, items[i].Path, StatePending)
	}

	// Step 4: Validate one item at a time
	driver := validation.NewDriver(opts.Validator, cfg.Filter, validation.Options{
		Doctype:  cfg.Doctype,
		Charset:  cfg.Charset,
		Timeout:  cfg.Timeout,
		Observer: opts.Printer,
		Logger:   log,
	})

	counters := types.Counters{FilesChecked: len(items)}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled before %s: %w", items[i].Path, err)
		}

		emitProgress(&opts, runID, i, items[i].Path, StateValidating)
		if err := driver.Validate(ctx, &items[i]); err != nil {
			log.Errorw("Validator invocation failed, aborting run", "file", items[i].Path, "error", err)
			return nil, err
		}

		// Step 5: Count successes
		if items[i].Failed() {
			emitProgress(&opts, runID, i, items[i].Path, StateFailed)
		} else {
			counters.FilesSucceeded++
			emitProgress(&opts, runID, i, items[i].Path, StateSucceeded)
		}
	}
	result.Counters = counters

	// Step 6: Report
	success, err := reporter.Finalize(items, counters, startedAt)
	if err != nil {
		return nil, err
	}
	result.Success = success
	result.ReportPath = cfg.ReportPath

	log.Infow("Run finished",
		"files_checked", counters.FilesChecked,
		"files_succeeded", counters.FilesSucceeded,
		"success", success,
	)
	return result, nil
}

// ExitCode maps a run outcome to the process exit status
func ExitCode(result *Result, err error) int {
	if err != nil || result == nil || !result.Success {
		return 1
	}
	return 0
}

