package validation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/htmlint/internal/checker"
	"github.com/jonathan/htmlint/internal/rules"
	"github.com/jonathan/htmlint/internal/types"
	"github.com/jonathan/htmlint/internal/wrapping"
)

// ViolationObserver is told about every retained violation as soon as it is found
type ViolationObserver interface {
	ViolationFound(item *types.WorkItem, v types.Violation)
}

// Options configures the driver
type Options struct {
	Doctype string
	Charset string
	// Timeout bounds a single validator call; zero waits indefinitely.
	Timeout  time.Duration
	Observer ViolationObserver
	Logger   *zap.SugaredLogger
}

// Driver validates work items one at a time
type Driver struct {
	validator checker.Validator
	filter    *rules.Filter
	opts      Options
}

// NewDriver creates a driver that dispatches to v and filters through f
func NewDriver(v checker.Validator, f *rules.Filter, opts Options) *Driver {
	if f == nil {
		f = &rules.Filter{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Driver{validator: v, filter: f, opts: opts}
}

// Validate runs item through the validator and records its retained violations.
// Template items are validated through a temporary wrapped document which is
// removed before Validate returns. A returned error means the validator could
// not be invoked and the run must stop.
func (d *Driver) Validate(ctx context.Context, item *types.WorkItem) error {
	log := d.opts.Logger.With("file", item.Path)

	target := item.Path
	if item.IsTemplate {
		tempPath, release, err := wrapping.Wrap(item.Path)
		if err != nil {
			return &FileReadError{Message: fmt.Sprintf("failed to wrap template %s", item.Path), Cause: err}
		}
		defer func() {
			if err := release(); err != nil {
				log.Warnw("Failed to remove temporary document", "temp", tempPath, "error", err)
			}
		}()
		target = tempPath
		log.Debugw("Wrapped template", "temp", tempPath)
	}

	callCtx := ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	result, err := d.validator.Validate(callCtx, checker.Request{
		File:    target,
		Doctype: d.opts.Doctype,
		Charset: d.opts.Charset,
	})
	if err != nil {
		return &Error{Path: item.Path, Message: "validator invocation failed", Cause: err}
	}
	if result == nil {
		result = &checker.Result{}
	}

	violations := make([]types.Violation, 0)
	for _, msg := range result.Messages {
		if d.filter.IsSuppressed(msg.Message) {
			continue
		}
		v := types.Violation{Line: msg.LastLine, Column: msg.LastColumn, Message: msg.Message}
		violations = append(violations, v)
		if d.opts.Observer != nil {
			d.opts.Observer.ViolationFound(item, v)
		}
	}
	item.Violations = violations

	log.Debugw("Validated file",
		"messages", len(result.Messages),
		"retained", len(violations),
	)
	return nil
}
