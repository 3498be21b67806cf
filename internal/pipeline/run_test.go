package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/htmlint/internal/checker"
	"github.com/jonathan/htmlint/internal/config"
	"github.com/jonathan/htmlint/internal/observability"
	"github.com/jonathan/htmlint/internal/types"
)

// scriptedValidator answers by file content. Inputs hold their own base name;
// wrapped templates are unwrapped before the lookup.
type scriptedValidator struct {
	t        *testing.T
	messages map[string][]checker.Message
	failOn   string

	inFlight  int
	calls     []string
	tempPaths []string
}

func (s *scriptedValidator) Validate(_ context.Context, req checker.Request) (*checker.Result, error) {
	s.inFlight++
	defer func() { s.inFlight-- }()
	require.Equal(s.t, 1, s.inFlight, "validations must not overlap")

	// earlier temporary documents must already be gone
	for _, prev := range s.tempPaths {
		_, err := os.Stat(prev)
		assert.True(s.t, os.IsNotExist(err), "temporary document %s still exists", prev)
	}

	content, err := os.ReadFile(req.File)
	require.NoError(s.t, err)
	name := strings.TrimSpace(string(content))
	if strings.HasPrefix(name, "<!DOCTYPE html>") {
		s.tempPaths = append(s.tempPaths, req.File)
		name = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(name, "<!DOCTYPE html>\n<html>\n<head><title>Dummy</title></head>\n<body>\n"), "</body>\n</html>"))
	}
	s.calls = append(s.calls, name)

	if name == s.failOn {
		return nil, &checker.Error{File: req.File, Message: "HTTP status 502"}
	}
	return &checker.Result{Messages: s.messages[name]}, nil
}

// writeInputs creates files whose content is their own name
func writeInputs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		paths = append(paths, path)
	}
	return paths
}

func resolvedConfig(t *testing.T, reportPath string) *config.Resolved {
	t.Helper()
	cfg := config.Config{ReportPath: &reportPath}
	if reportPath == "" {
		cfg.ReportPath = nil
		cfg.DisableReport = true
	}
	resolved, err := cfg.Resolve()
	require.NoError(t, err)
	return resolved
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

func readReport(t *testing.T, path string) types.RunReport {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var report types.RunReport
	require.NoError(t, json.Unmarshal(content, &report))
	return report
}

func TestRun_SingleCleanFile(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	files := writeInputs(t, dir, "ok.html")
	validator := &scriptedValidator{t: t}

	var out bytes.Buffer
	result, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, reportPath),
		Validator: validator,
		Files:     files,
		Printer:   observability.NewPrinter(&out),
		Now:       fixedNow,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, types.Counters{FilesChecked: 1, FilesSucceeded: 1}, result.Counters)
	assert.Equal(t, reportPath, result.ReportPath)
	assert.Contains(t, out.String(), "1 files lint free")

	report := readReport(t, reportPath)
	assert.Equal(t, 1, report.FilesChecked)
	assert.Equal(t, 1, report.FilesSucceeded)
	assert.Empty(t, report.Failures)
}

func TestRun_SingleBadFile(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	files := writeInputs(t, dir, "bad.html")
	validator := &scriptedValidator{t: t, messages: map[string][]checker.Message{
		"bad.html": {{LastLine: 4, LastColumn: 2, Message: "Element foo not allowed as child of body"}},
	}}

	var out bytes.Buffer
	result, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, reportPath),
		Validator: validator,
		Files:     files,
		Printer:   observability.NewPrinter(&out),
		Now:       fixedNow,
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, ExitCode(result, nil))
	assert.Contains(t, out.String(), "Linting "+files[0]+" ...ERROR")
	assert.Contains(t, out.String(), "[L4:C2] Element foo not allowed as child of body")
	assert.Contains(t, out.String(), "HTML validation failed")

	report := readReport(t, reportPath)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, files[0], report.Failures[0].FilePath)
	assert.Equal(t, 1, report.Failures[0].ViolationCount)
	assert.Equal(t, 0, report.FilesSucceeded)
}

func TestRun_OrderingSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	paths := writeInputs(t, dir, "a.html", "c.html")
	missing := filepath.Join(dir, "b.tmpl.html")
	validator := &scriptedValidator{t: t, messages: map[string][]checker.Message{
		"a.html": {{LastLine: 1, LastColumn: 1, Message: "Stray end tag div."}},
		"c.html": {{LastLine: 2, LastColumn: 2, Message: "Stray end tag span."}},
	}}

	var out bytes.Buffer
	result, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, reportPath),
		Validator: validator,
		Files:     []string{paths[0], missing, paths[1]},
		Printer:   observability.NewPrinter(&out),
		Now:       fixedNow,
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, paths[0], result.Items[0].Path)
	assert.Equal(t, paths[1], result.Items[1].Path)
	assert.Equal(t, []string{"a.html", "c.html"}, validator.calls)
	assert.Equal(t, 2, result.Counters.FilesChecked)
	assert.Contains(t, out.String(), "not found.")
	assert.Equal(t, paths, result.FailedPaths())

	report := readReport(t, reportPath)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, paths[0], report.Failures[0].FilePath)
	assert.Equal(t, paths[1], report.Failures[1].FilePath)
}

func TestRun_TemplatesAreWrappedAndReleased(t *testing.T) {
	dir := t.TempDir()
	files := writeInputs(t, dir, "one.tmpl.html", "page.html", "two.tmpl.html")
	validator := &scriptedValidator{t: t, messages: map[string][]checker.Message{
		// filtered by angular mode
		"one.tmpl.html": {{LastLine: 1, LastColumn: 1, Message: "Element ng-view not allowed as child of element body"}},
	}}

	result, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, ""),
		Validator: validator,
		Files:     files,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Items[0].IsTemplate)
	assert.False(t, result.Items[1].IsTemplate)
	assert.Equal(t, []string{"one.tmpl.html", "page.html", "two.tmpl.html"}, validator.calls)
	require.Len(t, validator.tempPaths, 2)
	for _, temp := range validator.tempPaths {
		_, err := os.Stat(temp)
		assert.True(t, os.IsNotExist(err))
	}
	assert.Empty(t, result.ReportPath)
}

func TestRun_EmptyWorklist(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(reportPath, []byte("previous"), 0644))
	validator := &scriptedValidator{t: t}

	var out bytes.Buffer
	result, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, reportPath),
		Validator: validator,
		Files:     []string{filepath.Join(dir, "missing.html")},
		Printer:   observability.NewPrinter(&out),
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, ExitCode(result, nil))
	assert.Empty(t, validator.calls)
	assert.Contains(t, out.String(), "No source files were found")

	// no report is written for an empty run
	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(content))
}

func TestRun_ReportOverwriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	files := writeInputs(t, dir, "bad.html", "ok.html")
	messages := map[string][]checker.Message{
		"bad.html": {{LastLine: 1, LastColumn: 5, Message: "Stray end tag div."}},
	}

	run := func() []byte {
		_, err := Run(context.Background(), RunOptions{
			Config:    resolvedConfig(t, reportPath),
			Validator: &scriptedValidator{t: t, messages: messages},
			Files:     files,
			Now:       fixedNow,
		})
		require.NoError(t, err)
		content, err := os.ReadFile(reportPath)
		require.NoError(t, err)
		return content
	}

	fresh := run()
	require.NoError(t, os.WriteFile(reportPath, bytes.Repeat([]byte("stale "), 10000), 0644))
	again := run()

	assert.Equal(t, string(fresh), string(again))
}

func TestRun_ValidatorFailureAborts(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	files := writeInputs(t, dir, "a.html", "b.tmpl.html", "c.html")
	validator := &scriptedValidator{t: t, failOn: "b.tmpl.html"}

	result, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, reportPath),
		Validator: validator,
		Files:     files,
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, ExitCode(result, err))

	var checkerErr *checker.Error
	assert.True(t, errors.As(err, &checkerErr))
	assert.Equal(t, []string{"a.html", "b.tmpl.html"}, validator.calls)

	_, statErr := os.Stat(reportPath)
	assert.True(t, os.IsNotExist(statErr), "no report after an aborted run")
	require.Len(t, validator.tempPaths, 1)
	_, statErr = os.Stat(validator.tempPaths[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_ReportWriteFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	files := writeInputs(t, dir, "ok.html")

	_, err := Run(context.Background(), RunOptions{
		Config:    resolvedConfig(t, filepath.Join(blocker, "report.json")),
		Validator: &scriptedValidator{t: t},
		Files:     files,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report error")
}

func TestRun_ProgressEvents(t *testing.T) {
	dir := t.TempDir()
	files := writeInputs(t, dir, "a.html", "b.html")
	validator := &scriptedValidator{t: t, messages: map[string][]checker.Message{
		"b.html": {{LastLine: 1, LastColumn: 1, Message: "Stray end tag div."}},
	}}

	var events []ProgressEvent
	_, err := Run(context.Background(), RunOptions{
		Config:     resolvedConfig(t, ""),
		Validator:  validator,
		Files:      files,
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	var states []State
	for _, e := range events {
		states = append(states, e.State)
		assert.NotEmpty(t, e.RunID)
	}
	assert.Equal(t, []State{
		StatePending, StatePending,
		StateValidating, StateSucceeded,
		StateValidating, StateFailed,
	}, states)
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	files := writeInputs(t, dir, "a.html")
	validator := &scriptedValidator{t: t}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, RunOptions{Config: resolvedConfig(t, ""), Validator: validator, Files: files})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, validator.calls)
}

func TestRun_MissingDependencies(t *testing.T) {
	_, err := Run(context.Background(), RunOptions{})
	assert.Error(t, err)

	_, err = Run(context.Background(), RunOptions{Config: resolvedConfig(t, "")})
	assert.Error(t, err)
}

func TestNewValidator(t *testing.T) {
	cfg := resolvedConfig(t, "")
	v, err := NewValidator(cfg)
	require.NoError(t, err)
	assert.IsType(t, &checker.HTTPClient{}, v)

	cfg.Validator = config.BackendCommand
	v, err = NewValidator(cfg)
	require.NoError(t, err)
	assert.IsType(t, &checker.CommandClient{}, v)

	cfg.Validator = "grpc"
	_, err = NewValidator(cfg)
	assert.Error(t, err)
}
