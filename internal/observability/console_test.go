package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/htmlint/internal/types"
)

func TestPrinter_ViolationFound_HeaderOncePerFile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	a := &types.WorkItem{Path: "a.html"}
	b := &types.WorkItem{Path: "b.html"}
	p.ViolationFound(a, types.Violation{Line: 1, Column: 2, Message: "first"})
	p.ViolationFound(a, types.Violation{Line: 3, Column: 4, Message: "second"})
	p.ViolationFound(b, types.Violation{Line: 5, Column: 6, Message: "third"})

	want := strings.Join([]string{
		"Linting a.html ...ERROR",
		"[L1:C2] first",
		"[L3:C4] second",
		"Linting b.html ...ERROR",
		"[L5:C6] third",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrinter_SummaryLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success(3)
	p.Failure()
	p.Warn("Source file %q not found.", "gone.html")

	assert.Equal(t, ">> 3 files lint free\nHTML validation failed\n>> Source file \"gone.html\" not found.\n", buf.String())
}

func TestPrinter_PrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunSummary(types.Counters{FilesChecked: 3, FilesSucceeded: 2}, []string{"bad.html"}, "")

	out := buf.String()
	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "Checked:   3")
	assert.Contains(t, out, "Failed:    1")
	assert.Contains(t, out, "• bad.html")
	assert.Contains(t, out, "(disabled)")
}
