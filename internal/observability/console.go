// Package observability provides console output and structured logging for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/htmlint/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
)

// Printer writes user-facing lint output.
// Colors are applied only when the writer is a terminal.
type Printer struct {
	out io.Writer

	errorStyle   lipgloss.Style
	detailStyle  lipgloss.Style
	successStyle lipgloss.Style
	warnStyle    lipgloss.Style

	// path of the file whose header was printed last
	current string
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:          out,
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("1")),
		detailStyle:  r.NewStyle().Foreground(lipgloss.Color("3")),
		successStyle: r.NewStyle().Foreground(lipgloss.Color("2")),
		warnStyle:    r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

// ViolationFound prints a violation as soon as it is found, preceded by a
// header line the first time a file reports one.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) ViolationFound(item *types.WorkItem, v types.Violation) {
	if p.current != item.Path {
		p.current = item.Path
		fmt.Fprintf(p.out, "Linting %s ...%s\n", item.Path, p.errorStyle.Render("ERROR"))
	}
	fmt.Fprintf(p.out, "%s%s%s%s%s%s\n",
		p.errorStyle.Render("["),
		p.detailStyle.Render(fmt.Sprintf("L%d", v.Line)),
		p.errorStyle.Render(":"),
		p.detailStyle.Render(fmt.Sprintf("C%d", v.Column)),
		p.errorStyle.Render("] "),
		p.detailStyle.Render(v.Message),
	)
}

// Warn prints a non-fatal warning
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.warnStyle.Render(">>"), fmt.Sprintf(format, args...))
}

// Success prints the lint-free summary line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Success(count int) {
	fmt.Fprintf(p.out, "%s %d files lint free\n", p.successStyle.Render(">>"), count)
}

// Failure prints the failed-run summary line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Failure() {
	fmt.Fprintf(p.out, "%s\n", p.errorStyle.Render("HTML validation failed"))
}

// PrintRunSummary outputs a boxed overview of the run for verbose mode
func (p *Printer) PrintRunSummary(counters types.Counters, failed []string, reportPath string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Checked:   %d\n", counters.FilesChecked))
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", counters.FilesSucceeded))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", counters.FilesChecked-counters.FilesSucceeded))
	for _, path := range failed {
		sb.WriteString(fmt.Sprintf("  • %s\n", path))
	}
	if reportPath != "" {
		sb.WriteString(fmt.Sprintf("Report:    %s", reportPath))
	} else {
		sb.WriteString("Report:    (disabled)")
	}

	p.printBox("RUN SUMMARY", sb.String())
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}
