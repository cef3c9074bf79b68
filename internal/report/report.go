// Package report prints per-document outcomes and run summaries for humans.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/starford/mdxfix/internal/models"
)

// Styles contains the lipgloss styles used by the printer.
type Styles struct {
	Updated lipgloss.Style
	Skipped lipgloss.Style
	Warning lipgloss.Style
	Summary lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the default report styles.
func DefaultStyles() Styles {
	return Styles{
		Updated: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Summary: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Updated: s, Skipped: s, Warning: s, Summary: s, Muted: s}
}

// Printer writes report lines to an io.Writer. It is safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
}

// New creates a Printer.
func New(w io.Writer, styles Styles) *Printer {
	return &Printer{w: w, styles: styles}
}

var verbs = map[string]struct{ done, summary string }{
	"faq":    {done: "Added FAQ to", summary: "Successfully added FAQs to"},
	"author": {done: "Updated author in", summary: "Successfully updated authors in"},
}

func verbFor(op string) (string, string) {
	if v, ok := verbs[op]; ok {
		return v.done, v.summary
	}
	return "Updated", "Successfully updated"
}

// Start announces how many documents are about to be processed.
func (p *Printer) Start(op string, total int) {
	p.printf("%s\n", p.styles.Muted.Render(fmt.Sprintf("Found %d files to process (%s)", total, op)))
}

// Result prints one per-document outcome line.
func (p *Printer) Result(r models.Result) {
	name := filepath.ToSlash(r.Path)
	done, _ := verbFor(r.Operation)
	prefix := ""
	if r.DryRun {
		prefix = "[dry-run] "
	}
	var line string
	switch r.Status {
	case models.StatusUpdated:
		line = p.styles.Updated.Render(fmt.Sprintf("✓ %s%s %s", prefix, done, name))
	case models.StatusSkipped:
		line = p.styles.Skipped.Render(fmt.Sprintf("Skipping %s - %s", name, r.Message))
	default:
		line = p.styles.Warning.Render(fmt.Sprintf("⚠ %s: %s", name, r.Message))
	}
	p.printf("%s\n", line)
}

// Summary prints the final {succeeded}/{total} line.
func (p *Printer) Summary(s models.Summary) {
	_, summary := verbFor(s.Operation)
	line := fmt.Sprintf("%s %d/%d files", summary, s.Updated, s.Total)
	if s.Skipped > 0 || s.Warned > 0 {
		line += fmt.Sprintf(" (%d skipped, %d warnings)", s.Skipped, s.Warned)
	}
	p.printf("\n%s\n", p.styles.Summary.Render(line))
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// Table prints rows under headers as a bordered table.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.styles.Muted).
		Headers(headers...).
		Rows(rows...)
	p.printf("%s\n", t.String())
}
