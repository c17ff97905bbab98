package report

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/cse140l/digigrade/model"
)

// Renderer formats failure tables and the report header for display.
type Renderer interface {
	FailureTable(failed []model.TestOutcome) (string, model.TextFormat)
	Header(h Header) (string, model.TextFormat)
}

// MarkdownRenderer renders report parts as markdown.
type MarkdownRenderer struct{}

var _ Renderer = MarkdownRenderer{}

// FailureTable renders one section per failing test case.
func (MarkdownRenderer) FailureTable(failed []model.TestOutcome) (string, model.TextFormat) {
	var b strings.Builder
	for i, o := range failed {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "#### %s\n\n", escapeCell(o.Name))
		if o.Status != model.StatusFailed || o.Synthetic {
			writeCode(&b, o.Output)
			continue
		}
		if len(o.Signals) == 0 {
			b.WriteString("No failure details available.\n")
			continue
		}
		writeTable(&b, o.Signals, len(o.Steps), func(row int, signal string) string {
			return o.Steps[row][signal]
		})
	}
	return b.String(), model.FormatMarkdown
}

// Header renders the submitted circuits with their drawings and diagnostics.
func (MarkdownRenderer) Header(h Header) (string, model.TextFormat) {
	var b strings.Builder
	fmt.Fprintf(&b, "## Lab %d\n", h.LabNumber)

	listed := map[string]bool{}
	for _, c := range h.Circuits {
		listed[c.Name] = true
		fmt.Fprintf(&b, "\n### %s\n\n", c.Name)
		if c.SVG != "" {
			fmt.Fprintf(&b, "![%s](data:image/svg+xml;base64,%s)\n\n", c.Name, base64.StdEncoding.EncodeToString([]byte(c.SVG)))
		}
		writeDiagnostics(&b, h.Diagnostics[c.Name])
	}
	for _, name := range h.Diagnostics.Circuits() {
		if listed[name] {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", name)
		writeDiagnostics(&b, h.Diagnostics[name])
	}

	if len(h.Unavailable) > 0 {
		fmt.Fprintf(&b, "\nGate statistics could not be produced for: %s\n", strings.Join(h.Unavailable, ", "))
	}
	if len(h.Missing) > 0 {
		b.WriteString("\n### Missing circuits\n\n")
		for _, name := range h.Missing {
			fmt.Fprintf(&b, "- %s.dig\n", name)
		}
	}
	return b.String(), model.FormatMarkdown
}

// Document renders a complete view for the terminal.
func (r MarkdownRenderer) Document(view ViewDocument) string {
	var b strings.Builder
	switch {
	case view.Header != nil:
		header, _ := r.Header(*view.Header)
		b.WriteString(header)
	case view.Summary != "":
		writeText(&b, view.Summary, view.SummaryFormat)
	}

	for _, t := range view.Tests {
		fmt.Fprintf(&b, "\n## %s\n\n**%s** %s/%s\n\n", t.Name, t.Status, formatScore(t.Score), formatScore(t.MaxScore))
		if len(t.Outcomes) == 0 {
			if t.Output != "" {
				writeText(&b, t.Output, t.OutputFormat)
			}
			continue
		}
		for _, o := range t.Outcomes {
			fmt.Fprintf(&b, "#### %s\n\n", escapeCell(o.Name))
			if len(o.Steps) == 0 {
				if o.Output == "" {
					b.WriteString("No failure details available.\n\n")
					continue
				}
				writeCode(&b, o.Output)
				continue
			}
			writeTable(&b, o.Signals, len(o.Steps), func(row int, signal string) string {
				v, ok := o.Steps[row][signal]
				if !ok {
					return ""
				}
				if v.Bin == "" || v.Dec == v.Raw {
					return v.Raw
				}
				return fmt.Sprintf("%s (0b%s, %s)", v.Raw, v.Bin, v.Dec)
			})
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, signals []string, rows int, cell func(row int, signal string) string) {
	b.WriteString("|")
	for _, s := range signals {
		fmt.Fprintf(b, " %s |", escapeCell(s))
	}
	b.WriteString("\n|")
	for range signals {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for row := 0; row < rows; row++ {
		b.WriteString("|")
		for _, s := range signals {
			fmt.Fprintf(b, " %s |", escapeCell(cell(row, s)))
		}
		b.WriteString("\n")
	}
}

func writeDiagnostics(b *strings.Builder, msgs []string) {
	for _, msg := range msgs {
		fmt.Fprintf(b, "- %s\n", msg)
	}
}

func writeText(b *strings.Builder, text string, format model.TextFormat) {
	if format == model.FormatMarkdown {
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteString("\n")
		}
		return
	}
	writeCode(b, text)
}

func writeCode(b *strings.Builder, text string) {
	b.WriteString("```\n")
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n```\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
