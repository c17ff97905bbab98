package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/cse140l/digigrade/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PrintSummary writes one "<name>: <Status> (<score>/<max>)" line per test.
func PrintSummary(w io.Writer, tests []model.TestResult) error {
	r := lipgloss.NewRenderer(w)
	passed := r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failed := r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	titler := cases.Title(language.English)

	for _, t := range tests {
		style := failed
		if t.Status == model.StatusPassed {
			style = passed
		}
		status := style.Render(titler.String(string(t.Status)))
		if _, err := fmt.Fprintf(w, "%s: %s (%s/%s)\n", t.Name, status, formatScore(t.Score), formatScore(t.MaxScore)); err != nil {
			return err
		}
	}
	return nil
}
