package model

import "fmt"

// Visibility is the disclosure tier of a test result for the student.
type Visibility string

const (
	VisibilityHidden         Visibility = "hidden"
	VisibilityAfterDueDate   Visibility = "after_due_date"
	VisibilityAfterPublished Visibility = "after_published"
	VisibilityVisible        Visibility = "visible"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityHidden, VisibilityAfterDueDate, VisibilityAfterPublished, VisibilityVisible:
		return true
	}
	return false
}

// TextFormat tags how an output string should be displayed.
type TextFormat string

const (
	FormatText         TextFormat = "text"
	FormatHTML         TextFormat = "html"
	FormatSimpleFormat TextFormat = "simple_format"
	FormatMarkdown     TextFormat = "md"
	FormatANSI         TextFormat = "ansi"
)

// TestResult is one scored entry of the grading report.
type TestResult struct {
	Name       string     `json:"name"`
	NameFormat TextFormat `json:"name_format,omitempty"`
	Number     string     `json:"number,omitempty"`
	// Either passed or failed; error outcomes are reported as failed
	Status   Status  `json:"status"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	// Derived from the configured visibilities and Status
	Visibility   Visibility `json:"visibility"`
	Output       string     `json:"output,omitempty"`
	OutputFormat TextFormat `json:"output_format,omitempty"`
	Tags         []string   `json:"tags,omitempty"`

	// Failed outcomes behind a partial score, rendered into Output later
	Failures []TestOutcome `json:"-"`
}

func (r TestResult) String() string {
	return fmt.Sprintf("Testcase %s: %.2f/%.2f", r.Name, r.Score, r.MaxScore)
}
