// Package simoutput interprets the text printed by the simulator's test mode.
package simoutput

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cse140l/digigrade/model"
	"github.com/rs/zerolog"
)

// combinedValue matches the expected/found encoding of a mismatched signal.
var combinedValue = regexp.MustCompile(`E:\s*(\w+)\s*/\s*F:\s*(\w+)`)

// Parser turns simulator test output into one outcome per expected label.
type Parser struct {
	logger zerolog.Logger
}

// New creates a new parser instance
func New(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse returns the outcomes for labels, in label order. Labels without a
// status line in output are skipped. An empty result means no test case
// could be found at all.
func (p *Parser) Parse(output string, labels []string) []model.TestOutcome {
	p.logger.Debug().Str("output", output).Msg("Simulator test output")

	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	outcomes := make([]model.TestOutcome, 0, len(labels))

	for _, label := range labels {
		m := newMachine(lines, label)
		for m.state != stateDone {
			m.step()
		}

		if !m.found {
			p.logger.Warn().Str("label", label).Msg("Could not find test case in output")
			continue
		}

		switch m.status {
		case model.StatusPassed:
			outcomes = append(outcomes, model.Passed(label, output))
		case model.StatusFailed:
			outcomes = append(outcomes, model.Failed(label, output, m.signals, m.steps))
		default:
			p.logger.Error().Str("label", label).Str("reason", m.statusText).Msg("Error running test case")
			outcomes = append(outcomes, model.Errored(label, m.statusText))
		}
	}

	if len(outcomes) == 0 {
		p.logger.Error().Msg("No test cases found")
	}

	return outcomes
}

// HarnessError is the single outcome reported when the simulator itself failed.
func HarnessError(name, stdout, stderr string, exitCode int) model.TestOutcome {
	return model.Errored(name, fmt.Sprintf("STDOUT: %s\nSTDERR: %s\nERR:%d", stdout, stderr, exitCode))
}

type state uint8

const (
	stateSeekLabel state = iota
	stateClassify
	stateHeader
	stateRows
	stateDone
)

// machine locates one label's status line, then for failures consumes the
// signal header and data rows that follow it up to a blank line.
type machine struct {
	lines   []string
	pattern *regexp.Regexp
	pos     int
	state   state

	found      bool
	statusText string
	status     model.Status
	signals    []string
	steps      []model.Step
}

func newMachine(lines []string, label string) *machine {
	// labels are user data: never let them act as a pattern
	pattern := regexp.MustCompile(`^[ \t]*` + regexp.QuoteMeta(label) + `:[ \t]*(.*?)[ \t\r]*$`)
	return &machine{lines: lines, pattern: pattern}
}

func (m *machine) step() {
	switch m.state {
	case stateSeekLabel:
		m.seekLabel()
	case stateClassify:
		m.classify()
	case stateHeader:
		m.header()
	case stateRows:
		m.row()
	}
}

func (m *machine) seekLabel() {
	for ; m.pos < len(m.lines); m.pos++ {
		if match := m.pattern.FindStringSubmatch(m.lines[m.pos]); match != nil {
			m.found = true
			m.statusText = match[1]
			m.pos++
			m.state = stateClassify
			return
		}
	}
	m.state = stateDone
}

func (m *machine) classify() {
	m.status = classify(m.statusText)
	if m.status == model.StatusFailed {
		m.state = stateHeader
		return
	}
	m.state = stateDone
}

func (m *machine) header() {
	if m.pos >= len(m.lines) {
		m.state = stateDone
		return
	}
	line := m.lines[m.pos]
	// a status line or prose is not a signal header
	if strings.TrimSpace(line) == "" || strings.Contains(line, ":") {
		m.state = stateDone
		return
	}
	m.signals = strings.Fields(strings.ToUpper(line))
	m.pos++
	m.state = stateRows
}

func (m *machine) row() {
	if m.pos >= len(m.lines) || strings.TrimSpace(m.lines[m.pos]) == "" {
		m.finishTable()
		return
	}
	line := combinedValue.ReplaceAllString(m.lines[m.pos], "$1/$2")
	if strings.Contains(line, ":") {
		m.finishTable()
		return
	}

	tokens := strings.Fields(line)
	s := make(model.Step, len(m.signals))
	for i := 0; i < len(tokens) && i < len(m.signals); i++ {
		s[m.signals[i]] = tokens[i]
	}
	m.steps = append(m.steps, s)
	m.pos++
}

func (m *machine) finishTable() {
	// a header without data rows is not a failure table
	if len(m.steps) == 0 {
		m.signals = nil
	}
	m.state = stateDone
}

func classify(text string) model.Status {
	status := strings.ToLower(strings.TrimSpace(text))
	switch {
	case status == "passed":
		return model.StatusPassed
	case strings.Contains(status, "failed"):
		return model.StatusFailed
	default:
		return model.StatusError
	}
}
