package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/cse140l/digigrade/model"
	"github.com/rs/zerolog"
)

// ErrSealed is returned when a builder is changed after Build.
var ErrSealed = errors.New("report already built")

// Builder accumulates test results and diagnostics into a Report.
type Builder struct {
	logger   zerolog.Logger
	renderer Renderer
	tests    []model.TestResult
	header   *Header
	sealed   bool
}

// NewBuilder creates an empty builder. Failure tables and the header are
// rendered with renderer.
func NewBuilder(logger zerolog.Logger, renderer Renderer) *Builder {
	return &Builder{logger: logger, renderer: renderer}
}

// Load appends the tests of an existing feed document.
func (b *Builder) Load(r io.Reader) error {
	if b.sealed {
		return ErrSealed
	}
	doc, err := ReadFeed(r)
	if err != nil {
		return err
	}
	b.tests = append(b.tests, doc.Tests...)
	b.logger.Debug().Int("tests", len(doc.Tests)).Msg("Loaded existing results")
	return nil
}

// LoadFile appends the tests of the feed document stored at path.
func (b *Builder) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open existing results: %w", err)
	}
	defer f.Close()
	if err := b.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Add appends res, even when a result with the same name exists.
func (b *Builder) Add(res model.TestResult) error {
	if b.sealed {
		return ErrSealed
	}
	b.tests = append(b.tests, b.render(res))
	return nil
}

// Merge replaces the first result named like res, or appends res.
func (b *Builder) Merge(res model.TestResult) error {
	if b.sealed {
		return ErrSealed
	}
	res = b.render(res)
	i := slices.IndexFunc(b.tests, func(t model.TestResult) bool { return t.Name == res.Name })
	if i < 0 {
		b.tests = append(b.tests, res)
		return nil
	}
	b.logger.Debug().Str("test", res.Name).Msg("Replacing existing result")
	b.tests[i] = res
	return nil
}

// SetHeader sets the report header, keeping diagnostics already recorded.
func (b *Builder) SetHeader(h Header) error {
	if b.sealed {
		return ErrSealed
	}
	if b.header != nil {
		for circuit, msgs := range b.header.Diagnostics {
			if h.Diagnostics == nil {
				h.Diagnostics = model.AnalysisFailures{}
			}
			h.Diagnostics[circuit] = append(h.Diagnostics[circuit], msgs...)
		}
		h.Missing = appendUnique(h.Missing, b.header.Missing...)
	}
	b.header = &h
	return nil
}

// SetDiagnostics folds analysis failures and missing circuits into the header.
func (b *Builder) SetDiagnostics(failures model.AnalysisFailures, missing ...string) error {
	if b.sealed {
		return ErrSealed
	}
	if b.header == nil {
		b.header = &Header{}
	}
	for _, circuit := range failures.Circuits() {
		if b.header.Diagnostics == nil {
			b.header.Diagnostics = model.AnalysisFailures{}
		}
		b.header.Diagnostics[circuit] = append(b.header.Diagnostics[circuit], failures[circuit]...)
	}
	b.header.Missing = appendUnique(b.header.Missing, missing...)
	return nil
}

// Build renders the header and seals the builder.
func (b *Builder) Build() (*Report, error) {
	if b.sealed {
		return nil, ErrSealed
	}
	b.sealed = true

	r := &Report{
		tests:  append([]model.TestResult{}, b.tests...),
		header: b.header,
	}
	if b.header != nil {
		r.output, r.outputFormat = b.renderer.Header(*b.header)
	}
	return r, nil
}

func (b *Builder) render(res model.TestResult) model.TestResult {
	if len(res.Failures) > 0 && res.Output == "" {
		res.Output, res.OutputFormat = b.renderer.FailureTable(res.Failures)
	}
	return res
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
