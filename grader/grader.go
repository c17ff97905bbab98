// Package grader runs a lab's tests and analyses against one submission.
package grader

import (
	"context"
	"fmt"
	"os"

	"github.com/cse140l/digigrade/analysis"
	"github.com/cse140l/digigrade/config"
	"github.com/cse140l/digigrade/gatestats"
	"github.com/cse140l/digigrade/model"
	"github.com/cse140l/digigrade/report"
	"github.com/rs/zerolog"
)

// Simulator is the part of the simulator client the grader needs.
type Simulator interface {
	RunTest(ctx context.Context, schematic, testFile string) []model.TestOutcome
	Stats(ctx context.Context, schematic string) (gatestats.Result, error)
	ExportSVG(ctx context.Context, schematic string) (string, error)
}

// Grader grades one submission against a lab configuration.
type Grader struct {
	logger   zerolog.Logger
	lab      *config.Lab
	sim      Simulator
	renderer report.Renderer
	images   bool
	existing []string
}

// Option is a function that configures a Grader.
type Option func(*Grader)

// WithImages embeds a drawing of each submitted circuit in the header.
func WithImages(enabled bool) Option {
	return func(g *Grader) {
		g.images = enabled
	}
}

// WithExistingResults loads report files whose tests precede the new ones.
func WithExistingResults(paths ...string) Option {
	return func(g *Grader) {
		g.existing = append(g.existing, paths...)
	}
}

// WithRenderer replaces the markdown renderer.
func WithRenderer(r report.Renderer) Option {
	return func(g *Grader) {
		g.renderer = r
	}
}

// New creates a grader.
func New(logger zerolog.Logger, lab *config.Lab, sim Simulator, opts ...Option) *Grader {
	g := &Grader{
		logger:   logger,
		lab:      lab,
		sim:      sim,
		renderer: report.MarkdownRenderer{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result is the outcome of a grading run.
type Result struct {
	Report   *report.Report
	Analysis analysis.Analysis
	// Tests whose simulator run ended in an error outcome
	Errors int
}

// Grade analyzes the submitted circuits and runs every configured test in
// order. Per-test failures never abort the run; an error is only returned
// when existing results cannot be loaded.
func (g *Grader) Grade(ctx context.Context) (*Result, error) {
	builder := report.NewBuilder(g.logger, g.renderer)
	for _, path := range g.existing {
		if err := builder.LoadFile(path); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	res.Analysis = analysis.New(g.logger, g.sim, g.lab.SchematicPath).Analyze(ctx, g.groups())

	header := report.Header{
		LabNumber:   g.lab.LabNumber,
		Unavailable: res.Analysis.Unavailable,
	}
	var missing []string
	for _, topLevel := range g.lab.TopLevels() {
		schematic := g.lab.SchematicPath(topLevel)
		if _, err := os.Stat(schematic); err != nil {
			missing = append(missing, topLevel)
			continue
		}
		circuit := report.Circuit{Name: topLevel}
		if g.images {
			svg, err := g.sim.ExportSVG(ctx, schematic)
			if err != nil {
				g.logger.Warn().Err(err).Str("circuit", topLevel).Msg("Failed to export circuit drawing")
			}
			circuit.SVG = svg
		}
		header.Circuits = append(header.Circuits, circuit)
	}
	if err := builder.SetHeader(header); err != nil {
		return nil, err
	}
	if err := builder.SetDiagnostics(res.Analysis.Failures, missing...); err != nil {
		return nil, err
	}

	for _, test := range g.lab.Tests {
		outcomes := g.sim.RunTest(ctx, g.lab.SchematicPath(test.TopLevel), test.TestFile)
		if hasError(outcomes) {
			res.Errors++
		}

		result := report.Score(report.Test{
			Name:      test.Name,
			MaxScore:  test.MaxScore,
			OnSuccess: test.VisibilityOnSuccess,
			OnFailure: test.VisibilityOnFailure,
		}, outcomes)
		g.logger.Debug().
			Str("test", result.Name).
			Str("status", string(result.Status)).
			Float64("score", result.Score).
			Float64("max_score", result.MaxScore).
			Msg("Testcase result")

		if err := builder.Add(result); err != nil {
			return nil, err
		}
	}

	r, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	res.Report = r

	score, max := r.Score()
	g.logger.Info().
		Int("lab", g.lab.LabNumber).
		Float64("score", score).
		Float64("max_score", max).
		Int("errors", res.Errors).
		Msg("Grading finished")
	return res, nil
}

func (g *Grader) groups() []analysis.Group {
	groups := make([]analysis.Group, 0, len(g.lab.Analyze))
	for _, a := range g.lab.Analyze {
		group := analysis.Group{TopLevels: a.TopLevels}
		for _, gate := range a.Gates {
			group.Gates = append(group.Gates, gatestats.GateConstraint{
				Name:      gate.Name,
				Inputs:    gate.Inputs,
				BitWidth:  gate.Width(),
				MaxAmount: gate.MaxAmount,
				MinAmount: gate.MinAmount,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// hasError reports whether the run could not produce regular results.
func hasError(outcomes []model.TestOutcome) bool {
	if len(outcomes) == 0 {
		return true
	}
	for _, o := range outcomes {
		if o.Synthetic || o.Status == model.StatusError {
			return true
		}
	}
	return false
}
