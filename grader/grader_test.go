package grader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cse140l/digigrade/config"
	"github.com/cse140l/digigrade/gatestats"
	"github.com/cse140l/digigrade/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSimulator struct {
	outcomes map[string][]model.TestOutcome
	stats    map[string]gatestats.Result
	svgErr   error
	order    []string
	svgs     int
}

func (f *fakeSimulator) RunTest(_ context.Context, schematic, testFile string) []model.TestOutcome {
	f.order = append(f.order, testFile)
	if _, err := os.Stat(schematic); err != nil {
		return []model.TestOutcome{model.Missing(schematic)}
	}
	return f.outcomes[testFile]
}

func (f *fakeSimulator) Stats(_ context.Context, schematic string) (gatestats.Result, error) {
	return f.stats[schematic], nil
}

func (f *fakeSimulator) ExportSVG(context.Context, string) (string, error) {
	f.svgs++
	if f.svgErr != nil {
		return "", f.svgErr
	}
	return "<svg/>", nil
}

func intPtr(v int) *int { return &v }

func newLab(t *testing.T) *config.Lab {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adder.dig"), nil, 0644))
	return &config.Lab{
		LabNumber:           4,
		SubmissionDirectory: dir,
		Tests: []config.Test{
			{Name: "Adder", MaxScore: 10, TestFile: "adder_tests.dig", TopLevel: "adder", VisibilityOnSuccess: model.VisibilityVisible, VisibilityOnFailure: model.VisibilityVisible},
			{Name: "Adder Edge Cases", MaxScore: 4, TestFile: "adder_edge.dig", TopLevel: "adder"},
			{Name: "ALU", MaxScore: 6, TestFile: "alu_tests.dig", TopLevel: "alu"},
		},
		Analyze: []config.Analyze{{
			TopLevels: []string{"adder", "alu"},
			Gates:     []config.Gate{{Name: "and", MaxAmount: intPtr(1)}},
		}},
	}
}

func TestGrade(t *testing.T) {
	lab := newLab(t)
	sim := &fakeSimulator{
		outcomes: map[string][]model.TestOutcome{
			"adder_tests.dig": {
				model.Passed("a", ""),
				model.Failed("b", "", []string{"A"}, []model.Step{{"A": "1"}}),
			},
			"adder_edge.dig": {},
		},
		stats: map[string]gatestats.Result{
			lab.SchematicPath("adder"): {Stats: []gatestats.GateStat{{Name: "AND", BitWidth: 1, Count: 3}}},
		},
	}

	res, err := New(zerolog.Nop(), lab, sim, WithImages(true)).Grade(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"adder_tests.dig", "adder_edge.dig", "alu_tests.dig"}, sim.order)
	assert.Equal(t, 1, sim.svgs)
	assert.Equal(t, 2, res.Errors)

	tests := res.Report.Tests()
	require.Len(t, tests, 3)
	assert.Equal(t, model.StatusFailed, tests[0].Status)
	assert.InDelta(t, 5.0, tests[0].Score, 1e-9)
	assert.Equal(t, model.VisibilityVisible, tests[0].Visibility)
	assert.Equal(t, model.FormatMarkdown, tests[0].OutputFormat)
	assert.Contains(t, tests[0].Output, "#### b")

	assert.Equal(t, "We could not test your circuit. This could be due to misnamed ports or other circuit bugs.", tests[1].Output)
	assert.Equal(t, model.VisibilityHidden, tests[1].Visibility)
	assert.Equal(t, lab.SchematicPath("alu")+" not found!", tests[2].Output)
	assert.Zero(t, tests[2].Score)

	assert.Equal(t, model.AnalysisFailures{
		"adder": {"uses 3x 1 wide AND gates, more than the allowed 1"},
		"alu":   {"alu not found!"},
	}, res.Analysis.Failures)

	view := res.Report.View()
	require.NotNil(t, view.Header)
	assert.Equal(t, 4, view.Header.LabNumber)
	assert.Equal(t, []string{"alu"}, view.Header.Missing)
	require.Len(t, view.Header.Circuits, 1)
	assert.Equal(t, "<svg/>", view.Header.Circuits[0].SVG)

	feed := res.Report.Feed()
	assert.Equal(t, model.FormatMarkdown, feed.OutputFormat)
	assert.Contains(t, feed.Output, "## Lab 4")
}

func TestGrade_ExistingResults(t *testing.T) {
	lab := newLab(t)
	lab.Tests = lab.Tests[:1]
	existing := filepath.Join(t.TempDir(), "manual.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{"tests":[{"name":"Adder","status":"passed","score":1,"max_score":1,"visibility":"hidden"}]}`), 0644))
	sim := &fakeSimulator{outcomes: map[string][]model.TestOutcome{
		"adder_tests.dig": {model.Passed("a", "")},
	}}

	res, err := New(zerolog.Nop(), lab, sim, WithExistingResults(existing)).Grade(context.Background())
	require.NoError(t, err)

	tests := res.Report.Tests()
	require.Len(t, tests, 2)
	assert.Equal(t, 1.0, tests[0].MaxScore)
	assert.Equal(t, 10.0, tests[1].MaxScore)
	assert.Zero(t, res.Errors)
	assert.Zero(t, sim.svgs)

	_, err = New(zerolog.Nop(), lab, sim, WithExistingResults(filepath.Join(t.TempDir(), "missing.json"))).Grade(context.Background())
	require.Error(t, err)
}

func TestGrade_ImageFailureIsNotFatal(t *testing.T) {
	lab := newLab(t)
	lab.Tests = lab.Tests[:1]
	lab.Analyze = nil
	sim := &fakeSimulator{svgErr: errors.New("exit code 1")}

	res, err := New(zerolog.Nop(), lab, sim, WithImages(true)).Grade(context.Background())
	require.NoError(t, err)
	view := res.Report.View()
	require.Len(t, view.Header.Circuits, 1)
	assert.Empty(t, view.Header.Circuits[0].SVG)
}
